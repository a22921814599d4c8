package api

import (
	"errors"
	"net/url"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// PageInfo describes one page of a list response. Pages are 1-based.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func pageParams(q url.Values) (page, perPage int, err error) {
	page, perPage = 1, defaultPerPage
	if raw := q.Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil || page < 1 {
			return 0, 0, errors.New("invalid page; expected a positive integer")
		}
	}
	if raw := q.Get("per_page"); raw != "" {
		if perPage, err = strconv.Atoi(raw); err != nil || perPage < 1 || perPage > maxPerPage {
			return 0, 0, errors.New("invalid per_page; expected 1-100")
		}
	}
	return page, perPage, nil
}

// paginate slices items for the requested page. A page past the end is empty.
func paginate[T any](items []T, page, perPage int) ([]T, PageInfo) {
	info := PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      len(items),
		TotalPages: (len(items) + perPage - 1) / perPage,
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}, info
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], info
}
