package api

import (
	"net/url"
	"testing"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	tests := []struct {
		name      string
		page      int
		perPage   int
		want      []int
		wantPages int
	}{
		{"first page", 1, 2, []int{1, 2}, 3},
		{"last partial page", 3, 2, []int{5}, 3},
		{"past the end", 4, 2, []int{}, 3},
		{"single page", 1, 20, []int{1, 2, 3, 4, 5}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, info := paginate(items, tt.page, tt.perPage)
			if len(got) != len(tt.want) {
				t.Fatalf("paginate() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("paginate()[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
			if info.TotalPages != tt.wantPages || info.Total != len(items) {
				t.Errorf("info = %+v, want %d pages of %d", info, tt.wantPages, len(items))
			}
		})
	}
}

func TestPageParams(t *testing.T) {
	tests := []struct {
		query       string
		wantPage    int
		wantPerPage int
		wantErr     bool
	}{
		{"", 1, defaultPerPage, false},
		{"page=3&per_page=5", 3, 5, false},
		{"page=0", 0, 0, true},
		{"page=abc", 0, 0, true},
		{"per_page=101", 0, 0, true},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		page, perPage, err := pageParams(q)
		if (err != nil) != tt.wantErr {
			t.Errorf("pageParams(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
			continue
		}
		if page != tt.wantPage || perPage != tt.wantPerPage {
			t.Errorf("pageParams(%q) = %d, %d; want %d, %d", tt.query, page, perPage, tt.wantPage, tt.wantPerPage)
		}
	}
}
