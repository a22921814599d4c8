package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaryportal/internal/models"
	"notaryportal/internal/session"
)

type fakeContact struct {
	got []models.ContactMessage
	err error
}

func (f *fakeContact) Contact(_ context.Context, msg models.ContactMessage) error {
	f.got = append(f.got, msg)
	return f.err
}

func newRouter(t *testing.T, contact ContactSender) *mux.Router {
	t.Helper()
	pages, err := NewPages(contact, zerolog.Nop())
	require.NoError(t, err)
	r := mux.NewRouter()
	pages.Register(r)
	return r
}

func TestPages_Render(t *testing.T) {
	r := newRouter(t, &fakeContact{})

	tests := []struct {
		path string
		want string
	}{
		{"/", "Mobile and Online Notary Services"},
		{"/about", "About Us"},
		{"/services", "$150.00"},
		{"/contact", `action="/contact"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		})
	}
}

func TestPages_ServicesUsesSessionPlan(t *testing.T) {
	r := newRouter(t, &fakeContact{})

	req := httptest.NewRequest(http.MethodGet, "/services", nil)
	req = req.WithContext(session.WithContext(req.Context(), session.Context{LoggedIn: true, UserID: "1", Premium: true}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "Your plan saves 40%")
	assert.Contains(t, body, "$90.00")
	assert.NotContains(t, body, "$150.00")
}

func TestPages_ContactPost(t *testing.T) {
	post := func(r http.Handler, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	t.Run("sends", func(t *testing.T) {
		contact := &fakeContact{}
		rec := post(newRouter(t, contact), url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "message": {"Hello"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Thanks!")
		require.Len(t, contact.got, 1)
		assert.Equal(t, "Hello", contact.got[0].Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		contact := &fakeContact{}
		rec := post(newRouter(t, contact), url.Values{"name": {"Ada"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please fill in all fields.")
		assert.Empty(t, contact.got)
	})

	t.Run("backend failure keeps form", func(t *testing.T) {
		contact := &fakeContact{err: errors.New("down")}
		rec := post(newRouter(t, contact), url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "message": {"Hello"}})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "could not be sent")
		assert.Contains(t, rec.Body.String(), `value="Ada"`)
	})
}
