package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaryportal/internal/availability"
	"notaryportal/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Options{
		BaseURL: srv.URL,
		APIKey:  "secret",
		Timeout: 2 * time.Second,
		Retry: RetryConfig{
			MaxRetries:  3,
			RetryDelays: []time.Duration{time.Millisecond},
		},
		Logger: zerolog.New(io.Discard),
	})
}

func useMiniredis(t *testing.T, c *Client) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	c.UseRedisCache(rdb, time.Minute)
	return mr
}

func TestSlots_ResponseShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []availability.TimeSlot
		wantErr error
	}{
		{
			name: "wrapped",
			body: `{"slots":[{"date":"2025-07-04","time":"09:00","available":true},{"date":"2025-07-04","time":"10:00","available":false}]}`,
			want: []availability.TimeSlot{
				{Date: "2025-07-04", Time: "09:00", Available: true},
				{Date: "2025-07-04", Time: "10:00", Available: false},
			},
		},
		{
			name: "bare array without available flag",
			body: `[{"time":"9:0"},{"datetime":"2025-07-04T11:00"}]`,
			want: []availability.TimeSlot{
				{Time: "9:0", Available: true},
				{Date: "2025-07-04T11:00", Time: "2025-07-04T11:00", Available: true},
			},
		},
		{
			name:    "not configured",
			body:    `{"error":"No availability configured for this business"}`,
			wantErr: ErrNotConfigured,
		},
		{
			name: "empty object",
			body: `{}`,
			want: []availability.TimeSlot{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/calendar/slots", r.URL.Path)
				assert.Equal(t, "2025-07-04", r.URL.Query().Get("date"))
				assert.Equal(t, "secret", r.Header.Get("x-api-key"))
				_, _ = io.WriteString(w, tt.body)
			}))

			got, err := c.Slots(context.Background(), "2025-07-04")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlots_NotConfiguredStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"No availability configured"}`)
	}))

	_, err := c.Slots(context.Background(), "2025-07-04")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSlots_RedisCache(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{"slots":[{"date":"2025-07-04","time":"09:00","available":true}]}`)
	}))
	mr := useMiniredis(t, c)
	ctx := context.Background()

	first, err := c.Slots(ctx, "2025-07-04")
	require.NoError(t, err)
	second, err := c.Slots(ctx, "2025-07-04")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, mr.Exists("notary:slots:2025-07-04"))

	_, err = c.RefreshSlots(ctx, "2025-07-04")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	c.Invalidate(ctx, "slots:*")
	assert.False(t, mr.Exists("notary:slots:2025-07-04"))
}

func TestSubmitJob_RetriesSameEndpoint(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
		keys  []string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		attempt := len(paths)
		mu.Unlock()

		var req models.JobRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Mobile Notary", req.Service)
		assert.Equal(t, "7", r.Header.Get("X-User-Id"))

		if attempt < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":42,"status":"pending"}`)
	}))

	res, err := c.SubmitJob(context.Background(), models.JobRequest{
		Name:     "Jane",
		Email:    "jane@example.com",
		ClientID: "7",
		Service:  "Mobile Notary",
		Date:     "2025-07-04",
		Time:     "09:00",
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "42", res.Reference())
	assert.Equal(t, []string{"POST /jobs/request", "POST /jobs/request", "POST /jobs/request"}, paths)
	require.Len(t, keys, 3)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])
	assert.Equal(t, keys[0], keys[2])
}

func TestSubmitJob_ClientErrorIsFinal(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"location is required"}`)
	}))

	_, err := c.SubmitJob(context.Background(), models.JobRequest{Service: "Online Notary"}, "key-1")
	require.Error(t, err)

	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "location is required", httpErr.Message())
	assert.Equal(t, int32(1), hits.Load())
}

func TestSubmitJob_GivesUpAfterMaxRetries(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.SubmitJob(context.Background(), models.JobRequest{}, "key-1")

	require.Error(t, err)
	assert.Equal(t, int32(4), hits.Load())
}

func TestSubmitJob_InvalidatesSlotCache(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"job_id":"abc"}`)
	}))
	mr := useMiniredis(t, c)
	require.NoError(t, mr.Set("notary:slots:2025-07-04", "[]"))
	require.NoError(t, mr.Set("notary:slots:2025-07-05", "[]"))

	res, err := c.SubmitJob(context.Background(), models.JobRequest{Date: "2025-07-04"}, "k")
	require.NoError(t, err)

	assert.Equal(t, "abc", res.Reference())
	assert.False(t, mr.Exists("notary:slots:2025-07-04"))
	assert.True(t, mr.Exists("notary:slots:2025-07-05"))
}

func TestListJobs_Shapes(t *testing.T) {
	for name, body := range map[string]string{
		"wrapped": `{"jobs":[{"id":1,"client_id":7,"status":"pending","date":"2025-07-04","time":"09:00"}]}`,
		"array":   `[{"id":1,"client_id":7,"status":"pending","date":"2025-07-04","time":"09:00"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/jobs/", r.URL.Path)
				assert.Equal(t, "7", r.Header.Get("X-User-Id"))
				_, _ = io.WriteString(w, body)
			}))

			jobs, err := c.ListJobs(context.Background(), "7")
			require.NoError(t, err)
			require.Len(t, jobs, 1)
			assert.Equal(t, models.FlexID("1"), jobs[0].ID)
			assert.True(t, jobs[0].BelongsTo("7"))
		})
	}
}

func TestJobListEndpoints(t *testing.T) {
	tests := []struct {
		name string
		list func(c *Client) ([]models.Job, error)
		path string
	}{
		{"pending", func(c *Client) ([]models.Job, error) { return c.PendingJobs(context.Background(), "7") }, "/jobs/pending"},
		{"client requests", func(c *Client) ([]models.Job, error) { return c.ClientRequests(context.Background(), "7") }, "/client/requests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.path, r.URL.Path)
				_, _ = io.WriteString(w, `null`)
			}))

			jobs, err := tt.list(c)
			require.NoError(t, err)
			assert.Empty(t, jobs)
		})
	}
}

func TestSaveAvailability_SendsDayNamesAndDropsCache(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendar/availability", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))
	mr := useMiniredis(t, c)
	require.NoError(t, mr.Set("notary:slots:2025-07-07", "[]"))

	hours := availability.DefaultBusinessHours()
	hours.AvailableDays = []int{1, 3, 5}
	require.NoError(t, c.SaveAvailability(context.Background(), hours))

	assert.Equal(t, []any{"Mon", "Wed", "Fri"}, body["availableDays"])
	assert.Equal(t, hours.OfficeStart, body["officeStart"])
	assert.False(t, mr.Exists("notary:slots:2025-07-07"))
}

func TestSession(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/session", r.URL.Path)
		assert.Equal(t, "7", r.Header.Get("X-User-Id"))
		_, _ = io.WriteString(w, `{"user_id":"7","plan":"business"}`)
	}))

	info, err := c.Session(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, models.FlexID("7"), info.UserID)
	assert.Equal(t, "business", info.Plan)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusConflict, ErrConflict},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			_, err := c.Job(context.Background(), "7", "99")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "right" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"user_id":7,"is_premium":true}`)
	}))

	info, err := c.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "right"})
	require.NoError(t, err)
	assert.Equal(t, models.FlexID("7"), info.UserID)
	assert.True(t, info.IsPremium)

	_, err = c.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"429", &HTTPError{Status: http.StatusTooManyRequests}, true},
		{"500", &HTTPError{Status: http.StatusInternalServerError}, true},
		{"404", &HTTPError{Status: http.StatusNotFound}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}

func TestRetryConfigDelay(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, time.Second, cfg.delay(0))
	assert.Equal(t, 30*time.Second, cfg.delay(2))
	assert.Equal(t, 30*time.Second, cfg.delay(5))
	assert.Equal(t, time.Duration(0), RetryConfig{}.delay(1))
}
