package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"notaryportal/internal/models"
)

// submitPath is the one endpoint that accepts new booking requests.
const submitPath = "/jobs/request"

// decodeJobs accepts {"jobs":[...]} or a bare array.
func decodeJobs(raw json.RawMessage) ([]models.Job, error) {
	raw = bytes.TrimSpace(raw)
	jobs := []models.Job{}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return jobs, nil
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &jobs); err != nil {
			return nil, fmt.Errorf("decode jobs: %w", err)
		}
		return jobs, nil
	}
	var wrap struct {
		Jobs []models.Job `json:"jobs"`
	}
	if err := json.Unmarshal(raw, &wrap); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	if wrap.Jobs != nil {
		jobs = wrap.Jobs
	}
	return jobs, nil
}

func (c *Client) listJobs(ctx context.Context, op, path, userID string) ([]models.Job, error) {
	var raw json.RawMessage
	if err := c.get(ctx, op, c.endpoint(path), userID, &raw); err != nil {
		return nil, err
	}
	return decodeJobs(raw)
}

// ListJobs returns all jobs visible to the caller. Jobs are never cached:
// they decide which slots are still free.
func (c *Client) ListJobs(ctx context.Context, userID string) ([]models.Job, error) {
	return c.listJobs(ctx, "jobs_list", "/jobs/", userID)
}

// PendingJobs returns jobs awaiting a decision.
func (c *Client) PendingJobs(ctx context.Context, userID string) ([]models.Job, error) {
	return c.listJobs(ctx, "jobs_pending", "/jobs/pending", userID)
}

// ClientRequests returns the jobs requested by the given client.
func (c *Client) ClientRequests(ctx context.Context, userID string) ([]models.Job, error) {
	return c.listJobs(ctx, "client_requests", "/client/requests", userID)
}

// Job fetches one job by id.
func (c *Client) Job(ctx context.Context, userID, id string) (*models.Job, error) {
	var job models.Job
	endpoint := c.endpoint("/jobs/" + url.PathEscape(id))
	if err := c.get(ctx, "jobs_get", endpoint, userID, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// SubmitJob sends a booking request to the single submission endpoint.
// Transport failures, 429 and 5xx are retried with the configured backoff.
// Every attempt carries the same idempotency key, so a retry after a lost
// response cannot create a second job. An empty key gets a fresh one.
func (c *Client) SubmitJob(ctx context.Context, req models.JobRequest, idempotencyKey string) (*models.SubmitResult, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
	}

	var res models.SubmitResult
	err := c.execute(ctx, call{
		op:             "jobs_submit",
		method:         http.MethodPost,
		url:            c.endpoint(submitPath),
		userID:         req.ClientID,
		idempotencyKey: idempotencyKey,
		body:           req,
		out:            &res,
		retry:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("submit job: %w", err)
	}

	if req.Date != "" {
		c.Invalidate(ctx, "slots:"+req.Date)
	}
	return &res, nil
}

// SubmitFeedback stores a rating for a completed job.
func (c *Client) SubmitFeedback(ctx context.Context, userID, jobID string, fb models.Feedback) error {
	endpoint := c.endpoint("/jobs/" + url.PathEscape(jobID) + "/feedback")
	if err := c.send(ctx, "jobs_feedback", http.MethodPost, endpoint, userID, fb, nil); err != nil {
		return fmt.Errorf("submit feedback: %w", err)
	}
	return nil
}
