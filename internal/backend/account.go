package backend

import (
	"context"
	"net/http"

	"notaryportal/internal/models"
)

// Session asks the auth service who the forwarded session belongs to.
func (c *Client) Session(ctx context.Context, userID string) (*models.SessionInfo, error) {
	var info models.SessionInfo
	if err := c.get(ctx, "session", c.authEndpoint("/session"), userID, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Login verifies credentials with the auth service.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.SessionInfo, error) {
	var info models.SessionInfo
	if err := c.send(ctx, "login", http.MethodPost, c.authEndpoint("/login"), "", creds, &info); err != nil {
		return nil, err
	}
	if info.UserID == "" {
		return nil, ErrUnauthorized
	}
	return &info, nil
}

// Logout ends the backend session for the user.
func (c *Client) Logout(ctx context.Context, userID string) error {
	return c.send(ctx, "logout", http.MethodPost, c.authEndpoint("/logout"), userID, nil, nil)
}

func (c *Client) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := c.get(ctx, "profile_get", c.endpoint("/auth/profile"), userID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, userID string, p models.Profile) error {
	return c.send(ctx, "profile_update", http.MethodPatch, c.endpoint("/auth/profile/update"), userID, p, nil)
}

// DeleteProfile removes the client's account.
func (c *Client) DeleteProfile(ctx context.Context, userID string) error {
	return c.send(ctx, "profile_delete", http.MethodDelete, c.endpoint("/auth/profile/delete"), userID, nil, nil)
}

func (c *Client) TwoFAStatus(ctx context.Context, userID string) (*models.TwoFAStatus, error) {
	var s models.TwoFAStatus
	if err := c.get(ctx, "twofa_status", c.endpoint("/auth/twofa/status"), userID, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RequestTwoFA makes the backend email a confirmation code.
func (c *Client) RequestTwoFA(ctx context.Context, userID string) error {
	return c.send(ctx, "twofa_request", http.MethodPost, c.endpoint("/auth/twofa/request"), userID, nil, nil)
}

func (c *Client) ConfirmTwoFA(ctx context.Context, userID, code string) error {
	return c.send(ctx, "twofa_confirm", http.MethodPost, c.endpoint("/auth/twofa/confirm"), userID, models.TwoFAConfirm{Code: code}, nil)
}

// Billing returns the stored billing record. Callers must mask it before display.
func (c *Client) Billing(ctx context.Context, userID string) (*models.BillingRecord, error) {
	var b models.BillingRecord
	if err := c.get(ctx, "billing_get", c.endpoint("/auth/billing/info"), userID, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) UpdateBilling(ctx context.Context, userID string, b models.BillingRecord) error {
	return c.send(ctx, "billing_update", http.MethodPost, c.endpoint("/auth/billing/update"), userID, b, nil)
}

func (c *Client) DeleteBilling(ctx context.Context, userID string) error {
	return c.send(ctx, "billing_delete", http.MethodDelete, c.endpoint("/auth/billing/delete"), userID, nil, nil)
}

// Contact forwards a contact-form message.
func (c *Client) Contact(ctx context.Context, msg models.ContactMessage) error {
	return c.send(ctx, "contact", http.MethodPost, c.endpoint("/contact"), "", msg, nil)
}
