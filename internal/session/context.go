// Package session carries the caller's authentication state as an explicit
// value, seals it in a signed cookie and guards handlers that need a login.
package session

import (
	"context"
	"strings"
)

// Plan names recognised for pricing.
const (
	PlanPremium  = "premium"
	PlanBusiness = "business"
)

// Context is the authenticated client as seen by the portal. It is passed by
// value to pricing, booking and handlers.
type Context struct {
	LoggedIn bool   `json:"logged_in"`
	UserID   string `json:"user_id,omitempty"`
	Premium  bool   `json:"is_premium"`
	Plan     string `json:"plan,omitempty"`
}

// Anonymous is the context of a visitor without a session.
func Anonymous() Context {
	return Context{}
}

// EffectivePlan folds the premium flag into the plan name.
func (c Context) EffectivePlan() string {
	if c.Premium {
		return PlanPremium
	}
	return strings.ToLower(strings.TrimSpace(c.Plan))
}

type ctxKey struct{}

// WithContext attaches sess to ctx.
func WithContext(ctx context.Context, sess Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session attached by the middleware, or Anonymous.
func FromContext(ctx context.Context) Context {
	if sess, ok := ctx.Value(ctxKey{}).(Context); ok {
		return sess
	}
	return Anonymous()
}
