// Package api serves the client portal JSON API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"notaryportal/internal/backend"
	"notaryportal/internal/booking"
	"notaryportal/internal/models"
	"notaryportal/internal/session"
)

// BookingService is implemented by booking.Service.
type BookingService interface {
	AvailableSlots(ctx context.Context, date string, now time.Time) (*booking.SlotsResult, error)
	Submit(ctx context.Context, sess session.Context, form models.JobRequest, idempotencyKey string) (*models.SubmitResult, error)
	Bookings(ctx context.Context, sess session.Context) ([]models.Job, error)
	Booking(ctx context.Context, sess session.Context, id string) (*models.Job, error)
	History(ctx context.Context, sess session.Context) ([]models.Job, error)
	SubmitFeedback(ctx context.Context, sess session.Context, id string, fb models.Feedback) error
	Now() time.Time
}

// AccountBackend covers the account and auth calls proxied to the backend.
type AccountBackend interface {
	Login(ctx context.Context, creds models.Credentials) (*models.SessionInfo, error)
	Logout(ctx context.Context, userID string) error
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, p models.Profile) error
	DeleteProfile(ctx context.Context, userID string) error
	TwoFAStatus(ctx context.Context, userID string) (*models.TwoFAStatus, error)
	RequestTwoFA(ctx context.Context, userID string) error
	ConfirmTwoFA(ctx context.Context, userID, code string) error
	Billing(ctx context.Context, userID string) (*models.BillingRecord, error)
	UpdateBilling(ctx context.Context, userID string, b models.BillingRecord) error
	DeleteBilling(ctx context.Context, userID string) error
	Contact(ctx context.Context, msg models.ContactMessage) error
	CalendarEvents(ctx context.Context, userID string) ([]backend.CalendarEvent, error)
}

// Publisher emits domain events.
type Publisher interface {
	Emit(eventType string, payload any) error
}

// PageRegistrar mounts server-rendered pages on the router.
type PageRegistrar interface {
	Register(r *mux.Router)
}

type Deps struct {
	Booking        BookingService
	Account        AccountBackend
	Sessions       *session.Manager
	Bus            Publisher
	Pages          PageRegistrar
	Ready          func(ctx context.Context) error
	AllowedOrigins []string
}

type HTTPServer struct {
	server   *http.Server
	booking  BookingService
	account  AccountBackend
	sessions *session.Manager
	bus      Publisher
	ready    func(ctx context.Context) error
	logger   zerolog.Logger
}

func NewHTTPServer(port int, deps Deps, logger zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		booking:  deps.Booking,
		account:  deps.Account,
		sessions: deps.Sessions,
		bus:      deps.Bus,
		ready:    deps.Ready,
		logger:   logger.With().Str("component", "api").Logger(),
	}

	router := mux.NewRouter()
	router.Use(requestID, s.accessLog, s.sessions.Middleware(logger))

	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/slots", s.handleSlots).Methods(http.MethodGet)

	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/session", s.handleSession).Methods(http.MethodGet)

	api.HandleFunc("/bookings", s.handleListBookings).Methods(http.MethodGet)
	api.HandleFunc("/bookings", s.handleCreateBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}", s.handleGetBooking).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/feedback", s.handleFeedback).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/history/export", s.handleHistoryExport).Methods(http.MethodGet)
	api.HandleFunc("/calendar/events", s.handleCalendarEvents).Methods(http.MethodGet)

	account := api.PathPrefix("/account").Subrouter()
	account.HandleFunc("/profile", s.handleGetProfile).Methods(http.MethodGet)
	account.HandleFunc("/profile", s.handleUpdateProfile).Methods(http.MethodPatch)
	account.HandleFunc("/profile", s.handleDeleteProfile).Methods(http.MethodDelete)
	account.HandleFunc("/twofa", s.handleTwoFAStatus).Methods(http.MethodGet)
	account.HandleFunc("/twofa/request", s.handleTwoFARequest).Methods(http.MethodPost)
	account.HandleFunc("/twofa/confirm", s.handleTwoFAConfirm).Methods(http.MethodPost)
	account.HandleFunc("/billing", s.handleGetBilling).Methods(http.MethodGet)
	account.HandleFunc("/billing", s.handleUpdateBilling).Methods(http.MethodPut)
	account.HandleFunc("/billing", s.handleDeleteBilling).Methods(http.MethodDelete)

	api.HandleFunc("/contact", s.handleContact).Methods(http.MethodPost)
	api.HandleFunc("/services", s.handleServices).Methods(http.MethodGet)
	api.HandleFunc("/quote", s.handleQuote).Methods(http.MethodPost)

	if deps.Pages != nil {
		deps.Pages.Register(router)
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins(deps.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Idempotency-Key", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
		handlers.AllowCredentials(),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           recovery(cors(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("portal API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type recoveryLogger struct {
	logger zerolog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error().Msg(fmt.Sprint(v...))
}
