// Package web renders the public marketing pages.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"notaryportal/internal/metrics"
	"notaryportal/internal/models"
	"notaryportal/internal/pricing"
	"notaryportal/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "about", "services", "contact"}

// ContactSender forwards contact form messages.
type ContactSender interface {
	Contact(ctx context.Context, msg models.ContactMessage) error
}

type Pages struct {
	templates map[string]*template.Template
	contact   ContactSender
	logger    zerolog.Logger
}

type pageData struct {
	Title   string
	Session session.Context
	Prices  pricing.PriceSheet
	Form    models.ContactMessage
	Flash   string
}

func NewPages(contact ContactSender, logger zerolog.Logger) (*Pages, error) {
	funcs := template.FuncMap{"money": pricing.FormatCents}
	p := &Pages{
		templates: make(map[string]*template.Template, len(pageNames)),
		contact:   contact,
		logger:    logger.With().Str("component", "web").Logger(),
	}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p.templates[name] = t
	}
	return p, nil
}

// Register mounts the pages on r.
func (p *Pages) Register(r *mux.Router) {
	r.HandleFunc("/", p.page("home", "Home")).Methods(http.MethodGet)
	r.HandleFunc("/about", p.page("about", "About")).Methods(http.MethodGet)
	r.HandleFunc("/services", p.handleServices).Methods(http.MethodGet)
	r.HandleFunc("/contact", p.page("contact", "Contact")).Methods(http.MethodGet)
	r.HandleFunc("/contact", p.handleContact).Methods(http.MethodPost)
}

func (p *Pages) page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.IncHTTP("page_" + name)
		p.render(w, name, http.StatusOK, pageData{Title: title, Session: session.FromContext(r.Context())})
	}
}

func (p *Pages) handleServices(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("page_services")
	sess := session.FromContext(r.Context())
	p.render(w, "services", http.StatusOK, pageData{
		Title:   "Services",
		Session: sess,
		Prices:  pricing.Catalog(sess),
	})
}

func (p *Pages) handleContact(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("page_contact_post")
	data := pageData{Title: "Contact", Session: session.FromContext(r.Context())}

	if err := r.ParseForm(); err != nil {
		data.Flash = "Could not read the form."
		p.render(w, "contact", http.StatusBadRequest, data)
		return
	}
	data.Form = models.ContactMessage{
		Name:    strings.TrimSpace(r.PostForm.Get("name")),
		Email:   strings.TrimSpace(r.PostForm.Get("email")),
		Message: strings.TrimSpace(r.PostForm.Get("message")),
	}
	if data.Form.Name == "" || data.Form.Email == "" || data.Form.Message == "" {
		data.Flash = "Please fill in all fields."
		p.render(w, "contact", http.StatusBadRequest, data)
		return
	}
	if _, err := mail.ParseAddress(data.Form.Email); err != nil {
		data.Flash = "Please enter a valid email address."
		p.render(w, "contact", http.StatusBadRequest, data)
		return
	}

	if err := p.contact.Contact(r.Context(), data.Form); err != nil {
		p.logger.Error().Err(err).Msg("contact form forward failed")
		data.Flash = "Sorry, your message could not be sent. Please try again later."
		p.render(w, "contact", http.StatusBadGateway, data)
		return
	}
	p.render(w, "contact", http.StatusOK, pageData{
		Title:   "Contact",
		Session: data.Session,
		Flash:   "Thanks! We will get back to you shortly.",
	})
}

func (p *Pages) render(w http.ResponseWriter, name string, status int, data pageData) {
	var buf bytes.Buffer
	if err := p.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		p.logger.Error().Err(err).Str("page", name).Msg("render page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
