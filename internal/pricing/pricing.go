// Package pricing computes notary fee quotes. Quotes depend only on their
// inputs and the explicit session context.
package pricing

import (
	"fmt"

	"notaryportal/internal/models"
	"notaryportal/internal/session"
)

// Fees in cents.
const (
	mobileBase      = 1000
	mobileTravel    = 2000
	mobileAddon     = 1000
	mobilePerMile   = 100
	mobileFreeMiles = 15

	loanBase      = 15000
	loanTravel    = 2500
	loanFreeMiles = 25
	loanRush      = 2500

	onlineBase   = 3000
	onlineAddon  = 1500
	onlineUrgent = 1500
	onlineRush   = 2500
)

// DiscountPercent returns the plan discount for a client.
func DiscountPercent(sess session.Context) int {
	switch sess.EffectivePlan() {
	case session.PlanPremium:
		return 40
	case session.PlanBusiness:
		return 20
	default:
		return 0
	}
}

// Request describes the job being priced.
type Request struct {
	Service   string `json:"service"`
	Urgency   string `json:"urgency,omitempty"`
	Documents int    `json:"documents,omitempty"`
	Addons    int    `json:"addons,omitempty"`
	Miles     int    `json:"miles,omitempty"`
}

// Line is one fee on a quote. Cents is after the plan discount.
type Line struct {
	Label         string `json:"label"`
	Quantity      int    `json:"quantity"`
	UnitCents     int64  `json:"unit_cents"`
	StandardCents int64  `json:"standard_cents"`
	Cents         int64  `json:"cents"`
}

// Estimate is a priced job.
type Estimate struct {
	Service         models.ServiceType `json:"service"`
	Urgency         models.Urgency     `json:"urgency"`
	Plan            string             `json:"plan,omitempty"`
	DiscountPercent int                `json:"discount_percent"`
	Lines           []Line             `json:"lines"`
	StandardCents   int64              `json:"standard_cents"`
	TotalCents      int64              `json:"total_cents"`
}

func (q Estimate) Total() string { return FormatCents(q.TotalCents) }

// Quote prices req for sess. Business Notary is billed at mobile rates.
func Quote(sess session.Context, req Request) (*Estimate, error) {
	service, err := models.ParseService(req.Service)
	if err != nil {
		return nil, err
	}
	urgency, err := models.ParseUrgency(req.Urgency)
	if err != nil {
		return nil, err
	}
	if req.Documents < 0 || req.Addons < 0 || req.Miles < 0 {
		return nil, fmt.Errorf("documents, addons and miles must not be negative")
	}
	docs := req.Documents
	if docs == 0 {
		docs = 1
	}

	var items []item
	switch service {
	case models.ServiceMobile, models.ServiceBusiness:
		items = append(items,
			item{"Notarization per document", docs, mobileBase},
			item{"Travel fee within 15 miles", 1, mobileTravel},
		)
		if extra := req.Miles - mobileFreeMiles; extra > 0 {
			items = append(items, item{"Mileage beyond 15 miles", extra, mobilePerMile})
		}
		if req.Addons > 0 {
			items = append(items, item{"Extra signer, seal or document", req.Addons, mobileAddon})
		}
	case models.ServiceLoanSigning:
		items = append(items, item{"Loan signing flat rate", 1, loanBase})
		if req.Miles > loanFreeMiles {
			items = append(items, item{"Travel surcharge beyond 25 miles", 1, loanTravel})
		}
		if urgency == models.UrgencyRush {
			items = append(items, item{"Same-day rush", 1, loanRush})
		}
	case models.ServiceOnline:
		items = append(items, item{"Online notarization per document", docs, onlineBase})
		if req.Addons > 0 {
			items = append(items, item{"Extra signer or seal", req.Addons, onlineAddon})
		}
		switch urgency {
		case models.UrgencyUrgent:
			items = append(items, item{"Urgent/after-hours fee", 1, onlineUrgent})
		case models.UrgencyRush:
			items = append(items, item{"Rush fee", 1, onlineRush})
		}
	}

	pct := DiscountPercent(sess)
	q := &Estimate{
		Service:         service,
		Urgency:         urgency,
		Plan:            sess.EffectivePlan(),
		DiscountPercent: pct,
		Lines:           make([]Line, 0, len(items)),
	}
	for _, it := range items {
		standard := int64(it.quantity) * it.unit
		line := Line{
			Label:         it.label,
			Quantity:      it.quantity,
			UnitCents:     applyDiscount(it.unit, pct),
			StandardCents: standard,
			Cents:         applyDiscount(standard, pct),
		}
		q.Lines = append(q.Lines, line)
		q.StandardCents += line.StandardCents
		q.TotalCents += line.Cents
	}
	return q, nil
}

type item struct {
	label    string
	quantity int
	unit     int64
}

func applyDiscount(cents int64, pct int) int64 {
	return cents * int64(100-pct) / 100
}

// FormatCents renders cents as dollars, e.g. "$6.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
