package pricing

import (
	"notaryportal/internal/models"
	"notaryportal/internal/session"
)

type CatalogItem struct {
	Label string `json:"label"`
	Cents int64  `json:"cents"`
	Price string `json:"price"`
}

type CatalogEntry struct {
	Service models.ServiceType `json:"service"`
	Title   string             `json:"title"`
	Items   []CatalogItem      `json:"items"`
}

type Plan struct {
	Name            string `json:"name"`
	MonthlyCents    int64  `json:"monthly_cents"`
	DiscountPercent int    `json:"discount_percent"`
	Note            string `json:"note,omitempty"`
}

// PriceSheet is the price list shown on the services page.
type PriceSheet struct {
	DiscountPercent int            `json:"discount_percent"`
	Services        []CatalogEntry `json:"services"`
	Plans           []Plan         `json:"plans"`
}

var plans = []Plan{
	{Name: "Business", MonthlyCents: 3000, DiscountPercent: 20},
	{Name: "Premium", MonthlyCents: 7500, DiscountPercent: 40, Note: "Priority booking"},
	{Name: "Corporate Retainer", MonthlyCents: 75000, Note: "Ask for more information"},
}

// Catalog lists prices as sess would be charged.
func Catalog(sess session.Context) PriceSheet {
	pct := DiscountPercent(sess)
	price := func(label string, cents int64) CatalogItem {
		d := applyDiscount(cents, pct)
		return CatalogItem{Label: label, Cents: d, Price: FormatCents(d)}
	}

	return PriceSheet{
		DiscountPercent: pct,
		Services: []CatalogEntry{
			{
				Service: models.ServiceMobile,
				Title:   "General Mobile Notarizations",
				Items: []CatalogItem{
					price("Per document", mobileBase),
					price("Travel fee within 15 miles", mobileTravel),
					price("Per mile after 15 miles", mobilePerMile),
					price("Per extra signer, seal or document", mobileAddon),
				},
			},
			{
				Service: models.ServiceLoanSigning,
				Title:   "Loan Signings / Real Estate Closings",
				Items: []CatalogItem{
					price("Flat rate per signing within 25 miles", loanBase),
					price("Travel surcharge beyond 25 miles", loanTravel),
					price("Same-day rush", loanRush),
				},
			},
			{
				Service: models.ServiceOnline,
				Title:   "Remote Online Notarization",
				Items: []CatalogItem{
					price("Per document", onlineBase),
					price("Per extra signer or seal", onlineAddon),
					price("Urgent/after-hours fee", onlineUrgent),
					price("Rush fee", onlineRush),
				},
			},
			{
				Service: models.ServiceBusiness,
				Title:   "Business Notary",
				Items: []CatalogItem{
					price("Per document", mobileBase),
					price("Travel fee within 15 miles", mobileTravel),
					price("Per extra signer, seal or document", mobileAddon),
				},
			},
		},
		Plans: append([]Plan(nil), plans...),
	}
}
