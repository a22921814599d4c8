package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaryportal/internal/models"
	"notaryportal/internal/session"
)

var (
	standard = session.Context{LoggedIn: true, UserID: "1"}
	premium  = session.Context{LoggedIn: true, UserID: "2", Premium: true}
	business = session.Context{LoggedIn: true, UserID: "3", Plan: "business"}
)

func TestQuote_Totals(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		total int64
		lines int
	}{
		{name: "mobile single document", req: Request{Service: "Mobile Notary"}, total: 3000, lines: 2},
		{name: "mobile with mileage and addons", req: Request{Service: "mobile notary", Documents: 2, Addons: 1, Miles: 20}, total: 2000 + 2000 + 500 + 1000, lines: 4},
		{name: "business uses mobile rates", req: Request{Service: "Business Notary"}, total: 3000, lines: 2},
		{name: "loan within radius", req: Request{Service: "Loan Signing", Miles: 25}, total: 15000, lines: 1},
		{name: "loan far and rush", req: Request{Service: "Loan Signing", Miles: 30, Urgency: "rush"}, total: 20000, lines: 3},
		{name: "loan ignores urgent", req: Request{Service: "Loan Signing", Urgency: "urgent"}, total: 15000, lines: 1},
		{name: "online urgent", req: Request{Service: "Online Notary", Addons: 2, Urgency: "urgent"}, total: 3000 + 3000 + 1500, lines: 3},
		{name: "online rush", req: Request{Service: "Online Notary", Urgency: "rush"}, total: 5500, lines: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Quote(standard, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.total, q.TotalCents)
			assert.Equal(t, tt.total, q.StandardCents)
			assert.Len(t, q.Lines, tt.lines)
			assert.Equal(t, 0, q.DiscountPercent)
		})
	}
}

func TestQuote_PlanDiscounts(t *testing.T) {
	req := Request{Service: "Online Notary", Documents: 3, Addons: 1, Urgency: "rush"}

	base, err := Quote(standard, req)
	require.NoError(t, err)
	prem, err := Quote(premium, req)
	require.NoError(t, err)
	biz, err := Quote(business, req)
	require.NoError(t, err)

	assert.Equal(t, base.TotalCents*60/100, prem.TotalCents)
	assert.Equal(t, base.TotalCents*80/100, biz.TotalCents)
	assert.Equal(t, base.TotalCents, prem.StandardCents)

	for i := range base.Lines {
		assert.Equal(t, base.Lines[i].Cents*60/100, prem.Lines[i].Cents, base.Lines[i].Label)
		assert.Equal(t, base.Lines[i].Cents*80/100, biz.Lines[i].Cents, base.Lines[i].Label)
	}
	assert.Equal(t, session.PlanPremium, prem.Plan)
	assert.Equal(t, 40, prem.DiscountPercent)
	assert.Equal(t, 20, biz.DiscountPercent)
}

func TestQuote_Errors(t *testing.T) {
	_, err := Quote(standard, Request{Service: "Apostille"})
	assert.EqualError(t, err, "unknown service: Apostille")

	_, err = Quote(standard, Request{Service: "Mobile Notary", Urgency: "asap"})
	assert.EqualError(t, err, "unknown urgency: asap")

	_, err = Quote(standard, Request{Service: "Mobile Notary", Miles: -1})
	assert.Error(t, err)
}

func TestQuote_UrgencyDefaultsToNormal(t *testing.T) {
	q, err := Quote(standard, Request{Service: "Mobile Notary"})
	require.NoError(t, err)
	assert.Equal(t, models.UrgencyNormal, q.Urgency)
}

func TestCatalog(t *testing.T) {
	std := Catalog(standard)
	prem := Catalog(premium)

	require.Len(t, std.Services, 4)
	assert.Equal(t, "$10.00", std.Services[0].Items[0].Price)
	assert.Equal(t, "$6.00", prem.Services[0].Items[0].Price)
	assert.Equal(t, "$90.00", prem.Services[1].Items[0].Price)
	assert.Equal(t, 40, prem.DiscountPercent)
	assert.Len(t, std.Plans, 3)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "$0.00", FormatCents(0))
	assert.Equal(t, "$1.05", FormatCents(105))
	assert.Equal(t, "-$12.50", FormatCents(-1250))
}
