package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Credentials are forwarded to the backend login endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionInfo is what the backend reports about a logged-in client.
type SessionInfo struct {
	UserID    FlexID `json:"user_id"`
	IsPremium bool   `json:"is_premium"`
	Plan      string `json:"plan,omitempty"`
}

// Profile is the client's account profile.
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
}

// TwoFAStatus reports whether two-factor authentication is confirmed.
type TwoFAStatus struct {
	Verified bool `json:"twofa_verified"`
}

// TwoFAConfirm carries the emailed confirmation code.
type TwoFAConfirm struct {
	Code string `json:"code"`
}

// BillingRecord is the billing payload as the backend stores it.
type BillingRecord struct {
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	ZipCode       string `json:"zip_code,omitempty"`
	Country       string `json:"country,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	CardNumber    string `json:"card_number,omitempty"`
	CardExpiry    string `json:"card_expir,omitempty"`
	CardCVV       string `json:"card_cvv,omitempty"`
}

// BillingInfo is the masked billing view handed to the browser.
type BillingInfo struct {
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
	Country       string `json:"country"`
	PaymentMethod string `json:"payment_method"`
	CardLast4     string `json:"card_last4,omitempty"`
	CardBrand     string `json:"card_brand,omitempty"`
	CardExpiry    string `json:"card_expiry,omitempty"`
}

// Masked drops the card number and CVV, keeping the last four digits and the brand.
func (b BillingRecord) Masked() BillingInfo {
	info := BillingInfo{
		Address:       b.Address,
		City:          b.City,
		State:         b.State,
		ZipCode:       b.ZipCode,
		Country:       b.Country,
		PaymentMethod: b.PaymentMethod,
		CardExpiry:    b.CardExpiry,
	}
	number := stripSpaces(b.CardNumber)
	if number != "" {
		info.CardBrand = CardBrand(number)
		if len(number) > 4 {
			number = number[len(number)-4:]
		}
		info.CardLast4 = number
	}
	return info
}

// CardBrand guesses the card network from the number prefix.
func CardBrand(number string) string {
	n := stripSpaces(number)
	switch {
	case strings.HasPrefix(n, "4"):
		return "Visa"
	case len(n) >= 2 && n[0] == '5' && n[1] >= '1' && n[1] <= '5':
		return "Mastercard"
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return "American Express"
	case strings.HasPrefix(n, "6"):
		return "Discover"
	default:
		return "Unknown"
	}
}

var (
	cardNumberRe = regexp.MustCompile(`^\d{12,19}$`)
	cardExpiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cardCVVRe    = regexp.MustCompile(`^\d{3,4}$`)
)

// Validate checks the card fields when a card is being updated.
func (b *BillingRecord) Validate() error {
	b.CardNumber = stripSpaces(b.CardNumber)
	if b.CardNumber == "" {
		return nil
	}
	if !cardNumberRe.MatchString(b.CardNumber) {
		return fmt.Errorf("invalid card_number")
	}
	if !cardExpiryRe.MatchString(b.CardExpiry) {
		return fmt.Errorf("invalid card_expiry; expected MM/YY")
	}
	if b.CardCVV != "" && !cardCVVRe.MatchString(b.CardCVV) {
		return fmt.Errorf("invalid card_cvv")
	}
	return nil
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// ContactMessage is submitted from the contact page.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}
