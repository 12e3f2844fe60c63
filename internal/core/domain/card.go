package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Card exists only while one request is being built. It is never persisted or logged.
type Card struct {
	Number      string
	ExpireMonth int
	ExpireYear  int
	CVV         string
	HolderName  string
	Brand       CardBrand
}

func NewCard(number string, month, year int, cvv, holder string, brand CardBrand) (*Card, error) {
	number = strings.ReplaceAll(strings.TrimSpace(number), " ", "")
	if number == "" {
		return nil, errors.New("card number is required")
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("expire month must be 01..12, got %d", month)
	}
	if year < 100 {
		year += 2000
	}
	return &Card{
		Number:      number,
		ExpireMonth: month,
		ExpireYear:  year,
		CVV:         cvv,
		HolderName:  holder,
		Brand:       brand,
	}, nil
}

// MM returns the zero padded expiry month.
func (c Card) MM() string {
	return fmt.Sprintf("%02d", c.ExpireMonth)
}

// YY returns the two digit expiry year.
func (c Card) YY() string {
	return fmt.Sprintf("%02d", c.ExpireYear%100)
}

func (c Card) MMYY() string {
	return c.MM() + c.YY()
}

func (c Card) YYMM() string {
	return c.YY() + c.MM()
}

// Expiry returns MM/YY as printed on the card face.
func (c Card) Expiry() string {
	return c.MM() + "/" + c.YY()
}

// String masks the PAN so a Card can't leak through %v.
func (c Card) String() string {
	n := c.Number
	if len(n) <= 10 {
		return "****"
	}
	return n[:6] + strings.Repeat("*", len(n)-10) + n[len(n)-4:]
}
