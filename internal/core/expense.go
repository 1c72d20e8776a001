package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType distinguishes immediate charges from credit purchases.
type PaymentType string

const (
	PaymentDebit  PaymentType = "debit"
	PaymentCredit PaymentType = "credit"
)

// Expense is one charge, possibly a single installment of a larger
// credit purchase. A credit purchase of N installments is stored as N
// rows; rows 2..N reference row 1 through ParentExpenseID.
type Expense struct {
	ID              int64
	Description     string
	Amount          decimal.Decimal
	Date            time.Time // purchase date, shared by all installments
	Category        string
	PayerID         MemberID
	PaymentType     PaymentType
	Installments    int
	InstallmentNo   int
	SplitStrategy   SplitStrategy
	ParentExpenseID int64 // 0 when the expense has no parent
}

func (e Expense) Validate() error {
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > 255 {
		return ErrDescriptionTooLong
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if e.PayerID <= 0 {
		return ErrInvalidPayer
	}
	if e.Installments < 1 || e.InstallmentNo < 1 || e.InstallmentNo > e.Installments {
		return ErrInvalidInstallment
	}
	switch e.PaymentType {
	case PaymentDebit, PaymentCredit:
	default:
		return fmt.Errorf("%w %q", ErrInvalidPaymentType, e.PaymentType)
	}
	return nil
}

// PostingDate returns the date whose calendar month owns this expense.
// Debit expenses post on their purchase date; credit installment i
// posts i months after it, so the first installment lands the month
// after the purchase.
func (e Expense) PostingDate() time.Time {
	if e.PaymentType == PaymentCredit {
		return AddMonths(e.Date, e.InstallmentNo)
	}
	return e.Date
}

var installmentSuffix = regexp.MustCompile(`\s*\(\d+/\d+\)$`)

// BaseDescription strips a trailing "(i/N)" installment marker.
func (e Expense) BaseDescription() string {
	return installmentSuffix.ReplaceAllString(e.Description, "")
}

// AddMonths shifts a date by n calendar months, clamping the day to the
// target month's length (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	target := first.AddDate(0, n, 0)
	if last := target.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, t.Location())
}
