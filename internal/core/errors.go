package core

import "errors"

// Validation errors. Surfaced as 400 at the HTTP boundary and re-prompted
// in the chat flow.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 255 characters)")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidPayer       = errors.New("invalid payer")
	ErrInvalidInstallment = errors.New("installment number cannot exceed total installments")
	ErrInvalidPaymentType = errors.New("invalid payment type")
	ErrEmptyMembers       = errors.New("cannot split between zero members")
	ErrInvalidPercentages = errors.New("percentages must sum to 100")
	ErrInvalidName        = errors.New("invalid member name")
	ErrInvalidTelephone   = errors.New("invalid telephone number")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPreference  = errors.New("invalid notification preference")
)

// Not-found errors, surfaced as 404.
var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrShareNotFound   = errors.New("monthly share not found")
	ErrMemberNotFound  = errors.New("member not found")
)

// ErrPeriodSettled is returned when a mutation targets a settled period.
// Surfaced as 409.
var ErrPeriodSettled = errors.New("period is settled")

// IsValidation reports whether err belongs to the validation family.
func IsValidation(err error) bool {
	for _, v := range []error{
		ErrInvalidAmount, ErrEmptyDescription, ErrDescriptionTooLong,
		ErrInvalidDate, ErrInvalidCategory, ErrInvalidPayer,
		ErrInvalidInstallment, ErrInvalidPaymentType, ErrEmptyMembers, ErrInvalidPercentages,
		ErrInvalidName, ErrInvalidTelephone, ErrInvalidEmail, ErrInvalidPreference,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err belongs to the not-found family.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrExpenseNotFound) ||
		errors.Is(err, ErrShareNotFound) ||
		errors.Is(err, ErrMemberNotFound)
}
