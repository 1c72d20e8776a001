package core

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// NotificationPreference selects the channel used to notify a member
// about new expenses.
type NotificationPreference string

const (
	NotifyNone     NotificationPreference = "none"
	NotifyEmail    NotificationPreference = "email"
	NotifyWhatsapp NotificationPreference = "whatsapp"
)

// MemberID identifies a member of the group. Balances are keyed by it;
// stringification only happens at the persistence boundary.
type MemberID int64

var telephonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

// Member is one person of the closed group sharing expenses.
type Member struct {
	ID                     MemberID
	Name                   string
	Telephone              string
	Email                  string
	NotificationPreference NotificationPreference
	LastChatAt             time.Time // zero when the member never chatted
}

func (m Member) Validate() error {
	name := strings.TrimSpace(m.Name)
	if name == "" || len(name) > 100 {
		return ErrInvalidName
	}
	if !telephonePattern.MatchString(m.Telephone) {
		return ErrInvalidTelephone
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return ErrInvalidEmail
	}
	switch m.NotificationPreference {
	case NotifyNone, NotifyEmail, NotifyWhatsapp, "":
	default:
		return ErrInvalidPreference
	}
	return nil
}
