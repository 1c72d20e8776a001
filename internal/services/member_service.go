package services

import (
	"context"
	"fmt"
	"time"

	"gastos/internal/core"
	"gastos/internal/ledger"
)

// MemberService manages the member directory and keeps the ledger's
// member cache in step with it.
type MemberService struct {
	manager   *ledger.ExpenseManager
	directory ledger.MemberDirectory
}

func NewMemberService(manager *ledger.ExpenseManager, directory ledger.MemberDirectory) *MemberService {
	return &MemberService{manager: manager, directory: directory}
}

// AddMember registers a member and recalculates every unsettled period,
// since equal splits now divide among one more person.
func (s *MemberService) AddMember(ctx context.Context, m *core.Member) error {
	return s.manager.AddMember(ctx, m)
}

func (s *MemberService) GetMember(ctx context.Context, id core.MemberID) (*core.Member, error) {
	return s.directory.Get(ctx, id)
}

func (s *MemberService) GetMemberByPhone(ctx context.Context, phone string) (*core.Member, error) {
	return s.directory.GetByPhone(ctx, phone)
}

func (s *MemberService) ListMembers(ctx context.Context) ([]*core.Member, error) {
	return s.directory.List(ctx)
}

// UpdateMember rewrites a member record. Balance-affecting recalculation
// is not needed here; only identity and notification fields change.
func (s *MemberService) UpdateMember(ctx context.Context, m *core.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.directory.Update(ctx, m); err != nil {
		return fmt.Errorf("update member %d: %w", m.ID, err)
	}
	return s.manager.RefreshMembers(ctx)
}

// TouchLastChat records when the member last messaged us. The chat
// transport uses it to decide between a free-form reply and a template.
func (s *MemberService) TouchLastChat(ctx context.Context, id core.MemberID, at time.Time) error {
	if err := s.directory.TouchLastChat(ctx, id, at); err != nil {
		return err
	}
	return s.manager.RefreshMembers(ctx)
}
