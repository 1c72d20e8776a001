package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testMembers() map[MemberID]Member {
	return map[MemberID]Member{
		1: {ID: 1, Name: "Ana"},
		2: {ID: 2, Name: "Bruno"},
	}
}

func TestAddExpenseBalances(t *testing.T) {
	share := NewMonthlyShare(2024, 3)
	e := validExpense()
	e.Amount = dec("200")

	if err := share.AddExpense(&e, testMembers()); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	// Payer credited 200, then everyone debited 100.
	if !share.Balances[1].Equal(dec("100")) {
		t.Errorf("balance[1] = %s, want 100", share.Balances[1])
	}
	if !share.Balances[2].Equal(dec("-100")) {
		t.Errorf("balance[2] = %s, want -100", share.Balances[2])
	}
	if len(share.Expenses) != 1 {
		t.Errorf("len(Expenses) = %d, want 1", len(share.Expenses))
	}
}

func TestAddExpenseSettledPeriod(t *testing.T) {
	share := NewMonthlyShare(2024, 3)
	share.Settle()

	e := validExpense()
	err := share.AddExpense(&e, testMembers())
	if !errors.Is(err, ErrPeriodSettled) {
		t.Fatalf("err = %v, want ErrPeriodSettled", err)
	}
	if len(share.Expenses) != 0 {
		t.Errorf("expense appended to settled period")
	}
}

func TestRecalculateBalances(t *testing.T) {
	share := NewMonthlyShare(2024, 3)
	members := testMembers()

	first := validExpense()
	first.Amount = dec("100")
	second := validExpense()
	second.Amount = dec("60")
	second.PayerID = 2
	for _, e := range []*Expense{&first, &second} {
		if err := share.AddExpense(e, members); err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
	}

	// Corrupt the balance sheet, then replay.
	share.Balances[1] = dec("999")
	if err := share.RecalculateBalances(members); err != nil {
		t.Fatalf("RecalculateBalances: %v", err)
	}
	if !share.Balances[1].Equal(dec("20")) || !share.Balances[2].Equal(dec("-20")) {
		t.Errorf("balances = %s, %s, want 20, -20", share.Balances[1], share.Balances[2])
	}

	// Recalculating twice changes nothing.
	if err := share.RecalculateBalances(members); err != nil {
		t.Fatalf("RecalculateBalances: %v", err)
	}
	if !share.Balances[1].Equal(dec("20")) {
		t.Errorf("balance drifted to %s after second pass", share.Balances[1])
	}
}

func TestRecalculateSettledShareIsNoOp(t *testing.T) {
	share := NewMonthlyShare(2024, 3)
	share.Settle()
	share.Balances[1] = dec("42")

	if err := share.RecalculateBalances(testMembers()); err != nil {
		t.Fatalf("RecalculateBalances: %v", err)
	}
	if !share.Balances[1].Equal(dec("42")) {
		t.Errorf("settled balances were rewritten")
	}
}

func TestPeriodKey(t *testing.T) {
	share := NewMonthlyShare(2024, 3)
	if got := share.PeriodKey(); got != "2024-03" {
		t.Errorf("PeriodKey() = %q, want 2024-03", got)
	}
}

func TestBalancesSumToZero(t *testing.T) {
	share := NewMonthlyShare(2024, 7)
	members := map[MemberID]Member{1: {ID: 1}, 2: {ID: 2}, 3: {ID: 3}}

	amounts := []string{"100", "33.33", "7.77"}
	for i, a := range amounts {
		e := validExpense()
		e.Amount = dec(a)
		e.PayerID = MemberID(i%3 + 1)
		e.Date = time.Date(2024, time.July, i+1, 0, 0, 0, 0, time.UTC)
		if err := share.AddExpense(&e, members); err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
	}

	total := decimal.Zero
	for _, b := range share.Balances {
		total = total.Add(b)
	}
	if total.Abs().GreaterThan(RoundingEpsilon) {
		t.Errorf("balances sum to %s, want within %s of zero", total, RoundingEpsilon)
	}
}
