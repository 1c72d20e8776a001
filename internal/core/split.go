package core

import (
	"github.com/shopspring/decimal"
)

// SplitKind discriminates the split strategy variants.
type SplitKind string

const (
	SplitEqual      SplitKind = "equal"
	SplitPercentage SplitKind = "percentage"
)

var hundred = decimal.NewFromInt(100)

// SplitStrategy decides how an expense amount is divided among members.
// It is a tagged union: Percentages is only set for SplitPercentage.
type SplitStrategy struct {
	Kind        SplitKind
	Percentages map[MemberID]decimal.Decimal
}

// EqualSplit divides the amount evenly across the supplied members.
func EqualSplit() SplitStrategy {
	return SplitStrategy{Kind: SplitEqual}
}

// PercentageSplit divides the amount according to fixed percentages.
// The percentages must sum to 100 within the rounding tolerance.
func PercentageSplit(percentages map[MemberID]decimal.Decimal) (SplitStrategy, error) {
	total := decimal.Zero
	for _, p := range percentages {
		total = total.Add(p)
	}
	if !WithinEpsilon(total, hundred) {
		return SplitStrategy{}, ErrInvalidPercentages
	}
	return SplitStrategy{Kind: SplitPercentage, Percentages: percentages}, nil
}

// CalculateShares computes each member's monetary share of amount.
// Pure: no I/O, no mutation of the strategy.
//
// Equal shares are amount/len(members) rounded to two decimals; the
// residual left by rounding goes to the member with the lowest id.
// Percentage shares are round2(amount*pct/100); the residual left by
// rounding every share independently is added to the member holding the
// largest percentage. Either way the shares always total exactly amount.
// Members passed in but absent from the percentages map get a zero share.
func (s SplitStrategy) CalculateShares(amount decimal.Decimal, members []Member) (map[MemberID]decimal.Decimal, error) {
	switch s.Kind {
	case SplitPercentage:
		return s.percentageShares(amount, members), nil
	default:
		return equalShares(amount, members)
	}
}

func equalShares(amount decimal.Decimal, members []Member) (map[MemberID]decimal.Decimal, error) {
	if len(members) == 0 {
		return nil, ErrEmptyMembers
	}
	share := Round2(amount.Div(decimal.NewFromInt(int64(len(members)))))
	shares := make(map[MemberID]decimal.Decimal, len(members))
	residualID := members[0].ID
	total := decimal.Zero
	for _, m := range members {
		shares[m.ID] = share
		total = total.Add(share)
		if m.ID < residualID {
			residualID = m.ID
		}
	}
	// Rounding each share independently can leave a few cents on the
	// table. The lowest member id absorbs them so every expense is
	// exactly conservative.
	if residual := amount.Sub(total); !residual.IsZero() {
		shares[residualID] = shares[residualID].Add(residual)
	}
	return shares, nil
}

func (s SplitStrategy) percentageShares(amount decimal.Decimal, members []Member) map[MemberID]decimal.Decimal {
	shares := make(map[MemberID]decimal.Decimal, len(s.Percentages))

	// The largest percentage absorbs the rounding residual. Ties break
	// on the lowest member id so the result is deterministic.
	var residualID MemberID
	largest := decimal.NewFromInt(-1)
	total := decimal.Zero
	for id, pct := range s.Percentages {
		share := Round2(amount.Mul(pct).Div(hundred))
		shares[id] = share
		total = total.Add(share)
		if pct.GreaterThan(largest) || (pct.Equal(largest) && id < residualID) {
			largest = pct
			residualID = id
		}
	}
	if residual := amount.Sub(total); !residual.IsZero() {
		shares[residualID] = shares[residualID].Add(residual)
	}

	for _, m := range members {
		if _, ok := shares[m.ID]; !ok {
			shares[m.ID] = decimal.Zero
		}
	}
	return shares
}
