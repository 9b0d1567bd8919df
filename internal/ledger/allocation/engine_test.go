package allocation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

func openObligation(id int64, total, paid float64) Obligation {
	return Obligation{Kind: bookings.OriginSaleOrder, ID: id, Total: total, Paid: paid}
}

func TestAllocateOldestFirst(t *testing.T) {
	// Due 60 + due 40, pool 70: first closes, second gets 10.
	obs := []Obligation{
		openObligation(1, 60, 0),
		openObligation(2, 40, 0),
	}

	got, err := Allocate(obs, 70)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, int64(1), got[0].Obligation.ID)
	require.Equal(t, 60.0, got[0].PaidNow)
	require.True(t, got[0].Closes)

	require.Equal(t, int64(2), got[1].Obligation.ID)
	require.Equal(t, 10.0, got[1].PaidNow)
	require.False(t, got[1].Closes)
}

func TestAllocatePoolExceedsDue(t *testing.T) {
	obs := []Obligation{openObligation(1, 50, 0)}

	_, err := Allocate(obs, 80)
	require.ErrorIs(t, err, shared.ErrPoolExceedsDue)

	// Nothing was mutated; the caller's obligation is untouched.
	require.Equal(t, 0.0, obs[0].Paid)
}

func TestAllocateNoOpenObligations(t *testing.T) {
	obs := []Obligation{openObligation(1, 50, 50)}

	_, err := Allocate(obs, 10)
	require.ErrorIs(t, err, shared.ErrNoOpenObligations)

	_, err = Allocate(nil, 10)
	require.ErrorIs(t, err, shared.ErrNoOpenObligations)
}

func TestAllocateExactPool(t *testing.T) {
	obs := []Obligation{
		openObligation(1, 30, 10),
		openObligation(2, 25, 0),
	}

	got, err := Allocate(obs, 45)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, got[0].Closes)
	require.True(t, got[1].Closes)
}

func TestAllocateSkipsSettled(t *testing.T) {
	obs := []Obligation{
		openObligation(1, 20, 20),
		openObligation(2, 30, 0),
	}

	got, err := Allocate(obs, 30)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(2), got[0].Obligation.ID)
}

func TestAllocateConservation(t *testing.T) {
	obs := []Obligation{
		openObligation(1, 33.33, 0),
		openObligation(2, 66.67, 12.5),
		openObligation(3, 10.01, 0),
	}

	pool := 80.0
	got, err := Allocate(obs, pool)
	require.NoError(t, err)

	var assigned float64
	for _, a := range got {
		assigned += a.PaidNow
		require.LessOrEqual(t, a.PaidNow, a.Obligation.Due())
	}
	require.True(t, shared.SameAmount(assigned, pool))
}

func TestApplyOverpaymentGuard(t *testing.T) {
	o := openObligation(1, 100, 60)

	o, err := Apply(o, 40)
	require.NoError(t, err)
	require.Equal(t, 100.0, o.Paid)

	_, err = Apply(o, 0.01)
	require.ErrorIs(t, err, shared.ErrObligationOverpaid)
}

func TestPostingLinesIncoming(t *testing.T) {
	lines, err := PostingLines(PostingInput{
		Direction:        Incoming,
		Methods:          []Method{{AccountID: 10, Amount: 40}, {AccountID: 11, Amount: 30}},
		ControlAccountID: 20,
		Pool:             70,
	})
	require.NoError(t, err)
	require.Len(t, lines, 3)

	var dr, cr float64
	for _, l := range lines {
		dr += l.DrAmount
		cr += l.CrAmount
	}
	require.True(t, shared.SameAmount(dr, cr))
	require.Equal(t, bookings.LineCredit, lines[2].Type)
	require.Equal(t, 70.0, lines[2].CrAmount)
}

func TestPostingLinesOutgoingFlipsSides(t *testing.T) {
	lines, err := PostingLines(PostingInput{
		Direction:        Outgoing,
		Methods:          []Method{{AccountID: 10, Amount: 70}},
		ControlAccountID: 20,
		Pool:             70,
	})
	require.NoError(t, err)
	require.Equal(t, bookings.LineCredit, lines[0].Type)
	require.Equal(t, bookings.LineDebit, lines[1].Type)
	require.Equal(t, 70.0, lines[1].DrAmount)
}

func TestPostingLinesMethodsMustSum(t *testing.T) {
	_, err := PostingLines(PostingInput{
		Direction:        Incoming,
		Methods:          []Method{{AccountID: 10, Amount: 40}},
		ControlAccountID: 20,
		Pool:             70,
	})
	require.ErrorIs(t, err, shared.ErrMethodsMismatch)

	_, err = PostingLines(PostingInput{Direction: Incoming, ControlAccountID: 20, Pool: 70})
	require.ErrorIs(t, err, shared.ErrMethodsMismatch)
}
