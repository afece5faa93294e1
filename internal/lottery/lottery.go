// Package lottery implements the pooled-entry lottery state machine.
//
// A Lottery is a single instance: a manager bound at construction, an ordered
// list of entries and the pooled stake. Callers identify themselves and the
// value they transfer explicitly; the lottery never touches balances outside
// its own pool. Paying the winner is delegated to a Payout callback so the
// host decides how funds actually move.
//
// A Lottery is not safe for concurrent use. Hosts must serialize every
// mutating call (see app.LotteryApp, which runs each tx under a mutex against
// a cloned state).
package lottery

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// DefaultMinStake is 0.01 of the native unit, expressed in 18-decimal base
// units.
var DefaultMinStake = math.NewInt(10_000_000_000_000_000)

type Lottery struct {
	ID       uint64   `json:"id"`
	Manager  string   `json:"manager"`
	MinStake math.Int `json:"minStake"`

	Players []string `json:"players"`
	Pool    math.Int `json:"pool"`

	// Round counts completed draws. It is not a history of past rounds.
	Round uint64 `json:"round"`
}

// Payout moves amount out of the pool to winner. A non-nil error aborts the
// draw and leaves the lottery untouched.
type Payout func(winner string, amount math.Int) error

// Draw describes a completed PickWinner.
type Draw struct {
	LotteryID uint64
	Round     uint64
	Winner    string
	Index     int
	Amount    math.Int
	Players   int
}

// New creates an open lottery with manager bound for its whole lifetime.
func New(id uint64, manager string, minStake math.Int) (*Lottery, error) {
	if manager == "" {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "missing manager")
	}
	if minStake.IsNil() || !minStake.IsPositive() {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "min stake must be positive")
	}
	return &Lottery{
		ID:       id,
		Manager:  manager,
		MinStake: minStake,
		Players:  []string{},
		Pool:     math.ZeroInt(),
	}, nil
}

// Normalize fills in fields a decoded lottery may be missing.
func (l *Lottery) Normalize() {
	if l.Players == nil {
		l.Players = []string{}
	}
	if l.Pool.IsNil() {
		l.Pool = math.ZeroInt()
	}
	if l.MinStake.IsNil() {
		l.MinStake = DefaultMinStake
	}
}

// Enter records one entry for caller and adds value to the pool. The same
// caller may enter any number of times.
func (l *Lottery) Enter(caller string, value math.Int) error {
	if caller == "" {
		return errorsmod.Wrap(ErrInvalidRequest, "missing caller")
	}
	if value.IsNil() || value.LT(l.MinStake) {
		v := "0"
		if !value.IsNil() {
			v = value.String()
		}
		return errorsmod.Wrapf(ErrInsufficientStake, "value %s below minimum %s", v, l.MinStake)
	}
	pool, err := l.Pool.SafeAdd(value)
	if err != nil {
		return errorsmod.Wrapf(ErrInvalidRequest, "pool overflow: %v", err)
	}

	l.Players = append(l.Players, caller)
	l.Pool = pool
	return nil
}

// GetPlayers returns a copy of the entries in entry order.
func (l *Lottery) GetPlayers() []string {
	out := make([]string, len(l.Players))
	copy(out, l.Players)
	return out
}

// GetBalance returns the pooled stake of the current round.
func (l *Lottery) GetBalance() math.Int {
	if l.Pool.IsNil() {
		return math.ZeroInt()
	}
	return l.Pool
}

// PickWinner selects a winner from e, pays out the whole pool through pay and
// opens a new round. Only the manager may draw.
//
// The reset is committed only after pay succeeds; on any error the lottery
// is exactly as it was before the call.
func (l *Lottery) PickWinner(caller string, e Entropy, pay Payout) (Draw, error) {
	if caller != l.Manager {
		return Draw{}, errorsmod.Wrapf(ErrUnauthorized, "caller %q is not the manager", caller)
	}
	if len(l.Players) == 0 {
		return Draw{}, errorsmod.Wrapf(ErrNoParticipants, "lottery %d has no entries", l.ID)
	}
	if pay == nil {
		return Draw{}, errorsmod.Wrap(ErrInvalidRequest, "missing payout")
	}

	idx, err := e.WinnerIndex(l.Players)
	if err != nil {
		return Draw{}, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	winner := l.Players[idx]
	amount := l.GetBalance()

	if err := pay(winner, amount); err != nil {
		return Draw{}, errorsmod.Wrapf(ErrTransferFailed, "pay %s to %q: %v", amount, winner, err)
	}

	d := Draw{
		LotteryID: l.ID,
		Round:     l.Round + 1,
		Winner:    winner,
		Index:     idx,
		Amount:    amount,
		Players:   len(l.Players),
	}
	l.Players = []string{}
	l.Pool = math.ZeroInt()
	l.Round++
	return d, nil
}

func (l *Lottery) String() string {
	return fmt.Sprintf("lottery{id=%d manager=%s players=%d pool=%s round=%d}", l.ID, l.Manager, len(l.Players), l.GetBalance(), l.Round)
}
