package app

import (
	"errors"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchainlottery/internal/codec"
	"onchainlottery/internal/lottery"
	"onchainlottery/internal/state"
)

func (a *LotteryApp) execLotteryCreate(st *state.State, env codec.TxEnvelope) ([]abci.Event, error) {
	var msg codec.LotteryCreateTx
	if err := decodeValue(env, &msg); err != nil {
		return nil, err
	}
	if err := requireAccountAuth(st, env, msg.Manager); err != nil {
		return nil, err
	}
	l, err := st.CreateLottery(msg.Manager)
	if err != nil {
		return nil, err
	}

	a.lotLog.Info("lottery created", "lottery", l.ID, "manager", l.Manager, "min_stake", l.MinStake.String())
	a.metrics.ObserveRound(l.ID, 0, math.ZeroInt())
	return []abci.Event{newEvent("LotteryCreated", map[string]string{
		"lotteryId": fmt.Sprintf("%d", l.ID),
		"manager":   l.Manager,
		"minStake":  l.MinStake.String(),
	})}, nil
}

// execLotteryEnter moves value from the player's bank balance into the pool.
// Stake validation runs before the debit so a low stake reports
// ErrInsufficientStake even when the player is also underfunded.
func (a *LotteryApp) execLotteryEnter(st *state.State, env codec.TxEnvelope) ([]abci.Event, error) {
	var msg codec.LotteryEnterTx
	if err := decodeValue(env, &msg); err != nil {
		return nil, err
	}
	if err := requireAccountAuth(st, env, msg.Player); err != nil {
		return nil, err
	}
	l, err := st.Lottery(msg.LotteryID)
	if err != nil {
		return nil, err
	}
	if err := l.Enter(msg.Player, msg.Value); err != nil {
		a.rejected(err)
		return nil, err
	}
	if err := st.Debit(msg.Player, msg.Value); err != nil {
		a.rejected(err)
		return nil, err
	}

	a.metrics.ObserveEntry(l.ID, len(l.Players), l.GetBalance())
	a.lotLog.Debug("player entered", "lottery", l.ID, "player", msg.Player, "value", msg.Value.String())
	return []abci.Event{newEvent("PlayerEntered", map[string]string{
		"lotteryId": fmt.Sprintf("%d", l.ID),
		"player":    msg.Player,
		"value":     msg.Value.String(),
		"players":   fmt.Sprintf("%d", len(l.Players)),
		"pool":      l.GetBalance().String(),
	})}, nil
}

func (a *LotteryApp) execLotteryPickWinner(st *state.State, env codec.TxEnvelope, blk blockCtx) ([]abci.Event, error) {
	var msg codec.LotteryPickWinnerTx
	if err := decodeValue(env, &msg); err != nil {
		return nil, err
	}
	if err := requireAccountAuth(st, env, msg.Caller); err != nil {
		return nil, err
	}
	l, err := st.Lottery(msg.LotteryID)
	if err != nil {
		return nil, err
	}

	d, err := l.PickWinner(msg.Caller, blk.entropy(), st.Credit)
	if err != nil {
		a.rejected(err)
		if errors.Is(err, lottery.ErrTransferFailed) {
			a.lotLog.Error("lottery payout failed", "lottery", l.ID, "err", err)
		}
		return nil, err
	}

	a.metrics.ObserveDraw(l.ID, d.Amount)
	a.lotLog.Info("lottery drawn",
		"lottery", l.ID,
		"round", d.Round,
		"winner", d.Winner,
		"amount", d.Amount.String(),
		"players", d.Players,
	)
	return []abci.Event{newEvent("WinnerPicked", map[string]string{
		"lotteryId": fmt.Sprintf("%d", l.ID),
		"round":     fmt.Sprintf("%d", d.Round),
		"winner":    d.Winner,
		"index":     fmt.Sprintf("%d", d.Index),
		"amount":    d.Amount.String(),
		"players":   fmt.Sprintf("%d", d.Players),
	})}, nil
}

// rejected records err under its registered description.
func (a *LotteryApp) rejected(err error) {
	reason := "other"
	var coded *errorsmod.Error
	if errors.As(err, &coded) {
		reason = coded.Codespace() + "/" + coded.Error()
	}
	a.metrics.ObserveRejection(reason)
}
