package app

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchainlottery/internal/lottery"
	"onchainlottery/internal/state"
)

func (a *LotteryApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Queries see the last committed state, never a block in progress.
	st := a.committed

	// Paths:
	// - /params
	// - /genesis
	// - /account/<addr>
	// - /lotteries
	// - /lottery/<id>
	// - /lottery/<id>/players
	// - /lottery/<id>/balance
	// - /lottery/<id>/manager
	path := strings.TrimSpace(req.Path)
	switch {
	case path == "/params":
		return a.queryOK(st.Params)
	case path == "/genesis":
		return a.queryOK(st.Export())
	case path == "/lotteries":
		return a.queryOK(st.LotteryIDs())
	case strings.HasPrefix(path, "/account/"):
		addr := strings.TrimPrefix(path, "/account/")
		return a.queryOK(map[string]any{"addr": addr, "balance": st.Balance(addr)})
	case strings.HasPrefix(path, "/lottery/"):
		return a.queryLottery(st, strings.TrimPrefix(path, "/lottery/"))
	default:
		return a.queryErr(errorsmod.Wrapf(ErrInvalidRequest, "unknown query path %q", path))
	}
}

func (a *LotteryApp) queryLottery(st *state.State, rest string) (*abci.QueryResponse, error) {
	rawID, sub, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return a.queryErr(errorsmod.Wrapf(lottery.ErrInvalidRequest, "invalid lottery id %q", rawID))
	}
	l, err := st.Lottery(id)
	if err != nil {
		return a.queryErr(err)
	}

	switch sub {
	case "":
		return a.queryOK(l)
	case "players":
		return a.queryOK(l.GetPlayers())
	case "balance":
		return a.queryOK(map[string]any{"lotteryId": l.ID, "balance": l.GetBalance()})
	case "manager":
		return a.queryOK(map[string]any{"lotteryId": l.ID, "manager": l.Manager})
	default:
		return a.queryErr(errorsmod.Wrapf(ErrInvalidRequest, "unknown lottery query %q", sub))
	}
}

func (a *LotteryApp) queryOK(v any) (*abci.QueryResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &abci.QueryResponse{Code: abci.CodeTypeOK, Value: b, Height: a.committed.Height}, nil
}

func (a *LotteryApp) queryErr(err error) (*abci.QueryResponse, error) {
	space, code, logMsg := errorsmod.ABCIInfo(err, false)
	return &abci.QueryResponse{Codespace: space, Code: code, Log: logMsg, Height: a.committed.Height}, nil
}
