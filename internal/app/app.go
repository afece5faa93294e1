package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchainlottery/internal/codec"
	"onchainlottery/internal/lottery"
	"onchainlottery/internal/metrics"
	"onchainlottery/internal/state"
)

const (
	AppVersion uint64 = 1
)

// blockCtx is the per-block context every tx in FinalizeBlock executes under.
type blockCtx struct {
	Height   int64
	Time     time.Time
	Hash     []byte
	Proposer []byte
}

func (b blockCtx) entropy() lottery.Entropy {
	return lottery.Entropy{
		Height:    b.Height,
		Time:      b.Time,
		BlockHash: b.Hash,
		Proposer:  b.Proposer,
	}
}

type LotteryApp struct {
	*abci.BaseApplication

	logger  log.Logger
	lotLog  log.Logger
	metrics *metrics.Metrics
	store   *state.Store

	mu       sync.Mutex
	st       *state.State
	lastHash []byte

	// committed is the state as of the last Commit. Query and Info read it;
	// it is never mutated, FinalizeBlock works on a clone.
	committed     *state.State
	committedHash []byte
}

// New loads the latest committed state from store. m may be nil.
func New(store *state.Store, logger log.Logger, m *metrics.Metrics) (*LotteryApp, error) {
	st, err := store.Load()
	if err != nil {
		return nil, err
	}
	a := &LotteryApp{
		BaseApplication: abci.NewBaseApplication(),
		logger:          logger.With("module", "app"),
		lotLog:          logger.With("module", "lottery"),
		metrics:         m,
		store:           store,
		st:              st,
		lastHash:        st.AppHash(),
		committed:       st,
	}
	a.committedHash = a.lastHash
	return a, nil
}

func (a *LotteryApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "lottery (v1)",
		Version:          "v1",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.committed.Height,
		LastBlockAppHash: a.committedHash,
	}, nil
}

func (a *LotteryApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	env, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		return checkTxErr(errorsmod.Wrap(ErrTxDecode, err.Error())), nil
	}
	if !codec.KnownTypes[env.Type] {
		return checkTxErr(errorsmod.Wrapf(ErrUnknownTx, "%q", env.Type)), nil
	}
	if env.Type != codec.TypeBankMint {
		if err := requireSignedEnvelope(env); err != nil {
			return checkTxErr(err), nil
		}
	}
	// Signatures, nonces and balances are checked at execution time.
	return &abci.CheckTxResponse{Code: abci.CodeTypeOK}, nil
}

func checkTxErr(err error) *abci.CheckTxResponse {
	space, code, logMsg := errorsmod.ABCIInfo(err, false)
	return &abci.CheckTxResponse{Codespace: space, Code: code, Log: logMsg}
}

func (a *LotteryApp) InitChain(_ context.Context, req *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	g, err := state.ParseGenesis(req.AppStateBytes)
	if err != nil {
		return nil, err
	}
	staged, err := a.st.Clone()
	if err != nil {
		return nil, err
	}
	if err := g.Apply(staged); err != nil {
		return nil, fmt.Errorf("apply genesis: %w", err)
	}
	// Genesis is the committed state until the first block commits.
	a.st = staged
	a.committed = staged
	a.lastHash = a.st.AppHash()
	a.committedHash = a.lastHash
	a.logger.Info("genesis applied",
		"chain_id", req.ChainId,
		"min_stake", a.st.Params.MinStake.String(),
		"accounts", len(g.Accounts),
	)
	return &abci.InitChainResponse{AppHash: a.lastHash}, nil
}

func (a *LotteryApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	staged, err := a.st.Clone()
	if err != nil {
		return nil, err
	}
	staged.Height = req.Height
	a.st = staged
	blk := blockCtx{
		Height:   req.Height,
		Time:     req.Time,
		Hash:     req.Hash,
		Proposer: req.ProposerAddress,
	}

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, blk)
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()
	a.metrics.ObserveHeight(req.Height)

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *LotteryApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Save(a.st); err != nil {
		// A state that cannot be persisted must halt the node.
		a.logger.Error("commit failed", "height", a.st.Height, "err", err)
		return nil, err
	}
	a.committed = a.st
	a.committedHash = a.lastHash
	a.logger.Debug("committed", "height", a.st.Height, "app_hash", fmt.Sprintf("%X", a.lastHash))
	return &abci.CommitResponse{}, nil
}

// deliverTx executes one tx against a clone of the state and swaps the clone
// in only if the tx succeeds, so a failed tx never leaves partial writes.
func (a *LotteryApp) deliverTx(txBytes []byte, blk blockCtx) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return txErr(errorsmod.Wrap(ErrTxDecode, err.Error()))
	}

	staged, err := a.st.Clone()
	if err != nil {
		return txErr(err)
	}

	var events []abci.Event
	switch env.Type {
	case codec.TypeBankMint:
		events, err = a.execBankMint(staged, env)
	case codec.TypeBankSend:
		events, err = a.execBankSend(staged, env)
	case codec.TypeAuthRegister:
		events, err = a.execRegisterAccount(staged, env)
	case codec.TypeLotteryCreate:
		events, err = a.execLotteryCreate(staged, env)
	case codec.TypeLotteryEnter:
		events, err = a.execLotteryEnter(staged, env)
	case codec.TypeLotteryPickWinner:
		events, err = a.execLotteryPickWinner(staged, env, blk)
	default:
		err = errorsmod.Wrapf(ErrUnknownTx, "%q", env.Type)
	}
	if err != nil {
		return txErr(err)
	}

	a.st = staged
	return &abci.ExecTxResult{Code: abci.CodeTypeOK, Events: events}
}

func txErr(err error) *abci.ExecTxResult {
	space, code, logMsg := errorsmod.ABCIInfo(err, false)
	return &abci.ExecTxResult{Codespace: space, Code: code, Log: logMsg}
}

func decodeValue(env codec.TxEnvelope, out any) error {
	if err := json.Unmarshal(env.Value, out); err != nil {
		return errorsmod.Wrapf(ErrTxDecode, "bad %s value: %v", env.Type, err)
	}
	return nil
}

func newEvent(typ string, attrs map[string]string) abci.Event {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return ev
}
