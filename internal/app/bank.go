package app

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchainlottery/internal/codec"
	"onchainlottery/internal/state"
)

// execBankMint is the devnet faucet; it is intentionally unsigned.
func (a *LotteryApp) execBankMint(st *state.State, env codec.TxEnvelope) ([]abci.Event, error) {
	var msg codec.BankMintTx
	if err := decodeValue(env, &msg); err != nil {
		return nil, err
	}
	if msg.To == "" {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "missing to")
	}
	if err := st.Credit(msg.To, msg.Amount); err != nil {
		return nil, err
	}
	return []abci.Event{newEvent("BankMinted", map[string]string{
		"to":     msg.To,
		"amount": msg.Amount.String(),
	})}, nil
}

func (a *LotteryApp) execBankSend(st *state.State, env codec.TxEnvelope) ([]abci.Event, error) {
	var msg codec.BankSendTx
	if err := decodeValue(env, &msg); err != nil {
		return nil, err
	}
	if msg.From == "" || msg.To == "" {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "missing from/to")
	}
	if err := requireAccountAuth(st, env, msg.From); err != nil {
		return nil, err
	}
	if err := st.Debit(msg.From, msg.Amount); err != nil {
		return nil, err
	}
	if err := st.Credit(msg.To, msg.Amount); err != nil {
		return nil, err
	}
	return []abci.Event{newEvent("BankSent", map[string]string{
		"from":   msg.From,
		"to":     msg.To,
		"amount": msg.Amount.String(),
	})}, nil
}

func (a *LotteryApp) execRegisterAccount(st *state.State, env codec.TxEnvelope) ([]abci.Event, error) {
	var msg codec.AuthRegisterAccountTx
	if err := decodeValue(env, &msg); err != nil {
		return nil, err
	}
	if err := requireRegisterAccountAuth(st, env, msg); err != nil {
		return nil, err
	}
	if existing := st.AccountKeys[msg.Account]; len(existing) != 0 && !bytes.Equal(existing, msg.PubKey) {
		return nil, errorsmod.Wrapf(ErrUnauthorized, "account %q already registered with a different key", msg.Account)
	}
	st.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)
	return []abci.Event{newEvent("AccountRegistered", map[string]string{
		"account": msg.Account,
	})}, nil
}
