package codec

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
)

// Tx types.
const (
	TypeBankMint          = "bank/mint"
	TypeBankSend          = "bank/send"
	TypeAuthRegister      = "auth/register_account"
	TypeLotteryCreate     = "lottery/create"
	TypeLotteryEnter      = "lottery/enter"
	TypeLotteryPickWinner = "lottery/pick_winner"
)

// KnownTypes lists every tx type the application routes.
var KnownTypes = map[string]bool{
	TypeBankMint:          true,
	TypeBankSend:          true,
	TypeAuthRegister:      true,
	TypeLotteryCreate:     true,
	TypeLotteryEnter:      true,
	TypeLotteryPickWinner: true,
}

// TxEnvelope is the transaction container.
//
// CometBFT transactions are opaque bytes; we use JSON-encoded txs.
type TxEnvelope struct {
	// Basic routing.
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// Tx auth:
	// - Nonce: included in the signed message for replay protection (must increase per signer).
	// - Signer: account the tx acts for.
	// - Sig: Ed25519 signature over (type, nonce, signer, sha256(value)).
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// ---- Bank ----

type BankMintTx struct {
	To     string   `json:"to"`
	Amount math.Int `json:"amount"`
}

type BankSendTx struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Amount math.Int `json:"amount"`
}

// ---- Auth ----

// Account pubkey registration for tx authentication.
type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// ---- Lottery ----

// LotteryCreateTx deploys a new lottery; Manager becomes its only drawer.
type LotteryCreateTx struct {
	Manager string `json:"manager"`
}

type LotteryEnterTx struct {
	LotteryID uint64   `json:"lotteryId"`
	Player    string   `json:"player"`
	Value     math.Int `json:"value"` // debited from Player's bank balance
}

type LotteryPickWinnerTx struct {
	LotteryID uint64 `json:"lotteryId"`
	Caller    string `json:"caller"`
}
