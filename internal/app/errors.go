package app

import errorsmod "cosmossdk.io/errors"

// TxCodespace is the ABCI codespace for envelope, routing and auth errors.
const TxCodespace = "tx"

// tx sentinel errors.
var (
	ErrTxDecode       = errorsmod.Register(TxCodespace, 1, "tx decode error")
	ErrUnknownTx      = errorsmod.Register(TxCodespace, 2, "unknown tx type")
	ErrInvalidRequest = errorsmod.Register(TxCodespace, 3, "invalid request")
	ErrUnauthorized   = errorsmod.Register(TxCodespace, 4, "unauthorized")
	ErrInvalidNonce   = errorsmod.Register(TxCodespace, 5, "invalid tx.nonce")
	ErrReplay         = errorsmod.Register(TxCodespace, 6, "replayed tx.nonce")
)
