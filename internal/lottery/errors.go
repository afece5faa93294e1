package lottery

import errorsmod "cosmossdk.io/errors"

// Codespace is the ABCI codespace for lottery errors.
const Codespace = "lottery"

// lottery sentinel errors.
var (
	ErrInvalidRequest    = errorsmod.Register(Codespace, 1, "invalid request")
	ErrInsufficientStake = errorsmod.Register(Codespace, 2, "insufficient stake")
	ErrUnauthorized      = errorsmod.Register(Codespace, 3, "unauthorized")
	ErrNoParticipants    = errorsmod.Register(Codespace, 4, "no participants")
	ErrTransferFailed    = errorsmod.Register(Codespace, 5, "transfer failed")
	ErrLotteryNotFound   = errorsmod.Register(Codespace, 6, "lottery not found")
)
