package presale

import "errors"

var (
	// Authorization.
	ErrUnauthorizedSigner = errors.New("presale: unauthorized signer")

	// Lifecycle.
	ErrAlreadyInitialized   = errors.New("presale: already initialized")
	ErrNotInitialized       = errors.New("presale: not initialized")
	ErrAlreadyOpen          = errors.New("presale: already open")
	ErrPresaleNotOpen       = errors.New("presale: not open")
	ErrIterationExists      = errors.New("presale: iteration id already exists")
	ErrIterationNotFound    = errors.New("presale: iteration not found")
	ErrIterationAlreadyOpen = errors.New("presale: iteration already open")
	ErrIterationNotOpen     = errors.New("presale: iteration not open")
	ErrCodeAlreadyExists    = errors.New("presale: adviser code already exists")
	ErrAdviserNotFound      = errors.New("presale: adviser not found")

	// Business rules.
	ErrMinBuyNotMet    = errors.New("presale: minimum buy not met")
	ErrSupplyExceeded  = errors.New("presale: iteration supply exceeded")
	ErrSupplyBelowSold = errors.New("presale: total supply below sold amount")
	ErrRateTooLarge    = errors.New("presale: adviser rate exceeds precision")
	ErrInvalidAmount   = errors.New("presale: amount must be positive")

	// Claim vouchers.
	ErrExpiredSignature      = errors.New("presale: expired signature")
	ErrSignatureVerification = errors.New("presale: signature verification failed")
	ErrReplayedNonce         = errors.New("presale: replayed or invalid nonce")
	ErrNoEscrowBalance       = errors.New("presale: no escrowed funds to claim")

	// Arithmetic and settlement.
	ErrOverflow          = errors.New("presale: arithmetic overflow")
	ErrInsufficientFunds = errors.New("presale: insufficient funds")
)
