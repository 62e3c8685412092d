package domain

import (
	"errors"
	"fmt"
)

// Code is a machine-readable failure code. Every failure the core returns carries one.
type Code string

const (
	CodeUnknown  Code = "UNKNOWN"
	CodeInternal Code = "INTERNAL"

	// Authorization
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotAdmin     Code = "NOT_ADMIN"
	CodeNotOracle    Code = "NOT_ORACLE"

	// Lifecycle
	CodeInvalidState        Code = "INVALID_STATE"
	CodeAlreadyResolved     Code = "ALREADY_RESOLVED"
	CodeAlreadyAcknowledged Code = "ALREADY_ACKNOWLEDGED"
	CodeDuplicateGameID     Code = "DUPLICATE_GAME_ID"
	CodeDuplicateRequest    Code = "DUPLICATE_REQUEST"
	CodeAlreadyInitialized  Code = "ALREADY_INITIALIZED"
	CodeNotInitialized      Code = "NOT_INITIALIZED"
	CodeGameNotFound        Code = "GAME_NOT_FOUND"
	CodeRoomNotFound        Code = "ROOM_NOT_FOUND"

	// Value
	CodeInvalidAmount       Code = "INVALID_AMOUNT"
	CodeInvalidWager        Code = "INVALID_WAGER"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeOverflow            Code = "OVERFLOW"
	CodeInvalidConfig       Code = "INVALID_CONFIG"

	// Fairness
	CodeRandomNotFulfilled Code = "RANDOM_NOT_FULFILLED"
	CodeNotFulfilled       Code = "NOT_FULFILLED"
	CodeAlreadyFulfilled   Code = "ALREADY_FULFILLED"
	CodeUnknownRequest     Code = "UNKNOWN_REQUEST"
	CodeInvalidBound       Code = "INVALID_BOUND"
	CodeAlreadyCommitted   Code = "ALREADY_COMMITTED"
	CodeCommitmentMismatch Code = "COMMITMENT_MISMATCH"

	// Reward
	CodeRewardAlreadyClaimed Code = "REWARD_ALREADY_CLAIMED"
	CodeNoReward             Code = "NO_REWARD"

	// Routing
	CodeUnknownRoute Code = "UNKNOWN_ROUTE"
	CodeSameEndpoint Code = "SAME_ENDPOINT"

	// Input
	CodeInvalidSide  Code = "INVALID_SIDE"
	CodeInvalidInput Code = "INVALID_INPUT"

	// Rooms
	CodeDuplicatePlayer  Code = "DUPLICATE_PLAYER"
	CodeRoomFull         Code = "ROOM_FULL"
	CodeNotEnoughPlayers Code = "NOT_ENOUGH_PLAYERS"

	// Pause
	CodeContractPaused Code = "CONTRACT_PAUSED"
	CodeAlreadyPaused  Code = "ALREADY_PAUSED"
	CodeNotPaused      Code = "NOT_PAUSED"
)

// Error is the typed failure returned by every core operation.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs)
	Metadata map[string]string // Identifiers involved, if any
	Cause    error             // Wrapped underlying error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a domain error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithMetadata returns a copy of e carrying the given identifiers.
func (e *Error) WithMetadata(md map[string]string) *Error {
	cp := *e
	cp.Metadata = md
	return &cp
}

// Internal wraps a storage or encoding failure.
func Internal(message string, cause error) *Error {
	return Wrap(CodeInternal, message, cause)
}

// CodeOf extracts the code of err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsIdempotentSuccess reports whether a retrying caller may treat err as
// evidence that its earlier, ambiguous attempt already went through.
func IsIdempotentSuccess(err error) bool {
	switch CodeOf(err) {
	case CodeDuplicateRequest, CodeAlreadyResolved, CodeRewardAlreadyClaimed:
		return true
	}
	return false
}

var (
	ErrUnauthorized = New(CodeUnauthorized, "unauthorized")
	ErrNotAdmin     = New(CodeNotAdmin, "caller is not admin")
	ErrNotOracle    = New(CodeNotOracle, "caller is not the configured oracle")

	ErrInvalidState        = New(CodeInvalidState, "invalid state transition")
	ErrAlreadyResolved     = New(CodeAlreadyResolved, "already resolved")
	ErrAlreadyAcknowledged = New(CodeAlreadyAcknowledged, "already acknowledged")
	ErrDuplicateGameID     = New(CodeDuplicateGameID, "game id already exists")
	ErrDuplicateRequest    = New(CodeDuplicateRequest, "request id already used")
	ErrAlreadyInitialized  = New(CodeAlreadyInitialized, "already initialized")
	ErrNotInitialized      = New(CodeNotInitialized, "not initialized")
	ErrGameNotFound        = New(CodeGameNotFound, "game not found")
	ErrRoomNotFound        = New(CodeRoomNotFound, "room not found")

	ErrInvalidAmount       = New(CodeInvalidAmount, "invalid amount")
	ErrInvalidWager        = New(CodeInvalidWager, "wager outside configured bounds")
	ErrInsufficientBalance = New(CodeInsufficientBalance, "insufficient balance")
	ErrOverflow            = New(CodeOverflow, "arithmetic overflow")
	ErrInvalidConfig       = New(CodeInvalidConfig, "invalid config")

	ErrRandomNotFulfilled = New(CodeRandomNotFulfilled, "random value not fulfilled")
	ErrNotFulfilled       = New(CodeNotFulfilled, "request not fulfilled")
	ErrAlreadyFulfilled   = New(CodeAlreadyFulfilled, "request already fulfilled")
	ErrUnknownRequest     = New(CodeUnknownRequest, "unknown request")
	ErrInvalidBound       = New(CodeInvalidBound, "bound must be at least 2")
	ErrAlreadyCommitted   = New(CodeAlreadyCommitted, "commitment already recorded")
	ErrCommitmentMismatch = New(CodeCommitmentMismatch, "seed does not match commitment")

	ErrRewardAlreadyClaimed = New(CodeRewardAlreadyClaimed, "reward already claimed")
	ErrNoReward             = New(CodeNoReward, "no reward")

	ErrUnknownRoute = New(CodeUnknownRoute, "unknown route")
	ErrSameEndpoint = New(CodeSameEndpoint, "source and target are the same")

	ErrInvalidSide  = New(CodeInvalidSide, "invalid side")
	ErrInvalidInput = New(CodeInvalidInput, "invalid input")

	ErrDuplicatePlayer  = New(CodeDuplicatePlayer, "player already joined")
	ErrRoomFull         = New(CodeRoomFull, "room is full")
	ErrNotEnoughPlayers = New(CodeNotEnoughPlayers, "not enough players")

	ErrContractPaused = New(CodeContractPaused, "contract is paused")
	ErrAlreadyPaused  = New(CodeAlreadyPaused, "already paused")
	ErrNotPaused      = New(CodeNotPaused, "not paused")
)
