package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventKind tags a committed state change for off-chain indexers.
type EventKind string

// Escrow events
const (
	EventEscrowInitialized       EventKind = "escrow.initialized"
	EventEscrowSessionRegistered EventKind = "escrow.session_registered"
	EventEscrowDeposited         EventKind = "escrow.deposited"
	EventEscrowWithdrawn         EventKind = "escrow.withdrawn"
	EventEscrowTransferred       EventKind = "escrow.transferred"
	EventEscrowPaidOut           EventKind = "escrow.paid_out"
)

// Oracle events
const (
	EventOracleInitialized      EventKind = "oracle.initialized"
	EventOracleCallerAuthorized EventKind = "oracle.caller_authorized"
	EventOracleCallerRevoked    EventKind = "oracle.caller_revoked"
	EventOracleRequested        EventKind = "oracle.requested"
	EventOracleCommitted        EventKind = "oracle.committed"
	EventOracleFulfilled        EventKind = "oracle.fulfilled"
)

// Game events; the prefix is the GameKind.
const (
	EventGameInitialized EventKind = "initialized"
	EventGamePaused      EventKind = "paused"
	EventGameUnpaused    EventKind = "unpaused"

	EventBetPlaced   EventKind = "bet_placed"
	EventBetResolved EventKind = "bet_resolved"
	EventPaidOut     EventKind = "paid_out"

	EventGameCreated    EventKind = "created"
	EventMoveSubmitted  EventKind = "move_submitted"
	EventGameResolved   EventKind = "resolved"
	EventRewardClaimed  EventKind = "reward_claimed"
	EventGameDispatched EventKind = "dispatched"
	EventGameClosed     EventKind = "closed"

	EventRoomCreated  EventKind = "created"
	EventPlayerJoined EventKind = "player_joined"
	EventMatchStarted EventKind = "match_started"
	EventRoomClosed   EventKind = "closed"
)

// For prefixes a game event kind with its game kind: "coinflip.bet_placed".
func (k EventKind) For(kind GameKind) EventKind {
	return EventKind(string(kind) + "." + string(k))
}

// Router events
const (
	EventRouterInitialized     EventKind = "router.initialized"
	EventRouterRouteRegistered EventKind = "router.route_registered"
	EventRouterDispatched      EventKind = "router.dispatched"
	EventRouterAcknowledged    EventKind = "router.acknowledged"
)

// Event is a structured record of one committed state change. Seq, PrevHash
// and Hash are assigned by the store at commit and chain every event to the
// one before it.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Seq       int64             `json:"seq"`
	Contract  Address           `json:"contract"`
	Kind      EventKind         `json:"kind"`
	IDs       map[string]string `json:"ids,omitempty"`
	Value     json.RawMessage   `json:"value,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	PrevHash  string            `json:"prev_hash"`
	Hash      string            `json:"hash"`
}

// NewEvent builds an unsealed event; value is encoded as JSON.
func NewEvent(contract Address, kind EventKind, ids map[string]string, value any) (Event, error) {
	e := Event{
		ID:       uuid.New(),
		Contract: contract,
		Kind:     kind,
		IDs:      ids,
	}
	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return Event{}, Internal("encode event value", err)
		}
		e.Value = raw
	}
	return e, nil
}
