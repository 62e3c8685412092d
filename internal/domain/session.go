package domain

import "fmt"

// SessionState is the lifecycle of every game session:
//
//	Created -> InProgress -> Resolved
//	Created | InProgress -> Closed
type SessionState uint8

const (
	SessionCreated SessionState = iota + 1
	SessionInProgress
	SessionResolved
	SessionClosed
)

var sessionStateNames = map[SessionState]string{
	SessionCreated:    "created",
	SessionInProgress: "in_progress",
	SessionResolved:   "resolved",
	SessionClosed:     "closed",
}

func (s SessionState) String() string {
	if name, ok := sessionStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Terminal reports whether no transition leaves s.
func (s SessionState) Terminal() bool {
	return s == SessionResolved || s == SessionClosed
}

// CanTransition reports whether to is adjacent to s.
func (s SessionState) CanTransition(to SessionState) bool {
	switch s {
	case SessionCreated:
		return to == SessionInProgress || to == SessionClosed
	case SessionInProgress:
		return to == SessionResolved || to == SessionClosed
	default:
		return false
	}
}

// Next returns to if the transition is allowed, ErrInvalidState otherwise.
func (s SessionState) Next(to SessionState) (SessionState, error) {
	if !s.CanTransition(to) {
		return s, Errorf(CodeInvalidState, "invalid transition %s -> %s", s, to)
	}
	return to, nil
}

func (s SessionState) MarshalText() ([]byte, error) {
	name, ok := sessionStateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown session state %d", uint8(s))
	}
	return []byte(name), nil
}

func (s *SessionState) UnmarshalText(b []byte) error {
	for state, name := range sessionStateNames {
		if name == string(b) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", string(b))
}

// GameKind names a game variant; it prefixes that variant's event kinds.
type GameKind string

const (
	GameKindCoinFlip GameKind = "coinflip"
	GameKindDice     GameKind = "dice"
	GameKindAI       GameKind = "ai"
	GameKindRoom     GameKind = "room"
)

// Coin sides
const (
	SideHeads uint32 = 0
	SideTails uint32 = 1
)

// Session is one wagering or refereed game, keyed by GameID within its contract.
type Session struct {
	GameID     uint64       `json:"game_id"`
	Kind       GameKind     `json:"kind"`
	State      SessionState `json:"state"`
	ConfigHash Hash32       `json:"config_hash"`
	Player     Address      `json:"player,omitempty"`
	Choice     uint32       `json:"choice"`
	Move       string       `json:"move,omitempty"`
	Wager      int64        `json:"wager"`
	Outcome    *uint64      `json:"outcome,omitempty"`
	Result     string       `json:"result,omitempty"`
	Winner     Address      `json:"winner,omitempty"`
	Payout     int64        `json:"payout"`
	Reward     int64        `json:"reward"`
	Claimed    bool         `json:"claimed"`
}

// Advance moves the session to the next state or fails with ErrInvalidState.
func (s *Session) Advance(to SessionState) error {
	next, err := s.State.Next(to)
	if err != nil {
		return err
	}
	s.State = next
	return nil
}

// Won reports whether the session was resolved in the player's favour.
func (s *Session) Won() bool {
	return s.State == SessionResolved && !s.Winner.IsZero()
}
