package domain

const (
	MinPlayersToStart = 2
	MaxPlayersPerRoom = 100
)

// Room is a multiplayer session. Its State reuses the session lifecycle:
// Created is "open for joins", InProgress is "in match".
type Room struct {
	RoomID      uint64       `json:"room_id"`
	ConfigHash  Hash32       `json:"config_hash"`
	State       SessionState `json:"state"`
	Players     []Address    `json:"players"`
	PlayerCount uint32       `json:"player_count"`
}

// HasPlayer reports whether p already joined.
func (r *Room) HasPlayer(p Address) bool {
	for _, existing := range r.Players {
		if existing == p {
			return true
		}
	}
	return false
}
