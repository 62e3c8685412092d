package ws

import (
	"encoding/json"

	"stellarcade/internal/domain"
)

// Inbound is any client → server frame.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SubscribePayload narrows the stream. Empty fields match everything.
type SubscribePayload struct {
	Contract domain.Address `json:"contract,omitempty"`
	Kinds    []string       `json:"kinds,omitempty"`
}

// Outbound is any server → client frame.
type Outbound struct {
	Type    string        `json:"type"`
	Event   *domain.Event `json:"event,omitempty"`
	Message string        `json:"message,omitempty"`
}
