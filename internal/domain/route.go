package domain

import "fmt"

// Route is a directed channel between two independently deployed contracts.
type Route struct {
	RouteID  uint64  `json:"route_id"`
	Source   Address `json:"source"`
	Target   Address `json:"target"`
	Selector string  `json:"selector"`
}

// RequestStatus is the state of a routed request: Pending, then Acknowledged.
type RequestStatus uint8

const (
	RequestPending RequestStatus = iota + 1
	RequestAcknowledged
)

func (s RequestStatus) String() string {
	switch s {
	case RequestPending:
		return "pending"
	case RequestAcknowledged:
		return "acknowledged"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

func (s RequestStatus) MarshalText() ([]byte, error) {
	switch s {
	case RequestPending, RequestAcknowledged:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("unknown request status %d", uint8(s))
}

func (s *RequestStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pending":
		*s = RequestPending
	case "acknowledged":
		*s = RequestAcknowledged
	default:
		return fmt.Errorf("unknown request status %q", string(b))
	}
	return nil
}

// RoutedRequest is one dispatched message. Payload is set while Pending,
// Result once Acknowledged.
type RoutedRequest struct {
	RequestID string        `json:"request_id"`
	RouteID   uint64        `json:"route_id"`
	Status    RequestStatus `json:"status"`
	Payload   string        `json:"payload"`
	Result    string        `json:"result,omitempty"`
}
