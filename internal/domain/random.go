package domain

// RandomRequest is a commit-reveal randomness request keyed by RequestID.
type RandomRequest struct {
	RequestID  uint64  `json:"request_id"`
	Caller     Address `json:"caller"`
	Bound      uint64  `json:"bound"`
	Committed  bool    `json:"committed"`
	Commitment Hash32  `json:"commitment"`
	Fulfilled  bool    `json:"fulfilled"`
	Seed       Hash32  `json:"seed"`
	Digest     Hash32  `json:"digest"`
	Result     uint64  `json:"result"`
}
