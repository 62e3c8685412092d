package service

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
)

const (
	collRequests = "requests"
	collCallers  = "callers"
)

type oracleConfig struct {
	Admin  domain.Address `json:"admin"`
	Oracle domain.Address `json:"oracle"`
}

// FairnessOracle is a commit-reveal randomness service. Authorized callers
// open requests, the configured oracle reveals a seed, anyone can verify.
type FairnessOracle struct {
	addr domain.Address
}

func NewFairnessOracle(addr domain.Address) *FairnessOracle {
	return &FairnessOracle{addr: addr}
}

func (o *FairnessOracle) Address() domain.Address { return o.addr }

// RevealDigest is sha256(seed || be_u64(requestID)).
func RevealDigest(seed domain.Hash32, requestID uint64) domain.Hash32 {
	var buf [40]byte
	copy(buf[:32], seed[:])
	binary.BigEndian.PutUint64(buf[32:], requestID)
	return sha256.Sum256(buf[:])
}

// DeriveResult maps a revealed seed to a value in [0, bound): the first
// eight bytes of RevealDigest read big-endian, mod bound.
func DeriveResult(seed domain.Hash32, requestID, bound uint64) uint64 {
	digest := RevealDigest(seed, requestID)
	return binary.BigEndian.Uint64(digest[:8]) % bound
}

// Requests are scoped to the contract that opened them, so two games may
// use the same id.
func (o *FairnessOracle) requestKey(caller domain.Address, id uint64) repository.Key {
	return repository.Key{Contract: o.addr, Collection: collRequests, ID: string(caller) + ":" + strconv.FormatUint(id, 10)}
}

func requestIDs(caller domain.Address, id uint64) map[string]string {
	return map[string]string{"request_id": strconv.FormatUint(id, 10), "caller": string(caller)}
}

func (o *FairnessOracle) Init(tx repository.Tx, admin, oracle domain.Address) error {
	if admin.IsZero() || oracle.IsZero() {
		return domain.ErrInvalidInput
	}
	key := repository.InstanceKey(o.addr, "config")
	exists, err := repository.Has(tx, key)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyInitialized
	}
	if err := tx.Put(key, oracleConfig{Admin: admin, Oracle: oracle}); err != nil {
		return err
	}
	return tx.Emit(o.addr, domain.EventOracleInitialized, nil, map[string]any{"admin": admin, "oracle": oracle})
}

func (o *FairnessOracle) config(r repository.Reader) (oracleConfig, error) {
	var cfg oracleConfig
	ok, err := r.Get(repository.InstanceKey(o.addr, "config"), &cfg)
	if err != nil {
		return cfg, err
	}
	if !ok {
		return cfg, domain.ErrNotInitialized
	}
	return cfg, nil
}

// AuthorizeCaller allows caller to open requests.
func (o *FairnessOracle) AuthorizeCaller(tx repository.Tx, admin, caller domain.Address) error {
	return o.setCaller(tx, admin, caller, true)
}

// RevokeCaller removes caller from the registry.
func (o *FairnessOracle) RevokeCaller(tx repository.Tx, admin, caller domain.Address) error {
	return o.setCaller(tx, admin, caller, false)
}

func (o *FairnessOracle) setCaller(tx repository.Tx, admin, caller domain.Address, allowed bool) error {
	cfg, err := o.config(tx)
	if err != nil {
		return err
	}
	if err := domain.RequireAdmin(admin, cfg.Admin); err != nil {
		return err
	}
	if caller.IsZero() {
		return domain.ErrInvalidInput
	}
	key := repository.Key{Contract: o.addr, Collection: collCallers, ID: string(caller)}
	if err := tx.Put(key, allowed); err != nil {
		return err
	}
	kind := domain.EventOracleCallerAuthorized
	if !allowed {
		kind = domain.EventOracleCallerRevoked
	}
	return tx.Emit(o.addr, kind, map[string]string{"caller": string(caller)}, nil)
}

// IsAuthorized reports whether caller may open requests.
func (o *FairnessOracle) IsAuthorized(r repository.Reader, caller domain.Address) (bool, error) {
	var allowed bool
	ok, err := r.Get(repository.Key{Contract: o.addr, Collection: collCallers, ID: string(caller)}, &allowed)
	if err != nil {
		return false, err
	}
	return ok && allowed, nil
}

// OpenRequest creates a pending request for caller. A caller never reuses
// an id, fulfilled or not.
func (o *FairnessOracle) OpenRequest(tx repository.Tx, caller domain.Address, requestID, bound uint64) error {
	if _, err := o.config(tx); err != nil {
		return err
	}
	allowed, err := o.IsAuthorized(tx, caller)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.ErrUnauthorized
	}
	if bound < 2 {
		return domain.ErrInvalidBound
	}
	key := o.requestKey(caller, requestID)
	exists, err := repository.Has(tx, key)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateRequest
	}
	req := domain.RandomRequest{RequestID: requestID, Caller: caller, Bound: bound}
	if err := tx.Put(key, req); err != nil {
		return err
	}
	return tx.Emit(o.addr, domain.EventOracleRequested,
		requestIDs(caller, requestID),
		map[string]uint64{"bound": bound},
	)
}

// Request returns the request caller opened under requestID.
func (o *FairnessOracle) Request(r repository.Reader, caller domain.Address, requestID uint64) (domain.RandomRequest, error) {
	var req domain.RandomRequest
	ok, err := r.Get(o.requestKey(caller, requestID), &req)
	if err != nil {
		return req, err
	}
	if !ok {
		return req, domain.ErrUnknownRequest
	}
	return req, nil
}

// Commit records sha256(seed) ahead of the reveal. Optional; once present,
// Fulfill only accepts the matching seed.
func (o *FairnessOracle) Commit(tx repository.Tx, oracle, caller domain.Address, requestID uint64, seedHash domain.Hash32) error {
	cfg, err := o.config(tx)
	if err != nil {
		return err
	}
	if err := domain.RequireOracle(oracle, cfg.Oracle); err != nil {
		return err
	}
	req, err := o.Request(tx, caller, requestID)
	if err != nil {
		return err
	}
	if req.Fulfilled {
		return domain.ErrAlreadyFulfilled
	}
	if req.Committed {
		return domain.ErrAlreadyCommitted
	}
	req.Committed = true
	req.Commitment = seedHash
	if err := tx.Put(o.requestKey(caller, requestID), req); err != nil {
		return err
	}
	return tx.Emit(o.addr, domain.EventOracleCommitted,
		requestIDs(caller, requestID),
		map[string]string{"commitment": seedHash.String()},
	)
}

// Fulfill reveals serverSeed for caller's requestID and stores the derived result.
func (o *FairnessOracle) Fulfill(tx repository.Tx, oracle, caller domain.Address, requestID uint64, serverSeed domain.Hash32) error {
	cfg, err := o.config(tx)
	if err != nil {
		return err
	}
	if err := domain.RequireOracle(oracle, cfg.Oracle); err != nil {
		return err
	}
	req, err := o.Request(tx, caller, requestID)
	if err != nil {
		return err
	}
	if req.Fulfilled {
		return domain.ErrAlreadyFulfilled
	}
	if req.Committed && domain.SeedCommitment(serverSeed) != req.Commitment {
		return domain.ErrCommitmentMismatch
	}

	req.Fulfilled = true
	req.Seed = serverSeed
	req.Digest = RevealDigest(serverSeed, requestID)
	req.Result = binary.BigEndian.Uint64(req.Digest[:8]) % req.Bound
	if err := tx.Put(o.requestKey(caller, requestID), req); err != nil {
		return err
	}
	return tx.Emit(o.addr, domain.EventOracleFulfilled,
		requestIDs(caller, requestID),
		map[string]any{"seed": serverSeed.String(), "result": req.Result},
	)
}

// ReadResult returns the bounded result once fulfilled.
func (o *FairnessOracle) ReadResult(r repository.Reader, caller domain.Address, requestID uint64) (uint64, error) {
	req, err := o.Request(r, caller, requestID)
	if err != nil {
		return 0, err
	}
	if !req.Fulfilled {
		return 0, domain.ErrNotFulfilled
	}
	return req.Result, nil
}

// Verify recomputes the result from the revealed seed and checks it, and the
// commitment when one was made, against what is stored.
func (o *FairnessOracle) Verify(r repository.Reader, caller domain.Address, requestID uint64) (bool, error) {
	req, err := o.Request(r, caller, requestID)
	if err != nil {
		return false, err
	}
	if !req.Fulfilled {
		return false, domain.ErrNotFulfilled
	}
	if req.Bound < 2 {
		return false, nil
	}
	if req.Committed && domain.SeedCommitment(req.Seed) != req.Commitment {
		return false, nil
	}
	digest := RevealDigest(req.Seed, requestID)
	if digest != req.Digest {
		return false, nil
	}
	return binary.BigEndian.Uint64(digest[:8])%req.Bound == req.Result, nil
}
