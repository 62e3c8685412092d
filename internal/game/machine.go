package game

import (
	"strconv"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
)

const collGames = "games"

type baseConfig struct {
	Admin domain.Address `json:"admin"`
}

// Machine is the session lifecycle shared by every game kind: it owns the
// session records of one contract instance, the pause flag and the
// create/begin/settle/claim/close transitions. Variants add the rules.
type Machine struct {
	addr domain.Address
	kind domain.GameKind
}

func newMachine(addr domain.Address, kind domain.GameKind) Machine {
	return Machine{addr: addr, kind: kind}
}

func (m *Machine) Address() domain.Address { return m.addr }

func (m *Machine) Kind() domain.GameKind { return m.kind }

func (m *Machine) sessionKey(id uint64) repository.Key {
	return repository.IDKey(m.addr, collGames, id)
}

func (m *Machine) configKey() repository.Key {
	return repository.InstanceKey(m.addr, "config")
}

func (m *Machine) pausedKey() repository.Key {
	return repository.InstanceKey(m.addr, "paused")
}

func gameIDs(id uint64, extra ...string) map[string]string {
	ids := map[string]string{"game_id": strconv.FormatUint(id, 10)}
	for i := 0; i+1 < len(extra); i += 2 {
		ids[extra[i]] = extra[i+1]
	}
	return ids
}

func (m *Machine) emit(tx repository.Tx, kind domain.EventKind, ids map[string]string, value any) error {
	return tx.Emit(m.addr, kind.For(m.kind), ids, value)
}

// initConfig stores the variant config once.
func (m *Machine) initConfig(tx repository.Tx, admin domain.Address, cfg any) error {
	if admin.IsZero() {
		return domain.ErrInvalidInput
	}
	exists, err := repository.Has(tx, m.configKey())
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyInitialized
	}
	if err := tx.Put(m.configKey(), cfg); err != nil {
		return err
	}
	if err := tx.Put(m.pausedKey(), false); err != nil {
		return err
	}
	return m.emit(tx, domain.EventGameInitialized, nil, cfg)
}

// loadConfig decodes the variant config into dst.
func (m *Machine) loadConfig(r repository.Reader, dst any) error {
	ok, err := r.Get(m.configKey(), dst)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotInitialized
	}
	return nil
}

// Paused reports the emergency pause flag.
func (m *Machine) Paused(r repository.Reader) (bool, error) {
	var paused bool
	if _, err := r.Get(m.pausedKey(), &paused); err != nil {
		return false, err
	}
	return paused, nil
}

func (m *Machine) requireRunning(r repository.Reader) error {
	paused, err := m.Paused(r)
	if err != nil {
		return err
	}
	if paused {
		return domain.ErrContractPaused
	}
	return nil
}

// Pause halts every mutating operation of this contract until Unpause.
func (m *Machine) Pause(tx repository.Tx, caller domain.Address) error {
	return m.setPaused(tx, caller, true)
}

func (m *Machine) Unpause(tx repository.Tx, caller domain.Address) error {
	return m.setPaused(tx, caller, false)
}

func (m *Machine) setPaused(tx repository.Tx, caller domain.Address, paused bool) error {
	var cfg baseConfig
	if err := m.loadConfig(tx, &cfg); err != nil {
		return err
	}
	if err := domain.RequireAdmin(caller, cfg.Admin); err != nil {
		return err
	}
	current, err := m.Paused(tx)
	if err != nil {
		return err
	}
	switch {
	case paused && current:
		return domain.ErrAlreadyPaused
	case !paused && !current:
		return domain.ErrNotPaused
	}
	if err := tx.Put(m.pausedKey(), paused); err != nil {
		return err
	}
	kind := domain.EventGamePaused
	if !paused {
		kind = domain.EventGameUnpaused
	}
	return m.emit(tx, kind, nil, map[string]string{"by": string(caller)})
}

// Session returns the stored session.
func (m *Machine) Session(r repository.Reader, id uint64) (domain.Session, error) {
	var s domain.Session
	ok, err := r.Get(m.sessionKey(id), &s)
	if err != nil {
		return s, err
	}
	if !ok {
		return s, domain.ErrGameNotFound
	}
	return s, nil
}

func (m *Machine) exists(r repository.Reader, id uint64) (bool, error) {
	return repository.Has(r, m.sessionKey(id))
}

func (m *Machine) save(tx repository.Tx, s domain.Session) error {
	return tx.Put(m.sessionKey(s.GameID), s)
}

// create stores a new session in Created.
func (m *Machine) create(tx repository.Tx, s *domain.Session) error {
	exists, err := m.exists(tx, s.GameID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateGameID
	}
	s.Kind = m.kind
	s.State = domain.SessionCreated
	return m.save(tx, *s)
}

// begin binds player to the session and moves it Created -> InProgress.
func (m *Machine) begin(tx repository.Tx, s *domain.Session, player domain.Address) error {
	if player.IsZero() || (!s.Player.IsZero() && s.Player != player) {
		return domain.ErrUnauthorized
	}
	if err := s.Advance(domain.SessionInProgress); err != nil {
		return err
	}
	s.Player = player
	return m.save(tx, *s)
}

// settle records the outcome exactly once, then runs pay. The resolved
// state is stored before pay moves any balance.
func (m *Machine) settle(tx repository.Tx, s *domain.Session, winner domain.Address, payout int64, pay func() error) error {
	if s.State == domain.SessionResolved {
		return domain.ErrAlreadyResolved
	}
	if err := s.Advance(domain.SessionResolved); err != nil {
		return err
	}
	s.Winner = winner
	s.Payout = payout
	if err := m.save(tx, *s); err != nil {
		return err
	}
	if pay == nil || winner.IsZero() || payout <= 0 {
		return nil
	}
	if err := pay(); err != nil {
		return err
	}
	return m.emit(tx, domain.EventPaidOut,
		gameIDs(s.GameID, "winner", string(winner)),
		map[string]int64{"payout": payout},
	)
}

// claim pays the recorded reward to the winner once. The claimed flag is
// stored before pay moves any balance.
func (m *Machine) claim(tx repository.Tx, id uint64, player domain.Address, pay func(amount int64) error) (domain.Session, error) {
	s, err := m.Session(tx, id)
	if err != nil {
		return s, err
	}
	if s.State != domain.SessionResolved {
		return s, domain.ErrInvalidState
	}
	if s.Winner.IsZero() || player != s.Winner {
		return s, domain.ErrNoReward
	}
	if s.Claimed {
		return s, domain.ErrRewardAlreadyClaimed
	}
	s.Claimed = true
	if err := m.save(tx, s); err != nil {
		return s, err
	}
	if s.Reward > 0 && pay != nil {
		if err := pay(s.Reward); err != nil {
			return s, err
		}
	}
	return s, nil
}

// close ends a session that never resolved.
func (m *Machine) close(tx repository.Tx, s *domain.Session) error {
	if err := s.Advance(domain.SessionClosed); err != nil {
		return err
	}
	return m.save(tx, *s)
}
