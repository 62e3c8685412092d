package service

import (
	"strconv"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
)

const (
	collBalance  = "balance"
	collSessions = "sessions"
)

type escrowConfig struct {
	Admin domain.Address `json:"admin"`
}

// EscrowLedger holds per-account balances. It is the only component that
// mutates them.
type EscrowLedger struct {
	addr domain.Address
}

func NewEscrowLedger(addr domain.Address) *EscrowLedger {
	return &EscrowLedger{addr: addr}
}

func (l *EscrowLedger) Address() domain.Address { return l.addr }

func (l *EscrowLedger) balanceKey(account domain.Address) repository.Key {
	return repository.Key{Contract: l.addr, Collection: collBalance, ID: string(account)}
}

func (l *EscrowLedger) sessionKey(session domain.Address) repository.Key {
	return repository.Key{Contract: l.addr, Collection: collSessions, ID: string(session)}
}

// Init records the ledger admin.
func (l *EscrowLedger) Init(tx repository.Tx, admin domain.Address) error {
	if admin.IsZero() {
		return domain.ErrInvalidInput
	}
	key := repository.InstanceKey(l.addr, "config")
	exists, err := repository.Has(tx, key)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyInitialized
	}
	if err := tx.Put(key, escrowConfig{Admin: admin}); err != nil {
		return err
	}
	return tx.Emit(l.addr, domain.EventEscrowInitialized, nil, map[string]any{"admin": admin})
}

func (l *EscrowLedger) config(r repository.Reader) (escrowConfig, error) {
	var cfg escrowConfig
	ok, err := r.Get(repository.InstanceKey(l.addr, "config"), &cfg)
	if err != nil {
		return cfg, err
	}
	if !ok {
		return cfg, domain.ErrNotInitialized
	}
	return cfg, nil
}

// RegisterSession makes session a privileged payer: it may credit winners
// out of its own pre-escrowed balance.
func (l *EscrowLedger) RegisterSession(tx repository.Tx, caller, session domain.Address) error {
	cfg, err := l.config(tx)
	if err != nil {
		return err
	}
	if err := domain.RequireAdmin(caller, cfg.Admin); err != nil {
		return err
	}
	if session.IsZero() {
		return domain.ErrInvalidInput
	}
	if err := tx.Put(l.sessionKey(session), true); err != nil {
		return err
	}
	return tx.Emit(l.addr, domain.EventEscrowSessionRegistered, map[string]string{"session": string(session)}, nil)
}

// IsSession reports whether addr was registered as a privileged session.
func (l *EscrowLedger) IsSession(r repository.Reader, addr domain.Address) (bool, error) {
	var registered bool
	ok, err := r.Get(l.sessionKey(addr), &registered)
	if err != nil {
		return false, err
	}
	return ok && registered, nil
}

// Balance returns the balance of account, zero if it never held funds.
func (l *EscrowLedger) Balance(r repository.Reader, account domain.Address) (int64, error) {
	var bal int64
	if _, err := r.Get(l.balanceKey(account), &bal); err != nil {
		return 0, err
	}
	return bal, nil
}

func (l *EscrowLedger) credit(tx repository.Tx, account domain.Address, amount int64) (int64, error) {
	bal, err := l.Balance(tx, account)
	if err != nil {
		return 0, err
	}
	next, err := domain.AddAmount(bal, amount)
	if err != nil {
		return 0, err
	}
	return next, tx.Put(l.balanceKey(account), next)
}

func (l *EscrowLedger) debit(tx repository.Tx, account domain.Address, amount int64) (int64, error) {
	bal, err := l.Balance(tx, account)
	if err != nil {
		return 0, err
	}
	if bal < amount {
		return 0, domain.ErrInsufficientBalance.WithMetadata(map[string]string{
			"account": string(account),
			"balance": strconv.FormatInt(bal, 10),
		})
	}
	next, err := domain.SubAmount(bal, amount)
	if err != nil {
		return 0, err
	}
	return next, tx.Put(l.balanceKey(account), next)
}

// Deposit credits account. Only the account itself may deposit into it.
func (l *EscrowLedger) Deposit(tx repository.Tx, caller, account domain.Address, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if err := domain.RequireCaller(caller, account); err != nil {
		return err
	}
	bal, err := l.credit(tx, account, amount)
	if err != nil {
		return err
	}
	return tx.Emit(l.addr, domain.EventEscrowDeposited,
		map[string]string{"account": string(account)},
		map[string]int64{"amount": amount, "balance": bal},
	)
}

// Withdraw debits account on its own authority.
func (l *EscrowLedger) Withdraw(tx repository.Tx, caller, account domain.Address, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if err := domain.RequireCaller(caller, account); err != nil {
		return err
	}
	bal, err := l.debit(tx, account, amount)
	if err != nil {
		return err
	}
	return tx.Emit(l.addr, domain.EventEscrowWithdrawn,
		map[string]string{"account": string(account)},
		map[string]int64{"amount": amount, "balance": bal},
	)
}

// Transfer moves amount from one account to another on from's authority.
// Games use it to escrow a wager into their own account.
func (l *EscrowLedger) Transfer(tx repository.Tx, caller, from, to domain.Address, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if err := domain.RequireCaller(caller, from); err != nil {
		return err
	}
	if to.IsZero() || to == from {
		return domain.ErrInvalidInput
	}
	if _, err := l.debit(tx, from, amount); err != nil {
		return err
	}
	if _, err := l.credit(tx, to, amount); err != nil {
		return err
	}
	return tx.Emit(l.addr, domain.EventEscrowTransferred,
		map[string]string{"from": string(from), "to": string(to)},
		map[string]int64{"amount": amount},
	)
}

// Payout credits to out of session's own escrowed balance. It is the
// privileged path: session must be registered, and it pays from itself only.
func (l *EscrowLedger) Payout(tx repository.Tx, session, to domain.Address, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	ok, err := l.IsSession(tx, session)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUnauthorized
	}
	if to.IsZero() || to == session {
		return domain.ErrInvalidInput
	}
	if _, err := l.debit(tx, session, amount); err != nil {
		return err
	}
	bal, err := l.credit(tx, to, amount)
	if err != nil {
		return err
	}
	return tx.Emit(l.addr, domain.EventEscrowPaidOut,
		map[string]string{"session": string(session), "to": string(to)},
		map[string]int64{"amount": amount, "balance": bal},
	)
}

// CalculatePayout returns 2*wager - floor(wager*houseEdgeBps/10000).
func (l *EscrowLedger) CalculatePayout(wager, houseEdgeBps int64) (int64, error) {
	return domain.CalculatePayout(wager, houseEdgeBps)
}

// CalculateFee returns floor(amount*bps/10000).
func (l *EscrowLedger) CalculateFee(amount, bps int64) (int64, error) {
	return domain.CalculateFee(amount, bps)
}
