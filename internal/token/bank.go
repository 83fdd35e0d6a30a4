// Package token models the external asset boundary: balances held in
// the payment asset (contributions, escrow, payouts) and the fee asset
// the oracle is paid in. Movements are all-or-nothing debit/credit
// operations; actual on-chain transfer mechanics are outside this
// service.
package token

import (
	"sync"

	"github.com/greendefi-labs/escrow-backend/internal/escrow/domain"
)

// EscrowAccount holds contributed funds until milestones release them.
const EscrowAccount = "escrow"

// Bank is a per-asset balance ledger keyed by account id.
type Bank struct {
	mu       sync.Mutex
	balances map[string]domain.Amount
}

func NewBank() *Bank {
	return &Bank{balances: make(map[string]domain.Amount)}
}

// Credit adds amount to the account, creating it if needed.
func (b *Bank) Credit(account string, amount domain.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] = b.balances[account].Add(amount)
}

// Debit removes amount from the account. Fails with ErrInsufficientFee
// when the balance cannot cover it; nothing changes on failure.
func (b *Bank) Debit(account string, amount domain.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bal := b.balances[account]
	if bal.Cmp(amount) < 0 {
		return domain.ErrInsufficientFee
	}
	b.balances[account] = bal.Sub(amount)
	return nil
}

// Transfer moves amount between accounts atomically. Fails with
// ErrTransferFailed if the source balance is short or the recipient is
// empty; on failure neither side changes.
func (b *Bank) Transfer(from, to string, amount domain.Amount) error {
	if to == "" {
		return domain.ErrTransferFailed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bal := b.balances[from]
	if bal.Cmp(amount) < 0 {
		return domain.ErrTransferFailed
	}
	b.balances[from] = bal.Sub(amount)
	b.balances[to] = b.balances[to].Add(amount)
	return nil
}

// Balance returns the current balance for an account.
func (b *Bank) Balance(account string) domain.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}
