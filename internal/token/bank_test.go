package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greendefi-labs/escrow-backend/internal/escrow/domain"
)

func TestBankDebit(t *testing.T) {
	b := NewBank()
	b.Credit("alice", domain.NewAmount(100))

	t.Run("debits within balance", func(t *testing.T) {
		require.NoError(t, b.Debit("alice", domain.NewAmount(40)))
		assert.True(t, b.Balance("alice").Equal(domain.NewAmount(60)))
	})

	t.Run("rejects overdraft and leaves balance unchanged", func(t *testing.T) {
		err := b.Debit("alice", domain.NewAmount(61))
		assert.ErrorIs(t, err, domain.ErrInsufficientFee)
		assert.True(t, b.Balance("alice").Equal(domain.NewAmount(60)))
	})

	t.Run("unknown account has zero balance", func(t *testing.T) {
		assert.ErrorIs(t, b.Debit("nobody", domain.NewAmount(1)), domain.ErrInsufficientFee)
	})
}

func TestBankTransfer(t *testing.T) {
	t.Run("moves funds atomically", func(t *testing.T) {
		b := NewBank()
		b.Credit(EscrowAccount, domain.NewAmount(100))

		require.NoError(t, b.Transfer(EscrowAccount, "creator", domain.NewAmount(40)))
		assert.True(t, b.Balance(EscrowAccount).Equal(domain.NewAmount(60)))
		assert.True(t, b.Balance("creator").Equal(domain.NewAmount(40)))
	})

	t.Run("fails when source is short", func(t *testing.T) {
		b := NewBank()
		b.Credit(EscrowAccount, domain.NewAmount(10))

		err := b.Transfer(EscrowAccount, "creator", domain.NewAmount(40))
		assert.ErrorIs(t, err, domain.ErrTransferFailed)
		assert.True(t, b.Balance(EscrowAccount).Equal(domain.NewAmount(10)))
		assert.True(t, b.Balance("creator").IsZero())
	})

	t.Run("fails on empty recipient", func(t *testing.T) {
		b := NewBank()
		b.Credit(EscrowAccount, domain.NewAmount(10))
		assert.ErrorIs(t, b.Transfer(EscrowAccount, "", domain.NewAmount(1)), domain.ErrTransferFailed)
	})
}
