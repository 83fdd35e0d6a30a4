package repository

import (
	"sync"
	"time"

	"github.com/greendefi-labs/escrow-backend/internal/escrow/domain"
)

// Ledger is the authoritative project store. A single mutex serializes
// every mutating operation, which models the serial execution order the
// ledger runs under: no caller ever observes a partially applied update.
type Ledger struct {
	mu       sync.Mutex
	projects map[uint64]*domain.Project
	nextID   uint64
}

func NewLedger() *Ledger {
	return &Ledger{
		projects: make(map[uint64]*domain.Project),
		nextID:   1,
	}
}

// Create validates and inserts a new project. IDs are 1-indexed and
// never reused. Fails with ErrInvalidInput if the milestone slices
// differ in length, any amount is zero, or the amounts do not sum to
// the target.
func (l *Ledger) Create(name, creator string, target domain.Amount, amounts []domain.Amount, data []string) (*domain.Project, error) {
	if name == "" || creator == "" || target.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	if len(amounts) == 0 || len(amounts) != len(data) {
		return nil, domain.ErrInvalidInput
	}
	for _, a := range amounts {
		if a.IsZero() {
			return nil, domain.ErrInvalidInput
		}
	}
	if !domain.SumAmounts(amounts).Equal(target) {
		return nil, domain.ErrInvalidInput
	}

	milestones := make([]domain.Milestone, len(amounts))
	for i := range amounts {
		milestones[i] = domain.Milestone{
			Amount: amounts[i],
			Data:   data[i],
			Status: domain.MilestonePending,
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	p := &domain.Project{
		ID:            l.nextID,
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: domain.NewAmount(0),
		Creator:       creator,
		Milestones:    milestones,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	l.projects[p.ID] = p
	l.nextID++

	return p.Clone(), nil
}

// Get returns a snapshot copy of the project.
func (l *Ledger) Get(id uint64) (*domain.Project, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

// Count returns the number of projects ever created. Read-only.
func (l *Ledger) Count() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextID - 1
}

// List returns snapshots of all projects in id order.
func (l *Ledger) List() []*domain.Project {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*domain.Project, 0, len(l.projects))
	for id := uint64(1); id < l.nextID; id++ {
		if p, ok := l.projects[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Update runs fn against the project's live record under the ledger
// lock. The mutation commits only if fn returns nil; on error the
// record is restored, so every operation is all-or-nothing. fn receives
// the record itself, not a copy, and must not retain it.
func (l *Ledger) Update(id uint64, fn func(p *domain.Project) error) (*domain.Project, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	backup := p.Clone()
	if err := fn(p); err != nil {
		*p = *backup
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()
	return p.Clone(), nil
}
