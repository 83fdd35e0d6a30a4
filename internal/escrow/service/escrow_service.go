// Package service implements the escrow ledger's business logic:
// project registration, contribution handling, milestone verification
// and fund release. Every mutating operation is all-or-nothing against
// the ledger; events and mirrors are applied only after commit.
package service

import (
	"context"
	"log"
	"time"

	"github.com/greendefi-labs/escrow-backend/internal/escrow/domain"
	"github.com/greendefi-labs/escrow-backend/internal/escrow/repository"
	"github.com/greendefi-labs/escrow-backend/internal/oracle"
	"github.com/greendefi-labs/escrow-backend/internal/token"
)

// Journal records committed ledger operations durably. Nil-safe no-op
// when persistence is not configured.
type Journal interface {
	Record(ctx context.Context, entry JournalEntry) error
}

// JournalEntry is one committed ledger operation.
type JournalEntry struct {
	Op             string
	ProjectID      uint64
	MilestoneIndex int
	Amount         domain.Amount
	Actor          string
	RequestID      string
	At             time.Time
}

// EscrowService composes the ledger store, the asset bank, the oracle
// request manager and the read-model mirror.
type EscrowService struct {
	ledger  *repository.Ledger
	bank    *token.Bank
	oracles *oracle.Manager
	cache   *repository.SnapshotCache
	journal Journal
}

func NewEscrowService(ledger *repository.Ledger, bank *token.Bank, oracles *oracle.Manager, cache *repository.SnapshotCache, journal Journal) *EscrowService {
	return &EscrowService{
		ledger:  ledger,
		bank:    bank,
		oracles: oracles,
		cache:   cache,
		journal: journal,
	}
}

// CreateProject registers a new project with its fixed milestone
// schedule. Milestone amounts must sum exactly to the target.
func (s *EscrowService) CreateProject(ctx context.Context, name, creator string, target domain.Amount, amounts []domain.Amount, data []string) (*domain.Project, error) {
	p, err := s.ledger.Create(name, creator, target, amounts, data)
	if err != nil {
		return nil, err
	}

	s.committed(ctx, p, domain.Event{
		Type:      domain.EventProjectCreated,
		ProjectID: p.ID,
		Amount:    p.TargetAmount,
		Actor:     creator,
		At:        time.Now().UTC(),
	}, JournalEntry{Op: "create_project", ProjectID: p.ID, Amount: p.TargetAmount, Actor: creator})

	return p, nil
}

// GetProject returns a snapshot of the project.
func (s *EscrowService) GetProject(ctx context.Context, id uint64) (*domain.Project, error) {
	return s.ledger.Get(id)
}

// ProjectCount returns how many projects have been created.
func (s *EscrowService) ProjectCount() uint64 {
	return s.ledger.Count()
}

// ListProjects returns snapshots of all projects in id order.
func (s *EscrowService) ListProjects() []*domain.Project {
	return s.ledger.List()
}

// Contribute records a contribution. Excess contributions are rejected
// entirely rather than partially accepted, so the current amount never
// exceeds the target and no refund path is needed.
func (s *EscrowService) Contribute(ctx context.Context, projectID uint64, amount domain.Amount, contributor string) (domain.Amount, error) {
	if amount.IsZero() || contributor == "" {
		return domain.Amount{}, domain.ErrInvalidInput
	}

	var becameFunded bool
	p, err := s.ledger.Update(projectID, func(p *domain.Project) error {
		if p.Funded {
			return domain.ErrAlreadyFunded
		}
		next := p.CurrentAmount.Add(amount)
		if next.Cmp(p.TargetAmount) > 0 {
			return domain.ErrOverflow
		}
		p.CurrentAmount = next
		if next.Equal(p.TargetAmount) {
			p.Funded = true
			becameFunded = true
		}
		return nil
	})
	if err != nil {
		return domain.Amount{}, err
	}

	// The contributed value travels with the call; the escrow account
	// holds it until milestones release it.
	s.bank.Credit(token.EscrowAccount, amount)

	s.committed(ctx, p, domain.Event{
		Type:      domain.EventContributionReceived,
		ProjectID: projectID,
		Amount:    amount,
		Actor:     contributor,
		At:        time.Now().UTC(),
	}, JournalEntry{Op: "contribute", ProjectID: projectID, Amount: amount, Actor: contributor})

	if becameFunded {
		s.publish(ctx, domain.Event{
			Type:      domain.EventProjectFunded,
			ProjectID: projectID,
			Amount:    p.TargetAmount,
			At:        time.Now().UTC(),
		})
	}

	return p.CurrentAmount, nil
}

// committed mirrors the snapshot, publishes the event and journals the
// operation after a successful ledger commit. None of the three can
// roll the commit back; failures are logged.
func (s *EscrowService) committed(ctx context.Context, p *domain.Project, ev domain.Event, entry JournalEntry) {
	if err := s.cache.Store(ctx, p, s.ledger.Count()); err != nil {
		log.Printf("[escrow] snapshot mirror failed project_id=%d: %v", p.ID, err)
	}
	s.publish(ctx, ev)
	if s.journal != nil {
		entry.At = ev.At
		if err := s.journal.Record(ctx, entry); err != nil {
			log.Printf("[escrow] journal write failed project_id=%d op=%s: %v", p.ID, entry.Op, err)
		}
	}
}

func (s *EscrowService) publish(ctx context.Context, ev domain.Event) {
	if err := s.cache.Publish(ctx, ev); err != nil {
		log.Printf("[escrow] event publish failed type=%s project_id=%d: %v", ev.Type, ev.ProjectID, err)
	}
}
