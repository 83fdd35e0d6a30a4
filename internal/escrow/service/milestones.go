package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/greendefi-labs/escrow-backend/internal/escrow/domain"
	"github.com/greendefi-labs/escrow-backend/internal/token"
)

// RequestVerification asks the oracle to verify a milestone's condition.
// Preconditions: the project is fully funded, milestone k-1 is already
// released (strict index order), and no request is outstanding for this
// milestone. Rejection is final: a rejected milestone cannot be
// re-requested, so oracle fees are never spent twice on the same index.
func (s *EscrowService) RequestVerification(ctx context.Context, projectID uint64, index int, caller string) (string, error) {
	p, err := s.ledger.Get(projectID)
	if err != nil {
		return "", err
	}
	if err := requestable(p, index); err != nil {
		return "", err
	}

	requestID, err := s.oracles.Submit(ctx, projectID, index, p.Milestones[index].Data)
	if err != nil {
		return "", err
	}

	updated, err := s.ledger.Update(projectID, func(p *domain.Project) error {
		if err := requestable(p, index); err != nil {
			return err
		}
		p.Milestones[index].Status = domain.MilestoneRequested
		p.Milestones[index].RequestID = requestID
		return nil
	})
	if err != nil {
		// The fee is spent and the request is live; close it out so the
		// oracle callback for it is treated as already resolved.
		if _, rerr := s.oracles.Resolve(requestID, false); rerr != nil {
			log.Printf("[escrow] orphaned oracle request %s: %v", requestID, rerr)
		}
		return "", err
	}

	s.committed(ctx, updated, domain.Event{
		Type:           domain.EventMilestoneVerificationRequested,
		ProjectID:      projectID,
		MilestoneIndex: index,
		Actor:          caller,
		RequestID:      requestID,
		At:             time.Now().UTC(),
	}, JournalEntry{Op: "request_verification", ProjectID: projectID, MilestoneIndex: index, Actor: caller, RequestID: requestID})

	return requestID, nil
}

func requestable(p *domain.Project, index int) error {
	if index < 0 || index >= len(p.Milestones) {
		return domain.ErrNotFound
	}
	if !p.Funded {
		return fmt.Errorf("%w: project not funded", domain.ErrInvalidInput)
	}
	m := p.Milestones[index]
	switch {
	case m.Status.Terminal():
		return domain.ErrTerminalState
	case m.Status == domain.MilestoneRequested:
		return domain.ErrRequestPending
	case m.Status == domain.MilestoneVerified:
		return fmt.Errorf("%w: milestone already verified", domain.ErrInvalidInput)
	}
	if index > 0 && p.Milestones[index-1].Status != domain.MilestoneReleased {
		return domain.ErrOutOfOrder
	}
	return nil
}

// ResolveVerification applies an oracle verdict. It is the single
// inbound path for oracle callbacks; duplicate callbacks for the same
// request id are no-ops surfaced as ErrAlreadyResolved.
func (s *EscrowService) ResolveVerification(ctx context.Context, requestID string, success bool, resultData string) error {
	req, err := s.oracles.Resolve(requestID, success)
	if err != nil {
		return err
	}

	status := domain.MilestoneVerified
	evType := domain.EventMilestoneVerified
	if !success {
		status = domain.MilestoneRejected
		evType = domain.EventMilestoneRejected
	}

	p, err := s.ledger.Update(req.ProjectID, func(p *domain.Project) error {
		m := &p.Milestones[req.MilestoneIndex]
		if m.Status != domain.MilestoneRequested || m.RequestID != requestID {
			return domain.ErrUnknownRequest
		}
		m.Status = status
		return nil
	})
	if err != nil {
		return err
	}

	if resultData != "" {
		log.Printf("[oracle] request_id=%s project_id=%d milestone=%d result=%q", requestID, req.ProjectID, req.MilestoneIndex, resultData)
	}

	s.committed(ctx, p, domain.Event{
		Type:           evType,
		ProjectID:      req.ProjectID,
		MilestoneIndex: req.MilestoneIndex,
		RequestID:      requestID,
		At:             time.Now().UTC(),
	}, JournalEntry{Op: string(evType), ProjectID: req.ProjectID, MilestoneIndex: req.MilestoneIndex, RequestID: requestID})

	return nil
}

// CheckTimeout rejects the milestone behind a request that has received
// no callback within the configured deadline. Explicit rather than
// implicit: callers (or the cron sweep) drive it.
func (s *EscrowService) CheckTimeout(ctx context.Context, requestID string, now time.Time) (bool, error) {
	req, expired, err := s.oracles.CheckTimeout(requestID, now)
	if err != nil {
		return false, err
	}
	if !expired {
		return false, nil
	}

	p, err := s.ledger.Update(req.ProjectID, func(p *domain.Project) error {
		m := &p.Milestones[req.MilestoneIndex]
		if m.Status != domain.MilestoneRequested || m.RequestID != requestID {
			return domain.ErrUnknownRequest
		}
		m.Status = domain.MilestoneRejected
		return nil
	})
	if err != nil {
		return true, err
	}

	s.committed(ctx, p, domain.Event{
		Type:           domain.EventMilestoneRejected,
		ProjectID:      req.ProjectID,
		MilestoneIndex: req.MilestoneIndex,
		RequestID:      requestID,
		At:             time.Now().UTC(),
	}, JournalEntry{Op: "verification_timeout", ProjectID: req.ProjectID, MilestoneIndex: req.MilestoneIndex, RequestID: requestID})

	return true, nil
}

// SweepTimeouts runs CheckTimeout over every outstanding request and
// returns how many it expired.
func (s *EscrowService) SweepTimeouts(ctx context.Context) int {
	now := time.Now().UTC()
	expired := 0
	for _, id := range s.oracles.Outstanding() {
		ok, err := s.CheckTimeout(ctx, id, now)
		if err != nil {
			log.Printf("[escrow] timeout check failed request_id=%s: %v", id, err)
			continue
		}
		if ok {
			expired++
		}
	}
	return expired
}

// Release pays out a verified milestone to the project creator. Only
// the creator may release. The status transition commits atomically
// with the transfer under the ledger lock: a failed transfer leaves the
// milestone verified and retryable, a second release attempt sees the
// released status and is rejected.
func (s *EscrowService) Release(ctx context.Context, projectID uint64, index int, caller string) (domain.Amount, error) {
	var amount domain.Amount
	p, err := s.ledger.Update(projectID, func(p *domain.Project) error {
		if caller != p.Creator {
			return domain.ErrUnauthorized
		}
		if index < 0 || index >= len(p.Milestones) {
			return domain.ErrNotFound
		}
		m := &p.Milestones[index]
		if m.Status.Terminal() {
			return domain.ErrTerminalState
		}
		if m.Status != domain.MilestoneVerified {
			return fmt.Errorf("%w: milestone not verified", domain.ErrInvalidInput)
		}

		if err := s.bank.Transfer(token.EscrowAccount, p.Creator, m.Amount); err != nil {
			return domain.ErrTransferFailed
		}
		m.Status = domain.MilestoneReleased
		amount = m.Amount
		return nil
	})
	if err != nil {
		return domain.Amount{}, err
	}

	s.committed(ctx, p, domain.Event{
		Type:           domain.EventMilestoneReleased,
		ProjectID:      projectID,
		MilestoneIndex: index,
		Amount:         amount,
		Actor:          caller,
		At:             time.Now().UTC(),
	}, JournalEntry{Op: "release", ProjectID: projectID, MilestoneIndex: index, Amount: amount, Actor: caller})

	return amount, nil
}
