// Package oracle issues fee-bearing verification requests to an
// external oracle node and correlates the asynchronous callbacks back
// to the milestone each one verifies.
package oracle

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greendefi-labs/escrow-backend/internal/escrow/domain"
	"github.com/greendefi-labs/escrow-backend/internal/token"
)

// Dispatcher sends a job to the oracle node. Satisfied by *Client;
// tests substitute a recorder.
type Dispatcher interface {
	Dispatch(ctx context.Context, job JobRequest) error
}

// Options carries the oracle parameters fixed at initialization:
// default job id, default fee, the account the fee is debited from,
// and the callback URL handed to the oracle.
type Options struct {
	JobID       string
	Fee         domain.Amount
	FeeAccount  string
	CallbackURL string
	Timeout     time.Duration
}

// Manager owns the pending-request table. Requests keep a back-reference
// (project id, milestone index) into the ledger, never a pointer.
// Resolved requests stay in the table so a late duplicate callback is
// answered with ErrAlreadyResolved instead of re-applying effects.
type Manager struct {
	opts       Options
	feeBank    *token.Bank
	dispatcher Dispatcher

	mu          sync.Mutex
	requests    map[string]*domain.OracleRequest
	outstanding map[milestoneKey]string // (project, index) -> request id
}

type milestoneKey struct {
	projectID uint64
	index     int
}

func NewManager(opts Options, feeBank *token.Bank, dispatcher Dispatcher) *Manager {
	return &Manager{
		opts:        opts,
		feeBank:     feeBank,
		dispatcher:  dispatcher,
		requests:    make(map[string]*domain.OracleRequest),
		outstanding: make(map[milestoneKey]string),
	}
}

// Submit debits the oracle fee, records a pending request and fires the
// job at the oracle node. It returns the correlation id immediately;
// the verdict arrives later through Resolve. If the dispatch itself
// fails the request stays pending and the timeout sweep rejects it.
func (m *Manager) Submit(ctx context.Context, projectID uint64, index int, data string) (string, error) {
	key := milestoneKey{projectID, index}

	m.mu.Lock()
	if id, ok := m.outstanding[key]; ok {
		m.mu.Unlock()
		return "", fmt.Errorf("%w: request %s", domain.ErrRequestPending, id)
	}

	if err := m.feeBank.Debit(m.opts.FeeAccount, m.opts.Fee); err != nil {
		m.mu.Unlock()
		return "", err
	}

	req := &domain.OracleRequest{
		RequestID:      uuid.New().String(),
		ProjectID:      projectID,
		MilestoneIndex: index,
		JobID:          m.opts.JobID,
		Fee:            m.opts.Fee,
		State:          domain.RequestPending,
		IssuedAt:       time.Now().UTC(),
	}
	m.requests[req.RequestID] = req
	m.outstanding[key] = req.RequestID
	m.mu.Unlock()

	job := JobRequest{
		RequestID:      req.RequestID,
		JobID:          req.JobID,
		ProjectID:      projectID,
		MilestoneIndex: index,
		Data:           data,
		CallbackURL:    m.opts.CallbackURL,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := m.dispatcher.Dispatch(ctx, job); err != nil {
			log.Printf("[oracle] dispatch failed request_id=%s project_id=%d: %v", req.RequestID, projectID, err)
		}
	}()

	return req.RequestID, nil
}

// Resolve records the oracle's verdict for an outstanding request and
// returns the request snapshot so the caller can apply the milestone
// transition. A second resolution for the same id is a no-op reported
// as ErrAlreadyResolved; a verdict arriving after the deadline expired
// the request is reported as ErrTimeout.
func (m *Manager) Resolve(requestID string, success bool) (domain.OracleRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[requestID]
	if !ok {
		return domain.OracleRequest{}, domain.ErrUnknownRequest
	}
	if req.State == domain.RequestTimedOut {
		return *req, domain.ErrTimeout
	}
	if req.State != domain.RequestPending {
		return *req, domain.ErrAlreadyResolved
	}

	if success {
		req.State = domain.RequestFulfilled
	} else {
		req.State = domain.RequestFailed
	}
	delete(m.outstanding, milestoneKey{req.ProjectID, req.MilestoneIndex})

	return *req, nil
}

// CheckTimeout moves a still-pending request past its deadline into the
// timed-out state. The boolean reports whether this call expired it;
// already-resolved requests return false with no error, so the sweep is
// idempotent.
func (m *Manager) CheckTimeout(requestID string, now time.Time) (domain.OracleRequest, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[requestID]
	if !ok {
		return domain.OracleRequest{}, false, domain.ErrUnknownRequest
	}
	if req.State != domain.RequestPending {
		return *req, false, nil
	}
	if now.Sub(req.IssuedAt) < m.opts.Timeout {
		return *req, false, nil
	}

	req.State = domain.RequestTimedOut
	delete(m.outstanding, milestoneKey{req.ProjectID, req.MilestoneIndex})
	return *req, true, nil
}

// Outstanding lists the ids of all pending requests, for the sweep.
func (m *Manager) Outstanding() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.outstanding))
	for _, id := range m.outstanding {
		ids = append(ids, id)
	}
	return ids
}

// Get returns a request snapshot by id.
func (m *Manager) Get(requestID string) (domain.OracleRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[requestID]
	if !ok {
		return domain.OracleRequest{}, domain.ErrUnknownRequest
	}
	return *req, nil
}
