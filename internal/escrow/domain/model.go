package domain

import "time"

// MilestoneStatus is the per-milestone release state machine.
type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "pending"
	MilestoneRequested MilestoneStatus = "requested"
	MilestoneVerified  MilestoneStatus = "verified"
	MilestoneReleased  MilestoneStatus = "released"
	MilestoneRejected  MilestoneStatus = "rejected"
)

// Terminal reports whether no further transition is possible.
func (s MilestoneStatus) Terminal() bool {
	return s == MilestoneReleased || s == MilestoneRejected
}

// Milestone is a discrete portion of a project's funding target,
// releasable only after its condition is verified by the oracle.
type Milestone struct {
	Amount Amount          `json:"amount"`
	Data   string          `json:"data"`
	Status MilestoneStatus `json:"status"`
	// RequestID is the correlation id of the outstanding (or last)
	// verification request, empty while pending.
	RequestID string `json:"request_id,omitempty"`
}

// Project is the escrow ledger's unit of state. IDs are 1-indexed,
// assigned monotonically, never reused.
type Project struct {
	ID            uint64      `json:"id"`
	Name          string      `json:"name"`
	TargetAmount  Amount      `json:"target_amount"`
	CurrentAmount Amount      `json:"current_amount"`
	Creator       string      `json:"creator"`
	Funded        bool        `json:"funded"`
	Milestones    []Milestone `json:"milestones"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Clone returns a deep copy so callers never hold references into the
// ledger's own records.
func (p *Project) Clone() *Project {
	cp := *p
	cp.Milestones = make([]Milestone, len(p.Milestones))
	copy(cp.Milestones, p.Milestones)
	return &cp
}

// RequestState is the lifecycle of one oracle verification request.
type RequestState string

const (
	RequestPending   RequestState = "pending"
	RequestFulfilled RequestState = "fulfilled"
	RequestFailed    RequestState = "failed"
	RequestTimedOut  RequestState = "timed_out"
)

// OracleRequest correlates an asynchronous oracle callback back to the
// milestone under verification. It back-references the milestone by id
// pair, never by pointer.
type OracleRequest struct {
	RequestID      string       `json:"request_id"`
	ProjectID      uint64       `json:"project_id"`
	MilestoneIndex int          `json:"milestone_index"`
	JobID          string       `json:"job_id"`
	Fee            Amount       `json:"fee"`
	State          RequestState `json:"state"`
	IssuedAt       time.Time    `json:"issued_at"`
}
