package domain

import "time"

// EventType names the observable ledger events external subscribers see.
type EventType string

const (
	EventProjectCreated                 EventType = "project_created"
	EventContributionReceived           EventType = "contribution_received"
	EventProjectFunded                  EventType = "project_funded"
	EventMilestoneVerificationRequested EventType = "milestone_verification_requested"
	EventMilestoneVerified              EventType = "milestone_verified"
	EventMilestoneRejected              EventType = "milestone_rejected"
	EventMilestoneReleased              EventType = "milestone_released"
)

// Event is published after the corresponding ledger mutation commits.
type Event struct {
	Type           EventType `json:"type"`
	ProjectID      uint64    `json:"project_id"`
	MilestoneIndex int       `json:"milestone_index,omitempty"`
	Amount         Amount    `json:"amount,omitempty"`
	Actor          string    `json:"actor,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	At             time.Time `json:"at"`
}
