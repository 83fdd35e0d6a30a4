// Package archive persists an append-only journal of committed ledger
// operations to Postgres. The journal is an audit trail; the in-memory
// ledger remains the source of truth for live state.
package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greendefi-labs/escrow-backend/internal/escrow/domain"
	"github.com/greendefi-labs/escrow-backend/internal/escrow/service"
)

const createJournalTable = `
CREATE TABLE IF NOT EXISTS ledger_journal (
    seq             BIGSERIAL PRIMARY KEY,
    op              TEXT        NOT NULL,
    project_id      BIGINT      NOT NULL,
    milestone_index INT         NOT NULL DEFAULT -1,
    amount          NUMERIC(78) NOT NULL DEFAULT 0,
    actor           TEXT        NOT NULL DEFAULT '',
    request_id      TEXT        NOT NULL DEFAULT '',
    at              TIMESTAMPTZ NOT NULL
);`

// Journal writes ledger operations to the ledger_journal table.
type Journal struct {
	db *pgxpool.Pool
}

// NewJournal ensures the journal table exists and returns the writer.
func NewJournal(ctx context.Context, db *pgxpool.Pool) (*Journal, error) {
	if _, err := db.Exec(ctx, createJournalTable); err != nil {
		return nil, fmt.Errorf("create journal table: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record appends one committed operation.
func (j *Journal) Record(ctx context.Context, entry service.JournalEntry) error {
	const q = `
INSERT INTO ledger_journal (op, project_id, milestone_index, amount, actor, request_id, at)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7);
`
	_, err := j.db.Exec(ctx, q,
		entry.Op,
		entry.ProjectID,
		entry.MilestoneIndex,
		entry.Amount.String(),
		entry.Actor,
		entry.RequestID,
		entry.At,
	)
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// History returns the journal rows for one project, oldest first.
func (j *Journal) History(ctx context.Context, projectID uint64) ([]service.JournalEntry, error) {
	const q = `
SELECT op, project_id, milestone_index, amount::text, actor, request_id, at
FROM ledger_journal
WHERE project_id = $1
ORDER BY seq;
`
	rows, err := j.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]service.JournalEntry, 0, 16)
	for rows.Next() {
		var e service.JournalEntry
		var amount string
		if err := rows.Scan(&e.Op, &e.ProjectID, &e.MilestoneIndex, &amount, &e.Actor, &e.RequestID, &e.At); err != nil {
			return nil, err
		}
		if e.Amount, err = domain.ParseAmount(amount); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
