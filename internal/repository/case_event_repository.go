package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/oirs-service/internal/domain"
	"github.com/spec-kit/oirs-service/internal/persistence"
)

// CaseEventRepository is the append-only per-case history.
type CaseEventRepository interface {
	Append(ctx context.Context, caseID string, event *domain.CaseEvent) error
	// ListByCase returns events newest first.
	ListByCase(ctx context.Context, caseID string) ([]domain.CaseEvent, error)
}

type caseEventRepository struct {
	db persistence.Querier
}

// NewCaseEventRepository builds the repository.
func NewCaseEventRepository(db persistence.Querier) CaseEventRepository {
	return &caseEventRepository{db: db}
}

func (r *caseEventRepository) Append(ctx context.Context, caseID string, event *domain.CaseEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.CaseID = caseID
	if event.At.IsZero() {
		event.At = time.Now()
	}
	event.At = event.At.UTC()

	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}

	const query = `
        INSERT INTO case_events (id, case_id, type, actor, at, payload)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err = r.db.Exec(ctx, query,
		event.ID,
		event.CaseID,
		string(event.Type),
		event.By,
		event.At,
		string(raw),
	)
	return err
}

func (r *caseEventRepository) ListByCase(ctx context.Context, caseID string) ([]domain.CaseEvent, error) {
	const query = `
        SELECT id, case_id, type, actor, at, payload
        FROM case_events WHERE case_id=$1
        ORDER BY at DESC, seq DESC`
	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.CaseEvent{}
	for rows.Next() {
		var (
			event     domain.CaseEvent
			eventType string
			payload   []byte
		)
		if err := rows.Scan(&event.ID, &event.CaseID, &eventType, &event.By, &event.At, &payload); err != nil {
			return nil, err
		}
		event.Type = domain.CaseEventType(eventType)
		event.At = event.At.UTC()
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, fmt.Errorf("decode event %s payload: %w", event.ID, err)
			}
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
