package processed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "lineage/pkg/domain"
)

// PostgresStore persists marks in PostgreSQL. The table has no uniqueness
// constraint on the tuple; readers treat membership, not count, as the signal.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed mark store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, mark Mark) error {
	query := `
		INSERT INTO processed_suggestions (owner_id, person_id, suggestion_id, rendered_text, marked_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(mark.OwnerID),
		uuid.UUID(mark.PersonID),
		uuid.UUID(mark.SuggestionID),
		mark.RenderedText,
		mark.MarkedAt,
	)
	if err != nil {
		return fmt.Errorf("append processed mark: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByScope(ctx context.Context, ownerID id.UserID, personID id.PersonID) ([]Mark, error) {
	query := `
		SELECT owner_id, person_id, suggestion_id, rendered_text, marked_at
		FROM processed_suggestions
		WHERE owner_id = $1 AND person_id = $2
		ORDER BY marked_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(ownerID), uuid.UUID(personID))
	if err != nil {
		return nil, fmt.Errorf("list processed marks: %w", err)
	}
	defer rows.Close()

	var marks []Mark
	for rows.Next() {
		var (
			mark                   Mark
			owner, person, suggest uuid.UUID
		)
		if err := rows.Scan(&owner, &person, &suggest, &mark.RenderedText, &mark.MarkedAt); err != nil {
			return nil, fmt.Errorf("scan processed mark: %w", err)
		}
		mark.OwnerID = id.UserID(owner)
		mark.PersonID = id.PersonID(person)
		mark.SuggestionID = id.SuggestionID(suggest)
		marks = append(marks, mark)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed marks: %w", err)
	}
	return marks, nil
}
