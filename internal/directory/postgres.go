package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lineage/internal/sentinel"
	id "lineage/pkg/domain"
)

// PostgresResolver resolves display names from the users and persons tables.
type PostgresResolver struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed resolver.
func NewPostgres(db *sql.DB) *PostgresResolver {
	return &PostgresResolver{db: db}
}

func (r *PostgresResolver) DisplayName(ctx context.Context, userID id.UserID) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT display_name FROM users WHERE id = $1`, uuid.UUID(userID),
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("resolve user name: %w", err)
	}
	return name, nil
}

func (r *PostgresResolver) PersonName(ctx context.Context, personID id.PersonID) (string, error) {
	var name, surname string
	err := r.db.QueryRowContext(ctx,
		`SELECT name, COALESCE(surname, '') FROM persons WHERE id = $1`, uuid.UUID(personID),
	).Scan(&name, &surname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("resolve person name: %w", err)
	}
	if surname == "" {
		return name, nil
	}
	return name + " " + surname, nil
}
