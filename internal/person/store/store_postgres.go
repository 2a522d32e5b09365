package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lineage/internal/person/models"
	"lineage/internal/sentinel"
	id "lineage/pkg/domain"
)

// PostgresStore persists person records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed person store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const personColumns = `id, owner_id, name, COALESCE(surname, ''), COALESCE(gender, ''), status,
	birth_date, death_date, COALESCE(country, ''), COALESCE(occupation, ''),
	father_id, mother_id, partner_ids, child_ids, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("person record is required")
	}
	partners, err := json.Marshal(idsToUUIDs(record.PartnerIDs))
	if err != nil {
		return fmt.Errorf("encode partner ids: %w", err)
	}
	children, err := json.Marshal(idsToUUIDs(record.ChildIDs))
	if err != nil {
		return fmt.Errorf("encode child ids: %w", err)
	}
	query := `
		INSERT INTO persons (id, owner_id, name, surname, gender, status, birth_date, death_date,
			country, occupation, father_id, mother_id, partner_ids, child_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			surname = EXCLUDED.surname,
			gender = EXCLUDED.gender,
			status = EXCLUDED.status,
			birth_date = EXCLUDED.birth_date,
			death_date = EXCLUDED.death_date,
			country = EXCLUDED.country,
			occupation = EXCLUDED.occupation,
			father_id = EXCLUDED.father_id,
			mother_id = EXCLUDED.mother_id,
			partner_ids = EXCLUDED.partner_ids,
			child_ids = EXCLUDED.child_ids,
			updated_at = now()
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.OwnerID),
		record.Name,
		nullString(record.Surname),
		nullString(record.Gender),
		string(record.Status),
		record.BirthDate,
		record.DeathDate,
		nullString(record.Country),
		nullString(record.Occupation),
		personIDPtr(record.FatherID),
		personIDPtr(record.MotherID),
		partners,
		children,
	)
	if err != nil {
		return fmt.Errorf("save person: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, personID id.PersonID) (*models.Record, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = $1`
	record, err := scanPerson(s.db.QueryRowContext(ctx, query, uuid.UUID(personID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find person: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID, excludeID *id.PersonID) ([]*models.Record, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE owner_id = $1`
	args := []any{uuid.UUID(ownerID)}
	if excludeID != nil {
		query += ` AND id <> $2`
		args = append(args, uuid.UUID(*excludeID))
	}
	return s.queryPersons(ctx, query, args...)
}

func (s *PostgresStore) ListGroupedByOwner(ctx context.Context, excludeOwner id.UserID) (map[id.UserID][]*models.Record, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE owner_id <> $1`
	records, err := s.queryPersons(ctx, query, uuid.UUID(excludeOwner))
	if err != nil {
		return nil, err
	}
	grouped := make(map[id.UserID][]*models.Record)
	for _, record := range records {
		grouped[record.OwnerID] = append(grouped[record.OwnerID], record)
	}
	return grouped, nil
}

func (s *PostgresStore) ChildrenOf(ctx context.Context, ownerID id.UserID, parentID id.PersonID) ([]*models.Record, error) {
	query := `SELECT ` + personColumns + ` FROM persons
		WHERE owner_id = $1 AND (father_id = $2 OR mother_id = $2)`
	return s.queryPersons(ctx, query, uuid.UUID(ownerID), uuid.UUID(parentID))
}

func (s *PostgresStore) EarliestByOwner(ctx context.Context, ownerID id.UserID) (*models.Record, error) {
	query := `SELECT ` + personColumns + ` FROM persons
		WHERE owner_id = $1 ORDER BY created_at ASC LIMIT 1`
	record, err := scanPerson(s.db.QueryRowContext(ctx, query, uuid.UUID(ownerID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("earliest person: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) queryPersons(ctx context.Context, query string, args ...any) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*models.Record, error) {
	var (
		record             models.Record
		personID, ownerID  uuid.UUID
		status             string
		fatherID, motherID *uuid.UUID
		partners, children []byte
	)
	err := row.Scan(
		&personID, &ownerID, &record.Name, &record.Surname, &record.Gender, &status,
		&record.BirthDate, &record.DeathDate, &record.Country, &record.Occupation,
		&fatherID, &motherID, &partners, &children, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.ID = id.PersonID(personID)
	record.OwnerID = id.UserID(ownerID)
	record.Status = models.Status(status)
	if fatherID != nil {
		f := id.PersonID(*fatherID)
		record.FatherID = &f
	}
	if motherID != nil {
		m := id.PersonID(*motherID)
		record.MotherID = &m
	}
	if record.PartnerIDs, err = decodeIDList(partners); err != nil {
		return nil, fmt.Errorf("decode partner ids: %w", err)
	}
	if record.ChildIDs, err = decodeIDList(children); err != nil {
		return nil, fmt.Errorf("decode child ids: %w", err)
	}
	return &record, nil
}

func decodeIDList(raw []byte) ([]id.PersonID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var uuids []uuid.UUID
	if err := json.Unmarshal(raw, &uuids); err != nil {
		return nil, err
	}
	out := make([]id.PersonID, 0, len(uuids))
	for _, u := range uuids {
		out = append(out, id.PersonID(u))
	}
	return out, nil
}

func idsToUUIDs(ids []id.PersonID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, p := range ids {
		out = append(out, uuid.UUID(p))
	}
	return out
}

func personIDPtr(p *id.PersonID) *uuid.UUID {
	if p == nil {
		return nil
	}
	u := uuid.UUID(*p)
	return &u
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
