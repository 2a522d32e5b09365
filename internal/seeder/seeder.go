// Package seeder populates in-memory stores with demo family data for the
// databaseless development mode.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lineage/internal/person/models"
	id "lineage/pkg/domain"
)

// PersonStore defines methods for seeding person records.
type PersonStore interface {
	Save(ctx context.Context, record *models.Record) error
}

// UserRegistry defines methods for seeding user display names.
type UserRegistry interface {
	SetUser(userID id.UserID, name string)
}

// Seeder populates stores with two demo family trees that overlap just
// enough to exercise the similarity engine.
type Seeder struct {
	persons PersonStore
	users   UserRegistry
	logger  *slog.Logger
}

// New creates a new seeder.
func New(persons PersonStore, users UserRegistry, logger *slog.Logger) *Seeder {
	return &Seeder{
		persons: persons,
		users:   users,
		logger:  logger,
	}
}

// SeedAll registers the demo users and their family records.
func (s *Seeder) SeedAll(ctx context.Context) error {
	s.logger.Info("seeding demo data...")

	alice := id.NewUserID()
	bob := id.NewUserID()
	s.users.SetUser(alice, "Alice Anderson")
	s.users.SetUser(bob, "Bob Brown")

	records, err := s.seedAliceTree(ctx, alice)
	if err != nil {
		return fmt.Errorf("failed to seed Alice's tree: %w", err)
	}
	bobRecords, err := s.seedBobTree(ctx, bob)
	if err != nil {
		return fmt.Errorf("failed to seed Bob's tree: %w", err)
	}

	s.logger.Info("demo data seeded successfully",
		"users", 2,
		"persons", records+bobRecords,
	)
	return nil
}

func date(year, month, day int) *time.Time {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &d
}

// seedAliceTree builds a three generation tree rooted at George and Mary
// Miller. Their grandson John Smith also appears in Bob's tree, which gives
// the engine a cross-owner match to report.
func (s *Seeder) seedAliceTree(ctx context.Context, owner id.UserID) (int, error) {
	george := id.NewPersonID()
	mary := id.NewPersonID()
	anne := id.NewPersonID()
	john := id.NewPersonID()

	records := []*models.Record{
		{
			ID: george, OwnerID: owner,
			Name: "George", Surname: "Miller", Gender: "male",
			Status: models.StatusDead, BirthDate: date(1921, 4, 2), DeathDate: date(1999, 11, 30),
			Country:    "Portugal",
			PartnerIDs: []id.PersonID{mary},
			ChildIDs:   []id.PersonID{anne},
		},
		{
			ID: mary, OwnerID: owner,
			Name: "Mary", Surname: "Miller", Gender: "female",
			Status: models.StatusDead, BirthDate: date(1925, 8, 19),
			Country:    "Portugal",
			PartnerIDs: []id.PersonID{george},
			ChildIDs:   []id.PersonID{anne},
		},
		{
			ID: anne, OwnerID: owner,
			Name: "Anne", Surname: "Smith", Gender: "female",
			Status: models.StatusAlive, BirthDate: date(1952, 1, 7),
			Country:  "Portugal",
			FatherID: &george, MotherID: &mary,
			ChildIDs: []id.PersonID{john},
		},
		{
			ID: john, OwnerID: owner,
			Name: "John", Surname: "Smith", Gender: "male",
			Status: models.StatusAlive, BirthDate: date(1975, 6, 23),
			Country:  "Portugal",
			MotherID: &anne,
		},
	}
	return s.save(ctx, records)
}

// seedBobTree contains a John Smith with the same vitals but no birth date,
// so the generated suggestion proposes adding it.
func (s *Seeder) seedBobTree(ctx context.Context, owner id.UserID) (int, error) {
	john := id.NewPersonID()
	clara := id.NewPersonID()

	records := []*models.Record{
		{
			ID: john, OwnerID: owner,
			Name: "John", Surname: "Smith", Gender: "male",
			Status:     models.StatusAlive,
			Country:    "Portugal",
			PartnerIDs: []id.PersonID{clara},
		},
		{
			ID: clara, OwnerID: owner,
			Name: "Clara", Surname: "Smith", Gender: "female",
			Status: models.StatusAlive, BirthDate: date(1978, 3, 2),
			Country:    "Portugal",
			PartnerIDs: []id.PersonID{john},
		},
	}
	return s.save(ctx, records)
}

func (s *Seeder) save(ctx context.Context, records []*models.Record) (int, error) {
	for _, record := range records {
		if err := s.persons.Save(ctx, record); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}
