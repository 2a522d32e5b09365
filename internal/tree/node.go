// Package tree assembles an owner's person records into linked family trees.
package tree

import (
	"time"

	"lineage/internal/person/models"
	id "lineage/pkg/domain"
)

// Node is one person in an assembled tree. Relation pointers are nil when
// the relation is absent, unresolvable, or already present elsewhere in the
// traversal (cycle elision).
type Node struct {
	ID        id.PersonID `json:"id"`
	Name      string      `json:"name"`
	Surname   string      `json:"surname,omitempty"`
	Gender    string      `json:"gender,omitempty"`
	Status    string      `json:"status"`
	BirthDate *time.Time  `json:"birth_date,omitempty"`
	DeathDate *time.Time  `json:"death_date,omitempty"`
	Country   string      `json:"country,omitempty"`
	Father    *Node       `json:"father,omitempty"`
	Mother    *Node       `json:"mother,omitempty"`
	Partners  []*Node     `json:"partners,omitempty"`
	Children  []*Node     `json:"children,omitempty"`
}

func newNode(record *models.Record) *Node {
	return &Node{
		ID:        record.ID,
		Name:      record.Name,
		Surname:   record.Surname,
		Gender:    record.Gender,
		Status:    string(record.Status),
		BirthDate: record.BirthDate,
		DeathDate: record.DeathDate,
		Country:   record.Country,
	}
}

// Count returns the number of nodes in the subtree, for metrics and tests.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1 + n.Father.Count() + n.Mother.Count()
	for _, p := range n.Partners {
		total += p.Count()
	}
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}
