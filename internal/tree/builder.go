package tree

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"lineage/internal/person/models"
	"lineage/internal/person/store"
	"lineage/internal/sentinel"
	"lineage/internal/tree/metrics"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
)

// Builder assembles an owner's records into family trees. Relations resolve
// concurrently; a dangling or failed relation is omitted rather than failing
// the build. Repeated ids within one traversal produce an elided subtree, so
// inconsistent data with relation cycles still terminates.
type Builder struct {
	persons store.Store
	cache   Cache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// BuilderOption configures the Builder.
type BuilderOption func(*Builder)

// WithCache attaches a tree cache.
func WithCache(c Cache) BuilderOption {
	return func(b *Builder) {
		b.cache = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) BuilderOption {
	return func(b *Builder) {
		b.metrics = m
	}
}

// NewBuilder constructs a Builder.
func NewBuilder(persons store.Store, opts ...BuilderOption) *Builder {
	b := &Builder{
		persons: persons,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the owner's trees, one root per parentless record. When no
// record is parentless the earliest-created record anchors a single tree.
func (b *Builder) Build(ctx context.Context, ownerID id.UserID) ([]*Node, error) {
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "owner id is required")
	}
	if b.cache != nil {
		if roots, ok := b.cache.Get(ctx, ownerID); ok {
			if b.metrics != nil {
				b.metrics.CacheHits.Inc()
			}
			return roots, nil
		}
		if b.metrics != nil {
			b.metrics.CacheMisses.Inc()
		}
	}

	start := time.Now()
	roots, err := b.build(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if b.metrics != nil {
		b.metrics.BuildLatency.Observe(time.Since(start).Seconds())
		var total int
		for _, root := range roots {
			total += root.Count()
		}
		b.metrics.NodesPerTree.Observe(float64(total))
	}
	if b.cache != nil {
		b.cache.Set(ctx, ownerID, roots)
	}
	return roots, nil
}

// Invalidate drops the owner's cached trees. The write path calls it on
// every record upsert so readers never see a stale tree after their own
// write.
func (b *Builder) Invalidate(ctx context.Context, ownerID id.UserID) {
	if b.cache == nil || ownerID.IsNil() {
		return
	}
	b.cache.Invalidate(ctx, ownerID)
	if b.metrics != nil {
		b.metrics.Invalidations.Inc()
	}
}

func (b *Builder) build(ctx context.Context, ownerID id.UserID) ([]*Node, error) {
	records, err := b.persons.ListByOwner(ctx, ownerID, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list owner records")
	}
	if len(records) == 0 {
		return nil, nil
	}

	var rootRecords []*models.Record
	for _, record := range records {
		if !record.HasParent() {
			rootRecords = append(rootRecords, record)
		}
	}
	if len(rootRecords) == 0 {
		earliest, err := b.persons.EarliestByOwner(ctx, ownerID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find tree anchor")
		}
		rootRecords = []*models.Record{earliest}
	}

	// Roots expand in creation order so tree shapes are stable: a record
	// reachable from an earlier root is elided from later ones, never the
	// other way around.
	sort.Slice(rootRecords, func(i, j int) bool {
		if !rootRecords[i].CreatedAt.Equal(rootRecords[j].CreatedAt) {
			return rootRecords[i].CreatedAt.Before(rootRecords[j].CreatedAt)
		}
		return rootRecords[i].ID.String() < rootRecords[j].ID.String()
	})

	visited := newVisitSet()
	var roots []*Node
	for _, record := range rootRecords {
		if node := b.expand(ctx, record, visited); node != nil {
			roots = append(roots, node)
		}
	}
	return roots, nil
}

// expand resolves one record into a node, descending into its relations
// concurrently. Returns nil when the record was already placed elsewhere in
// this traversal.
func (b *Builder) expand(ctx context.Context, record *models.Record, visited *visitSet) *Node {
	if ctx.Err() != nil || !visited.visit(record.ID) {
		return nil
	}
	node := newNode(record)

	g, gctx := errgroup.WithContext(ctx)
	if record.FatherID != nil {
		fatherID := *record.FatherID
		g.Go(func() error {
			node.Father = b.relative(gctx, record.OwnerID, fatherID, visited)
			return nil
		})
	}
	if record.MotherID != nil {
		motherID := *record.MotherID
		g.Go(func() error {
			node.Mother = b.relative(gctx, record.OwnerID, motherID, visited)
			return nil
		})
	}
	partners := make([]*Node, len(record.PartnerIDs))
	for i, partnerID := range record.PartnerIDs {
		g.Go(func() error {
			partners[i] = b.relative(gctx, record.OwnerID, partnerID, visited)
			return nil
		})
	}
	var children []*Node
	g.Go(func() error {
		children = b.children(gctx, record, visited)
		return nil
	})
	_ = g.Wait()

	for _, partner := range partners {
		if partner != nil {
			node.Partners = append(node.Partners, partner)
		}
	}
	node.Children = children
	return node
}

// relative resolves a single relation id. Dangling references, cross-owner
// references, and lookup failures all yield nil: the relation is omitted and
// the rest of the tree stands.
func (b *Builder) relative(ctx context.Context, ownerID id.UserID, personID id.PersonID, visited *visitSet) *Node {
	record, err := b.persons.FindByID(ctx, personID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			b.logger.Warn("relation lookup failed, omitting subtree",
				"person_id", personID, "error", err)
		}
		return nil
	}
	if record.OwnerID != ownerID {
		return nil
	}
	return b.expand(ctx, record, visited)
}

// children expands every record naming this node as father or mother.
func (b *Builder) children(ctx context.Context, record *models.Record, visited *visitSet) []*Node {
	childRecords, err := b.persons.ChildrenOf(ctx, record.OwnerID, record.ID)
	if err != nil {
		b.logger.Warn("children lookup failed, omitting subtree",
			"person_id", record.ID, "error", err)
		return nil
	}
	nodes := make([]*Node, len(childRecords))
	g, gctx := errgroup.WithContext(ctx)
	for i, child := range childRecords {
		g.Go(func() error {
			nodes[i] = b.expand(gctx, child, visited)
			return nil
		})
	}
	_ = g.Wait()

	out := nodes[:0]
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// visitSet tracks which record ids the current traversal has placed. It is
// shared across the traversal's goroutines.
type visitSet struct {
	mu   sync.Mutex
	seen map[id.PersonID]struct{}
}

func newVisitSet() *visitSet {
	return &visitSet{seen: make(map[id.PersonID]struct{})}
}

// visit reports whether the id was claimed by this call. A second claim for
// the same id returns false, which elides the duplicate subtree.
func (v *visitSet) visit(personID id.PersonID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[personID]; ok {
		return false
	}
	v.seen[personID] = struct{}{}
	return true
}
