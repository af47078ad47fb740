// Package session implements the unit of work over the mapping context:
// loading object graphs, saving the changes made to them and deleting
// entities, one Neo4j round trip per operation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/mkd-neo4j/neo4j-ogm/internal/cypher"
	"github.com/mkd-neo4j/neo4j-ogm/internal/database"
	"github.com/mkd-neo4j/neo4j-ogm/internal/events"
	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
	"github.com/mkd-neo4j/neo4j-ogm/internal/metadata"
)

var (
	ErrNotFound     = errors.New("entity not found")
	ErrNoConnection = errors.New("database service is not configured")
)

// Config holds the default depths of a session. A negative depth is unbounded.
type Config struct {
	LoadDepth int
	SaveDepth int
}

// DefaultConfig loads direct neighbours and saves everything reachable.
func DefaultConfig() Config {
	return Config{LoadDepth: 1, SaveDepth: -1}
}

// Factory opens sessions sharing one metadata registry and transport.
type Factory struct {
	meta   *metadata.Registry
	db     database.Service
	events events.Service
	cfg    Config
}

// NewFactory returns a session factory. events may be nil.
func NewFactory(meta *metadata.Registry, db database.Service, ev events.Service, cfg Config) *Factory {
	if ev == nil {
		ev = events.NewService()
		ev.Disable()
	}
	return &Factory{meta: meta, db: db, events: ev, cfg: cfg}
}

// OpenSession returns a new session with an empty mapping context.
func (f *Factory) OpenSession() *Session {
	id := uuid.NewString()
	slog.Debug("session opened", "session", id, "database", f.databaseName())
	return &Session{
		id:     id,
		meta:   f.meta,
		db:     f.db,
		events: f.events,
		cfg:    f.cfg,
		ctx:    mapping.NewContext(f.meta),
	}
}

func (f *Factory) databaseName() string {
	if f.db == nil {
		return ""
	}
	return f.db.GetDatabaseName()
}

// Session is a unit of work. Its methods are safe for concurrent use; two
// saves of overlapping graphs running at the same time see each other's
// changes only after they commit.
type Session struct {
	id     string
	meta   *metadata.Registry
	db     database.Service
	events events.Service
	cfg    Config
	ctx    *mapping.Context

	// saves holds one save at a time from delta to commit, so two saves
	// never both create a node that is still temporary.
	saves sync.Mutex
}

// ID returns the session identifier used in logs and events.
func (s *Session) ID() string {
	return s.id
}

// Context returns the session's mapping context.
func (s *Session) Context() *mapping.Context {
	return s.ctx
}

// Metadata returns the registry the session maps with.
func (s *Session) Metadata() *metadata.Registry {
	return s.meta
}

// Option overrides a default of a single operation.
type Option func(*options)

type options struct {
	depth    int
	hasDepth bool
}

// WithDepth sets the load or save depth. A negative depth is unbounded.
func WithDepth(depth int) Option {
	return func(o *options) {
		o.depth = depth
		o.hasDepth = true
	}
}

func resolveDepth(def int, opts []Option) int {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.hasDepth {
		return o.depth
	}
	return def
}

// Load returns the entity with the given native id and its neighbourhood up
// to the load depth. Entities already in the session are returned as they
// are, so every load of one node yields the same object.
func (s *Session) Load(ctx context.Context, id int64, opts ...Option) (any, error) {
	if s.db == nil {
		return nil, ErrNoConnection
	}
	stmt := cypher.LoadByID(id, resolveDepth(s.cfg.LoadDepth, opts))
	roots, err := s.query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to load node %d: %w", id, err)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("node %d: %w", id, ErrNotFound)
	}
	return roots[0], nil
}

// LoadAll returns every entity labelled label that passes all filters.
func (s *Session) LoadAll(ctx context.Context, label string, filters []cypher.Filter, opts ...Option) ([]any, error) {
	if s.db == nil {
		return nil, ErrNoConnection
	}
	stmt, err := cypher.LoadAll(label, filters, resolveDepth(s.cfg.LoadDepth, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to build load for %s: %w", label, err)
	}
	roots, err := s.query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", label, err)
	}
	return roots, nil
}

// Load is the typed form of Session.Load. A node mapped to a type that
// embeds T is returned as its embedded T.
func Load[T any](ctx context.Context, s *Session, id int64, opts ...Option) (*T, error) {
	entity, err := s.Load(ctx, id, opts...)
	if err != nil {
		return nil, err
	}
	return as[T](s, entity)
}

// LoadAll is the typed form of Session.LoadAll.
func LoadAll[T any](ctx context.Context, s *Session, filters ...cypher.Filter) ([]*T, error) {
	label, err := metadata.LabelOf[T](s.meta)
	if err != nil {
		return nil, err
	}
	entities, err := s.LoadAll(ctx, label, filters)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(entities))
	for _, e := range entities {
		v, err := as[T](s, e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func as[T any](s *Session, entity any) (*T, error) {
	v, err := s.meta.View(entity, reflect.TypeFor[*T]())
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// Delete removes entity and all its relationships from the store and
// forgets it. Entities that were never saved are only forgotten.
func (s *Session) Delete(ctx context.Context, entity any) error {
	id, ok := s.ctx.IdentityOf(entity)
	if !ok {
		native, hasNative := s.meta.NativeID(entity)
		if !hasNative {
			return nil
		}
		id = mapping.NativeID(native)
	}
	native, ok := id.Native()
	if !ok {
		s.ctx.EvictNode(id)
		return nil
	}
	if s.db == nil {
		return ErrNoConnection
	}

	s.events.EmitEvent(s.events.NewEvent(events.PreDelete, s.id, entity))
	stmt := cypher.DeleteNode(native)
	if _, err := s.db.ExecuteWriteQuery(ctx, stmt.Query, stmt.Params); err != nil {
		slog.Error("delete failed", "session", s.id, "node", native, "error", err)
		return fmt.Errorf("failed to delete node %d: %w", native, err)
	}
	removed := s.ctx.EvictNode(id)
	slog.Debug("node deleted", "session", s.id, "node", native, "relationships", len(removed))

	event := s.events.NewEvent(events.PostDelete, s.id, entity)
	event.Deleted = len(removed)
	s.events.EmitEvent(event)
	return nil
}

// Clear forgets every entity and relationship. Objects returned earlier are
// left as they are but no longer tracked.
func (s *Session) Clear() {
	s.ctx.Clear()
	slog.Debug("session cleared", "session", s.id)
}

// PurgeDatabase deletes every node and relationship in the store and
// clears the session.
func (s *Session) PurgeDatabase(ctx context.Context) error {
	if s.db == nil {
		return ErrNoConnection
	}
	stmt := cypher.Purge()
	if _, err := s.db.ExecuteWriteQuery(ctx, stmt.Query, stmt.Params); err != nil {
		return fmt.Errorf("failed to purge database: %w", err)
	}
	s.Clear()
	slog.Info("database purged", "session", s.id, "database", s.db.GetDatabaseName())
	return nil
}
