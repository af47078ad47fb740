// Package metadata describes how domain types map to nodes and relationships.
//
// Domain types are registered once at startup with Register and
// RegisterRelationshipEntity. Every accessor is a typed function supplied at
// registration, so nothing is discovered from struct tags. A Registry is
// safe for concurrent use once registration is complete.
package metadata

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
)

var (
	ErrUnknownType      = errors.New("type is not registered")
	ErrUnknownLabels    = errors.New("no registered type matches the labels")
	ErrIncompatibleType = errors.New("entity cannot be viewed as the requested type")
	ErrDuplicate        = errors.New("already registered")
	ErrInvalid          = errors.New("invalid registration")
)

// Identifiable is implemented by every node and relationship entity.
type Identifiable interface {
	NativeID() (int64, bool)
	SetNativeID(id int64)
}

// Entity carries the native id of a node or relationship entity. Domain
// types embed it.
type Entity struct {
	ID *int64 `json:"id,omitempty"`
}

// NativeID returns the store id, if the entity was persisted.
func (e *Entity) NativeID() (int64, bool) {
	if e.ID == nil {
		return 0, false
	}
	return *e.ID, true
}

// SetNativeID records the store id.
func (e *Entity) SetNativeID(id int64) {
	e.ID = &id
}

var identifiableType = reflect.TypeFor[Identifiable]()

type nodeDescriptor struct {
	tag           mapping.TypeTag
	typ           reflect.Type
	labels        []string
	create        func() any
	properties    func(any) map[string]any
	hydrate       func(any, map[string]any) error
	dynamicLabels func(any) *[]string
	relations     []relationDescriptor
	views         []func(any) any
}

type relationDescriptor struct {
	name      string
	relType   string
	direction mapping.Direction
	many      bool
	target    reflect.Type
	link      reflect.Type
	values    func(any) []any
	attach    func(owner, value any)
}

// boundRelation is a relation together with the value that declares it,
// which is a view when the relation comes from an embedded type.
type boundRelation struct {
	relationDescriptor
	owner any
}

// Registry holds the mapping of every registered type.
type Registry struct {
	nodes   map[reflect.Type]*nodeDescriptor
	byLabel map[string]*nodeDescriptor
	order   []*nodeDescriptor
	links   map[reflect.Type]*linkDescriptor
	byType  map[string][]*linkDescriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:   make(map[reflect.Type]*nodeDescriptor),
		byLabel: make(map[string]*nodeDescriptor),
		links:   make(map[reflect.Type]*linkDescriptor),
		byType:  make(map[string][]*linkDescriptor),
	}
}

var _ mapping.Metadata = (*Registry)(nil)

// TypeOf returns the primary label of a node entity.
func (r *Registry) TypeOf(entity any) (mapping.TypeTag, error) {
	d, err := r.node(entity)
	if err != nil {
		return "", err
	}
	return d.tag, nil
}

// NativeID returns the store id held by an entity.
func (r *Registry) NativeID(entity any) (int64, bool) {
	if e, ok := entity.(Identifiable); ok && !isNil(entity) {
		return e.NativeID()
	}
	return 0, false
}

// RelationshipID returns the store id held by a relationship entity.
func (r *Registry) RelationshipID(link any) (int64, bool) {
	return r.NativeID(link)
}

// Relations returns the current value of every relation declared by the
// entity's type, followed by those of its views that the type does not
// declare itself.
func (r *Registry) Relations(entity any) ([]mapping.Relation, error) {
	bound, err := r.boundRelations(entity)
	if err != nil {
		return nil, err
	}
	relations := make([]mapping.Relation, 0, len(bound))
	for _, b := range bound {
		rel := mapping.Relation{Name: b.name, Type: b.relType, Direction: b.direction, Many: b.many}
		for _, v := range b.values(b.owner) {
			if b.link == nil {
				rel.Targets = append(rel.Targets, mapping.Target{Entity: v})
				continue
			}
			ld, ok := r.links[b.link]
			if !ok {
				return nil, fmt.Errorf("relation %q uses %s: %w", b.name, b.link, ErrUnknownType)
			}
			var other any
			if b.direction == mapping.Incoming {
				other = ld.start(v)
			} else {
				other = ld.end(v)
			}
			rel.Targets = append(rel.Targets, mapping.Target{Entity: other, Link: v})
		}
		relations = append(relations, rel)
	}
	return relations, nil
}

// Properties returns the persisted properties of a node entity, merged with
// those of its views.
func (r *Registry) Properties(entity any) (map[string]any, error) {
	d, err := r.node(entity)
	if err != nil {
		return nil, err
	}
	props := make(map[string]any)
	for _, v := range d.views {
		view := v(entity)
		vd, err := r.node(view)
		if err != nil {
			return nil, err
		}
		if vd.properties != nil {
			for k, val := range vd.properties(view) {
				props[k] = val
			}
		}
	}
	if d.properties != nil {
		for k, val := range d.properties(entity) {
			props[k] = val
		}
	}
	return props, nil
}

// Labels returns the static labels of entity's type followed by its
// dynamic labels.
func (r *Registry) Labels(entity any) ([]string, error) {
	d, err := r.node(entity)
	if err != nil {
		return nil, err
	}
	labels := slices.Clone(d.labels)
	if d.dynamicLabels != nil {
		for _, l := range *d.dynamicLabels(entity) {
			if !slices.Contains(labels, l) {
				labels = append(labels, l)
			}
		}
	}
	return labels, nil
}

// Label returns the primary label registered for a pointer type.
func (r *Registry) Label(typ reflect.Type) (string, error) {
	d, ok := r.nodes[typ]
	if !ok {
		return "", fmt.Errorf("%s: %w", typ, ErrUnknownType)
	}
	return string(d.tag), nil
}

// TypeForLabel returns the pointer type registered under a primary label.
func (r *Registry) TypeForLabel(label string) (reflect.Type, error) {
	d, ok := r.byLabel[label]
	if !ok {
		return nil, fmt.Errorf("label %q: %w", label, ErrUnknownType)
	}
	return d.typ, nil
}

// LabelOf returns the primary label registered for T.
func LabelOf[T any](r *Registry) (string, error) {
	return r.Label(reflect.TypeFor[*T]())
}

// Instantiate returns a new zero entity of the registered type that best
// matches labels: the one with the most static labels, all present.
func (r *Registry) Instantiate(labels []string) (any, error) {
	var best *nodeDescriptor
	for _, d := range r.order {
		if !containsAll(labels, d.labels) {
			continue
		}
		if best == nil || len(d.labels) > len(best.labels) {
			best = d
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%v: %w", labels, ErrUnknownLabels)
	}
	return best.create(), nil
}

// Hydrate copies stored properties into entity and records the labels it
// carries beyond its static ones.
func (r *Registry) Hydrate(entity any, labels []string, props map[string]any) error {
	d, err := r.node(entity)
	if err != nil {
		return err
	}
	for _, v := range d.views {
		view := v(entity)
		vd, err := r.node(view)
		if err != nil {
			return err
		}
		if vd.hydrate != nil {
			if err := vd.hydrate(view, props); err != nil {
				return fmt.Errorf("failed to hydrate %s: %w", vd.tag, err)
			}
		}
	}
	if d.hydrate != nil {
		if err := d.hydrate(entity, props); err != nil {
			return fmt.Errorf("failed to hydrate %s: %w", d.tag, err)
		}
	}
	if d.dynamicLabels != nil {
		dynamic := d.dynamicLabels(entity)
		*dynamic = (*dynamic)[:0]
		for _, l := range labels {
			if !slices.Contains(d.labels, l) {
				*dynamic = append(*dynamic, l)
			}
		}
	}
	return nil
}

// SetNativeID records the store id assigned to entity.
func (r *Registry) SetNativeID(entity any, id int64) error {
	e, ok := entity.(Identifiable)
	if !ok || isNil(entity) {
		return fmt.Errorf("%T: %w", entity, ErrUnknownType)
	}
	e.SetNativeID(id)
	return nil
}

// Views returns the other Go values that represent the same node as
// entity, such as pointers to embedded entity types.
func (r *Registry) Views(entity any) []any {
	d, err := r.node(entity)
	if err != nil {
		return nil
	}
	views := make([]any, 0, len(d.views))
	for _, v := range d.views {
		views = append(views, v(entity))
	}
	return views
}

// View returns entity as typ, which is either its own type or the type of
// one of its views.
func (r *Registry) View(entity any, typ reflect.Type) (any, error) {
	if reflect.TypeOf(entity) == typ {
		return entity, nil
	}
	for _, v := range r.Views(entity) {
		if reflect.TypeOf(v) == typ {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%T as %s: %w", entity, typ, ErrIncompatibleType)
}

// Link sets the relation fields for a stored relationship between two
// loaded entities. link is the relationship entity, or nil for a simple
// relationship. Relations whose target type does not fit are skipped.
func (r *Registry) Link(start, end any, relType string, link any) error {
	startRelations, err := r.boundRelations(start)
	if err != nil {
		return err
	}
	endRelations, err := r.boundRelations(end)
	if err != nil {
		return err
	}
	for _, b := range startRelations {
		if b.relType == relType && b.direction != mapping.Incoming {
			r.attach(b, end, link)
		}
	}
	if start == end {
		return nil
	}
	for _, b := range endRelations {
		if b.relType == relType && b.direction != mapping.Outgoing {
			r.attach(b, start, link)
		}
	}
	return nil
}

// Undirected reports whether either endpoint declares relType as undirected.
func (r *Registry) Undirected(relType string, start, end any) bool {
	for _, entity := range []any{start, end} {
		bound, err := r.boundRelations(entity)
		if err != nil {
			continue
		}
		for _, b := range bound {
			if b.relType == relType && b.direction == mapping.Undirected {
				return true
			}
		}
	}
	return false
}

func (r *Registry) attach(b boundRelation, other, link any) {
	if b.link != nil {
		if link != nil && reflect.TypeOf(link) == b.link {
			b.attach(b.owner, link)
		}
		return
	}
	target, err := r.View(other, b.target)
	if err != nil {
		return
	}
	b.attach(b.owner, target)
}

func (r *Registry) boundRelations(entity any) ([]boundRelation, error) {
	d, err := r.node(entity)
	if err != nil {
		return nil, err
	}
	bound := make([]boundRelation, 0, len(d.relations))
	names := make(map[string]struct{}, len(d.relations))
	for _, rel := range d.relations {
		bound = append(bound, boundRelation{relationDescriptor: rel, owner: entity})
		names[rel.name] = struct{}{}
	}
	for _, v := range d.views {
		view := v(entity)
		vd, err := r.node(view)
		if err != nil {
			return nil, err
		}
		for _, rel := range vd.relations {
			if _, ok := names[rel.name]; ok {
				continue
			}
			bound = append(bound, boundRelation{relationDescriptor: rel, owner: view})
		}
	}
	return bound, nil
}

func (r *Registry) node(entity any) (*nodeDescriptor, error) {
	d, ok := r.nodes[reflect.TypeOf(entity)]
	if !ok {
		return nil, fmt.Errorf("%T: %w", entity, ErrUnknownType)
	}
	return d, nil
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
