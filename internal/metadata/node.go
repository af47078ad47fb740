package metadata

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
)

// Node describes how *T maps to a node.
type Node[T any] struct {
	// Label is the primary label. It also names the type in type tags.
	Label string
	// Labels are additional static labels.
	Labels []string
	// Properties returns the persisted properties. Nil means none.
	Properties func(*T) map[string]any
	// Hydrate copies stored properties into a loaded value.
	Hydrate func(*T, map[string]any) error
	// DynamicLabels points at the field holding labels beyond the static ones.
	DynamicLabels func(*T) *[]string
	Relations     []Relation[T]
	// Views return other registered entity values sharing the node, such as
	// a pointer to an embedded entity. Their relations and properties are
	// merged into those of T.
	Views []func(*T) any
}

// Relation describes one relation field of T. Build it with One, Many or Links.
type Relation[T any] struct {
	name      string
	relType   string
	direction mapping.Direction
	many      bool
	target    reflect.Type
	link      reflect.Type
	values    func(*T) []any
	attach    func(*T, any)
}

// One declares a single-valued relation to *U.
func One[T, U any](name, relType string, direction mapping.Direction, field func(*T) **U) Relation[T] {
	return Relation[T]{
		name:      name,
		relType:   relType,
		direction: direction,
		target:    reflect.TypeFor[*U](),
		values: func(e *T) []any {
			if v := *field(e); v != nil {
				return []any{v}
			}
			return nil
		},
		attach: func(e *T, v any) {
			*field(e) = v.(*U)
		},
	}
}

// Many declares a collection relation to *U.
func Many[T, U any](name, relType string, direction mapping.Direction, field func(*T) *[]*U) Relation[T] {
	return Relation[T]{
		name:      name,
		relType:   relType,
		direction: direction,
		many:      true,
		target:    reflect.TypeFor[*U](),
		values: func(e *T) []any {
			var out []any
			for _, v := range *field(e) {
				if v != nil {
					out = append(out, v)
				}
			}
			return out
		},
		attach: func(e *T, v any) {
			s := field(e)
			if !slices.Contains(*s, v.(*U)) {
				*s = append(*s, v.(*U))
			}
		},
	}
}

// Links declares a collection of relationship entities *L. An outgoing
// relation reaches the end node of each link, an incoming one its start.
func Links[T, L any](name, relType string, direction mapping.Direction, field func(*T) *[]*L) Relation[T] {
	rel := Many[T, L](name, relType, direction, field)
	rel.target = nil
	rel.link = reflect.TypeFor[*L]()
	return rel
}

func (rel Relation[T]) erase() relationDescriptor {
	return relationDescriptor{
		name:      rel.name,
		relType:   rel.relType,
		direction: rel.direction,
		many:      rel.many,
		target:    rel.target,
		link:      rel.link,
		values:    func(e any) []any { return rel.values(e.(*T)) },
		attach:    func(e, v any) { rel.attach(e.(*T), v) },
	}
}

// Register adds *T to the registry.
func Register[T any](r *Registry, n Node[T]) error {
	typ := reflect.TypeFor[*T]()
	if n.Label == "" {
		return fmt.Errorf("%s has no label: %w", typ, ErrInvalid)
	}
	if !typ.Implements(identifiableType) {
		return fmt.Errorf("%s does not implement Identifiable: %w", typ, ErrInvalid)
	}
	if _, ok := r.nodes[typ]; ok {
		return fmt.Errorf("%s: %w", typ, ErrDuplicate)
	}
	if _, ok := r.byLabel[n.Label]; ok {
		return fmt.Errorf("label %q: %w", n.Label, ErrDuplicate)
	}

	d := &nodeDescriptor{
		tag:    mapping.TypeTag(n.Label),
		typ:    typ,
		labels: append([]string{n.Label}, n.Labels...),
		create: func() any { return new(T) },
	}
	if n.Properties != nil {
		d.properties = func(e any) map[string]any { return n.Properties(e.(*T)) }
	}
	if n.Hydrate != nil {
		d.hydrate = func(e any, props map[string]any) error { return n.Hydrate(e.(*T), props) }
	}
	if n.DynamicLabels != nil {
		d.dynamicLabels = func(e any) *[]string { return n.DynamicLabels(e.(*T)) }
	}
	for _, rel := range n.Relations {
		if rel.values == nil || rel.relType == "" {
			return fmt.Errorf("%s relation %q: %w", typ, rel.name, ErrInvalid)
		}
		d.relations = append(d.relations, rel.erase())
	}
	for _, view := range n.Views {
		d.views = append(d.views, func(e any) any { return view(e.(*T)) })
	}

	r.nodes[typ] = d
	r.byLabel[n.Label] = d
	r.order = append(r.order, d)
	return nil
}

// MustRegister is Register for package initialisation; it panics on error.
func MustRegister[T any](r *Registry, n Node[T]) {
	if err := Register(r, n); err != nil {
		panic(err)
	}
}
