package metadata

import (
	"fmt"
	"reflect"
)

// RelationshipEntity describes how *L maps to a relationship with its own
// properties between a *S start node and a *E end node.
type RelationshipEntity[L, S, E any] struct {
	Type       string
	Start      func(*L) **S
	End        func(*L) **E
	Properties func(*L) map[string]any
	Hydrate    func(*L, map[string]any) error
}

type linkDescriptor struct {
	relType    string
	typ        reflect.Type
	startType  reflect.Type
	endType    reflect.Type
	create     func() any
	start      func(any) any
	end        func(any) any
	setStart   func(link, node any)
	setEnd     func(link, node any)
	properties func(any) map[string]any
	hydrate    func(any, map[string]any) error
}

// RegisterRelationshipEntity adds *L to the registry.
func RegisterRelationshipEntity[L, S, E any](r *Registry, re RelationshipEntity[L, S, E]) error {
	typ := reflect.TypeFor[*L]()
	if re.Type == "" || re.Start == nil || re.End == nil {
		return fmt.Errorf("%s needs a type and both endpoints: %w", typ, ErrInvalid)
	}
	if !typ.Implements(identifiableType) {
		return fmt.Errorf("%s does not implement Identifiable: %w", typ, ErrInvalid)
	}
	if _, ok := r.links[typ]; ok {
		return fmt.Errorf("%s: %w", typ, ErrDuplicate)
	}

	d := &linkDescriptor{
		relType:   re.Type,
		typ:       typ,
		startType: reflect.TypeFor[*S](),
		endType:   reflect.TypeFor[*E](),
		create:    func() any { return new(L) },
		start: func(l any) any {
			if s := *re.Start(l.(*L)); s != nil {
				return s
			}
			return nil
		},
		end: func(l any) any {
			if e := *re.End(l.(*L)); e != nil {
				return e
			}
			return nil
		},
		setStart: func(l, n any) { *re.Start(l.(*L)) = n.(*S) },
		setEnd:   func(l, n any) { *re.End(l.(*L)) = n.(*E) },
	}
	if re.Properties != nil {
		d.properties = func(l any) map[string]any { return re.Properties(l.(*L)) }
	}
	if re.Hydrate != nil {
		d.hydrate = func(l any, props map[string]any) error { return re.Hydrate(l.(*L), props) }
	}

	r.links[typ] = d
	r.byType[re.Type] = append(r.byType[re.Type], d)
	return nil
}

// MustRegisterRelationshipEntity is RegisterRelationshipEntity for package
// initialisation; it panics on error.
func MustRegisterRelationshipEntity[L, S, E any](r *Registry, re RelationshipEntity[L, S, E]) {
	if err := RegisterRelationshipEntity(r, re); err != nil {
		panic(err)
	}
}

// IsRelationshipEntity reports whether link is a registered relationship entity.
func (r *Registry) IsRelationshipEntity(link any) bool {
	_, ok := r.links[reflect.TypeOf(link)]
	return ok
}

// NewRelationshipEntity builds the relationship entity for a stored
// relationship of relType between two loaded nodes. It reports false when
// no relationship entity fits, in which case the relationship is simple.
func (r *Registry) NewRelationshipEntity(relType string, id int64, props map[string]any, start, end any) (any, bool, error) {
	for _, d := range r.byType[relType] {
		s, err := r.View(start, d.startType)
		if err != nil {
			continue
		}
		e, err := r.View(end, d.endType)
		if err != nil {
			continue
		}
		link := d.create()
		if d.hydrate != nil {
			if err := d.hydrate(link, props); err != nil {
				return nil, false, fmt.Errorf("failed to hydrate %s: %w", relType, err)
			}
		}
		d.setStart(link, s)
		d.setEnd(link, e)
		link.(Identifiable).SetNativeID(id)
		return link, true, nil
	}
	return nil, false, nil
}

// LinkProperties returns the persisted properties of a relationship entity.
func (r *Registry) LinkProperties(link any) (map[string]any, error) {
	d, ok := r.links[reflect.TypeOf(link)]
	if !ok {
		return nil, fmt.Errorf("%T: %w", link, ErrUnknownType)
	}
	if d.properties == nil {
		return map[string]any{}, nil
	}
	return d.properties(link), nil
}
