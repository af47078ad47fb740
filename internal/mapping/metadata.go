package mapping

// Direction is the navigability a domain type declares for a relation.
type Direction int

const (
	// Outgoing relations start at the declaring entity.
	Outgoing Direction = iota
	// Incoming relations end at the declaring entity.
	Incoming
	// Undirected relations are stored in one direction but matched in both.
	Undirected
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "OUTGOING"
	case Incoming:
		return "INCOMING"
	case Undirected:
		return "UNDIRECTED"
	default:
		return "UNKNOWN"
	}
}

// Relation is the current value of one relation field of an entity.
// Targets is empty when the field is unset, which still declares the relation.
type Relation struct {
	Name      string
	Type      string
	Direction Direction
	Many      bool
	Targets   []Target
}

// Target is one related node. Link holds the relationship entity backing the
// edge and is nil for simple relationships.
type Target struct {
	Entity any
	Link   any
}

// Metadata is the capability the context needs from the object mapping
// layer. Entities are pointers to registered domain types.
type Metadata interface {
	// TypeOf returns the type tag of a node entity.
	TypeOf(entity any) (TypeTag, error)
	// NativeID returns the store id held by a node entity, if it has one.
	NativeID(entity any) (int64, bool)
	// RelationshipID returns the store id held by a relationship entity, if it has one.
	RelationshipID(link any) (int64, bool)
	// Relations returns every relation declared by the entity's type.
	Relations(entity any) ([]Relation, error)
	// Properties returns the persisted properties of a node entity.
	Properties(entity any) (map[string]any, error)
	// Views returns the other registered values that represent the same
	// node as entity, such as pointers to its embedded entities.
	Views(entity any) []any
}
