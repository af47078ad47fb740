// Package cypher builds the parameterised statements a session sends to the
// store. Labels, relationship types and property keys are quoted; every
// value travels as a parameter.
package cypher

import (
	"fmt"
	"sort"
	"strings"
)

// Quote returns name as a backtick-quoted Cypher identifier.
func Quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// LabelExpression returns ":`A`:`B`" for the given labels, sorted so the
// same label set always yields the same statement.
func LabelExpression(labels []string) string {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	var b strings.Builder
	for _, l := range sorted {
		b.WriteString(":")
		b.WriteString(Quote(l))
	}
	return b.String()
}

// hops returns the variable length of a load pattern. A negative depth is
// unbounded.
func hops(depth int) string {
	if depth < 0 {
		return "*0.."
	}
	return fmt.Sprintf("*0..%d", depth)
}

// WhereBuilder collects filter conditions and their parameters.
type WhereBuilder struct {
	conditions []string
	params     map[string]any
	varCounter int
}

// NewWhereBuilder creates an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{params: make(map[string]any)}
}

// AddFilter adds "nodeVar.`property` <op> $pN".
func (b *WhereBuilder) AddFilter(nodeVar string, f Filter) error {
	op, ok := operators[f.Operator]
	if !ok {
		return fmt.Errorf("unsupported comparison operator %q", f.Operator)
	}
	if f.Property == "" {
		return fmt.Errorf("filter needs a property")
	}
	param := fmt.Sprintf("p%d", b.varCounter)
	b.varCounter++
	b.conditions = append(b.conditions, fmt.Sprintf("%s.%s %s $%s", nodeVar, Quote(f.Property), op, param))
	b.params[param] = f.Value
	return nil
}

// AddCondition adds a raw condition with one parameter.
func (b *WhereBuilder) AddCondition(condition, param string, value any) {
	b.conditions = append(b.conditions, condition)
	b.params[param] = value
}

// Build returns the WHERE clause, or "" when there are no conditions.
func (b *WhereBuilder) Build() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.conditions, " AND ")
}

// Params returns the parameters referenced by the conditions.
func (b *WhereBuilder) Params() map[string]any {
	return b.params
}

// LoadByID returns every path of up to depth hops from the node with id.
// The first node of each path is the loaded node.
func LoadByID(id int64, depth int) Statement {
	return Statement{
		Query:  fmt.Sprintf("MATCH (n) WHERE id(n) = $id WITH n MATCH p = (n)-[%s]-(m) RETURN p", hops(depth)),
		Params: map[string]any{"id": id},
	}
}

// LoadAll returns the paths of up to depth hops from every node labelled
// label that passes all filters.
func LoadAll(label string, filters []Filter, depth int) (Statement, error) {
	where := NewWhereBuilder()
	for _, f := range filters {
		if err := where.AddFilter("n", f); err != nil {
			return Statement{}, err
		}
	}
	parts := []string{fmt.Sprintf("MATCH (n:%s)", Quote(label))}
	if clause := where.Build(); clause != "" {
		parts = append(parts, clause)
	}
	parts = append(parts,
		fmt.Sprintf("WITH n MATCH p = (n)-[%s]-(m)", hops(depth)),
		"RETURN p")
	return Statement{Query: strings.Join(parts, " "), Params: where.Params()}, nil
}

// CreateNodes creates one node per row with the given labels and returns
// "ref" and "id" for each.
func CreateNodes(labels []string, rows []NodeRow) Statement {
	return Statement{
		Query: fmt.Sprintf("UNWIND $rows AS row CREATE (n%s) SET n = row.props RETURN row.ref AS ref, id(n) AS id",
			LabelExpression(labels)),
		Params: map[string]any{"rows": nodeRows(rows)},
	}
}

// UpdateNodes replaces the properties of existing nodes and adds labels.
// Labels removed from an entity are left on the node.
func UpdateNodes(labels []string, rows []NodeRow) Statement {
	set := "SET n = row.props"
	if len(labels) > 0 {
		set += ", n" + LabelExpression(labels)
	}
	return Statement{
		Query:  "UNWIND $rows AS row MATCH (n) WHERE id(n) = row.ref " + set,
		Params: map[string]any{"rows": nodeRows(rows)},
	}
}

// MergeRelationships creates simple relationships that do not exist yet.
func MergeRelationships(relType string, rows []RelationshipRow) Statement {
	return Statement{
		Query: "UNWIND $rows AS row MATCH (s) WHERE id(s) = row.start MATCH (e) WHERE id(e) = row.end " +
			fmt.Sprintf("MERGE (s)-[r:%s]->(e)", Quote(relType)),
		Params: map[string]any{"rows": relationshipRows(rows)},
	}
}

// CreateRelationships creates relationships with properties and returns
// "ref" and "id" for each.
func CreateRelationships(relType string, rows []RelationshipRow) Statement {
	return Statement{
		Query: "UNWIND $rows AS row MATCH (s) WHERE id(s) = row.start MATCH (e) WHERE id(e) = row.end " +
			fmt.Sprintf("CREATE (s)-[r:%s]->(e) SET r = row.props RETURN row.ref AS ref, id(r) AS id", Quote(relType)),
		Params: map[string]any{"rows": relationshipRows(rows)},
	}
}

// UpdateRelationships replaces the properties of relationships by id. Ref
// holds the relationship id.
func UpdateRelationships(rows []RelationshipRow) Statement {
	return Statement{
		Query:  "UNWIND $rows AS row MATCH ()-[r]->() WHERE id(r) = row.ref SET r = row.props",
		Params: map[string]any{"rows": relationshipRows(rows)},
	}
}

// DeleteRelationships deletes relationships of relType between the given
// endpoints.
func DeleteRelationships(relType string, rows []RelationshipRow) Statement {
	return Statement{
		Query: fmt.Sprintf("UNWIND $rows AS row MATCH (s)-[r:%s]->(e) WHERE id(s) = row.start AND id(e) = row.end DELETE r",
			Quote(relType)),
		Params: map[string]any{"rows": relationshipRows(rows)},
	}
}

// DeleteRelationshipsByID deletes relationships by id.
func DeleteRelationshipsByID(ids []int64) Statement {
	return Statement{
		Query:  "MATCH ()-[r]->() WHERE id(r) IN $ids DELETE r",
		Params: map[string]any{"ids": ids},
	}
}

// DeleteNode deletes a node and every relationship touching it.
func DeleteNode(id int64) Statement {
	return Statement{
		Query:  "MATCH (n) WHERE id(n) = $id DETACH DELETE n",
		Params: map[string]any{"id": id},
	}
}

// Purge deletes every node and relationship.
func Purge() Statement {
	return Statement{Query: "MATCH (n) DETACH DELETE n", Params: map[string]any{}}
}

func nodeRows(rows []NodeRow) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]any{"ref": r.Ref, "props": props(r.Props)})
	}
	return out
}

func relationshipRows(rows []RelationshipRow) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]any{"ref": r.Ref, "start": r.Start, "end": r.End, "props": props(r.Props)})
	}
	return out
}

func props(p map[string]any) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return p
}
