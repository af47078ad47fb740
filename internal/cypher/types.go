package cypher

import (
	"fmt"
	"strings"
)

// Statement is one parameterised Cypher statement.
type Statement struct {
	Query  string
	Params map[string]any
}

// ComparisonOperator is the operator of a property filter.
type ComparisonOperator string

const (
	Equals           ComparisonOperator = "EQUALS"
	NotEquals        ComparisonOperator = "NOT_EQUALS"
	GreaterThan      ComparisonOperator = "GREATER_THAN"
	GreaterThanEqual ComparisonOperator = "GREATER_THAN_EQUAL"
	LessThan         ComparisonOperator = "LESS_THAN"
	LessThanEqual    ComparisonOperator = "LESS_THAN_EQUAL"
	StartingWith     ComparisonOperator = "STARTING_WITH"
	Containing       ComparisonOperator = "CONTAINING"
)

var operators = map[ComparisonOperator]string{
	Equals:           "=",
	NotEquals:        "<>",
	GreaterThan:      ">",
	GreaterThanEqual: ">=",
	LessThan:         "<",
	LessThanEqual:    "<=",
	StartingWith:     "STARTS WITH",
	Containing:       "CONTAINS",
}

// ParseOperator accepts an operator name in any case.
func ParseOperator(s string) (ComparisonOperator, error) {
	op := ComparisonOperator(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := operators[op]; !ok {
		return "", fmt.Errorf("unsupported comparison operator %q", s)
	}
	return op, nil
}

// Filter restricts LoadAll to nodes whose property compares to Value.
type Filter struct {
	Property string             `json:"property"`
	Operator ComparisonOperator `json:"operator"`
	Value    any                `json:"value"`
}

// NewFilter returns an EQUALS filter.
func NewFilter(property string, value any) Filter {
	return Filter{Property: property, Operator: Equals, Value: value}
}

// NodeRow is one node of a batched node write. Ref identifies the row in
// the results: the temporary id for creates, the native id for updates.
type NodeRow struct {
	Ref   int64
	Props map[string]any
}

// RelationshipRow is one relationship of a batched relationship write.
// Start and End are native node ids.
type RelationshipRow struct {
	Ref   int64
	Start int64
	End   int64
	Props map[string]any
}
