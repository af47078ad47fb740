package metadata

import (
	"reflect"
	"sort"

	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
)

// TypeDescription summarises a registered node type.
type TypeDescription struct {
	Label         string                `json:"label"`
	Labels        []string              `json:"labels"`
	GoType        string                `json:"goType"`
	DynamicLabels bool                  `json:"dynamicLabels"`
	Relations     []RelationDescription `json:"relations"`
	Views         int                   `json:"views,omitempty"`
}

// RelationDescription summarises a relation field.
type RelationDescription struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Direction string `json:"direction"`
	Many      bool   `json:"many"`
	Target    string `json:"target,omitempty"`
	Link      string `json:"relationshipEntity,omitempty"`
}

// LinkDescription summarises a relationship entity type.
type LinkDescription struct {
	Type   string `json:"type"`
	GoType string `json:"goType"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// Description is the full mapping held by a registry.
type Description struct {
	Nodes                []TypeDescription `json:"nodes"`
	RelationshipEntities []LinkDescription `json:"relationshipEntities"`
}

// Describe returns the registered mapping, ordered by label.
func (r *Registry) Describe() Description {
	var desc Description
	for _, d := range r.order {
		td := TypeDescription{
			Label:         string(d.tag),
			Labels:        d.labels,
			GoType:        d.typ.String(),
			DynamicLabels: d.dynamicLabels != nil,
			Views:         len(d.views),
			Relations:     []RelationDescription{},
		}
		for _, rel := range d.relations {
			rd := RelationDescription{
				Name:      rel.name,
				Type:      rel.relType,
				Direction: rel.direction.String(),
				Many:      rel.many,
			}
			if rel.link != nil {
				rd.Link = rel.link.String()
				if ld, ok := r.links[rel.link]; ok {
					if rel.direction == mapping.Incoming {
						rd.Target = r.nameOf(ld.startType)
					} else {
						rd.Target = r.nameOf(ld.endType)
					}
				}
			} else {
				rd.Target = r.nameOf(rel.target)
			}
			td.Relations = append(td.Relations, rd)
		}
		desc.Nodes = append(desc.Nodes, td)
	}
	for _, d := range r.links {
		desc.RelationshipEntities = append(desc.RelationshipEntities, LinkDescription{
			Type:   d.relType,
			GoType: d.typ.String(),
			Start:  r.nameOf(d.startType),
			End:    r.nameOf(d.endType),
		})
	}
	sort.Slice(desc.Nodes, func(i, j int) bool { return desc.Nodes[i].Label < desc.Nodes[j].Label })
	sort.Slice(desc.RelationshipEntities, func(i, j int) bool {
		return desc.RelationshipEntities[i].GoType < desc.RelationshipEntities[j].GoType
	})
	return desc
}

func (r *Registry) nameOf(typ reflect.Type) string {
	if d, ok := r.nodes[typ]; ok {
		return string(d.tag)
	}
	return typ.String()
}
