// Package world maps worlds reachable from each other by rocket.
package world

import (
	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
	"github.com/mkd-neo4j/neo4j-ogm/internal/metadata"
)

const ReachableByRocket = "REACHABLE_BY_ROCKET"

type World struct {
	metadata.Entity
	Name      string
	Moons     int64
	Reachable []*World
}

func New(name string, moons int64) *World {
	return &World{Name: name, Moons: moons}
}

// Register adds World to reg.
func Register(reg *metadata.Registry) error {
	return metadata.Register(reg, metadata.Node[World]{
		Label: "World",
		Properties: func(w *World) map[string]any {
			return map[string]any{"name": w.Name, "moons": w.Moons}
		},
		Hydrate: func(w *World, props map[string]any) (err error) {
			if w.Name, err = metadata.String(props, "name"); err != nil {
				return err
			}
			w.Moons, err = metadata.Int64(props, "moons")
			return err
		},
		Relations: []metadata.Relation[World]{
			metadata.Many[World, World]("reachable", ReachableByRocket, mapping.Undirected,
				func(w *World) *[]*World { return &w.Reachable }),
		},
	})
}
