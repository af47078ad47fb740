// Package domain wires the example domains into one metadata registry.
package domain

import (
	"fmt"

	"github.com/mkd-neo4j/neo4j-ogm/internal/domain/cinema"
	"github.com/mkd-neo4j/neo4j-ogm/internal/domain/election"
	"github.com/mkd-neo4j/neo4j-ogm/internal/domain/world"
	"github.com/mkd-neo4j/neo4j-ogm/internal/metadata"
)

// NewRegistry returns a registry holding every example domain.
func NewRegistry() (*metadata.Registry, error) {
	reg := metadata.NewRegistry()
	domains := []struct {
		name     string
		register func(*metadata.Registry) error
	}{
		{"election", election.Register},
		{"world", world.Register},
		{"cinema", cinema.Register},
	}
	for _, d := range domains {
		if err := d.register(reg); err != nil {
			return nil, fmt.Errorf("failed to register %s domain: %w", d.name, err)
		}
	}
	return reg, nil
}

// MustNewRegistry is like NewRegistry but panics if a domain fails to
// register.
func MustNewRegistry() *metadata.Registry {
	reg, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return reg
}
