// Package election maps voters and candidates. A candidate is also a voter
// and may vote for itself.
package election

import (
	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
	"github.com/mkd-neo4j/neo4j-ogm/internal/metadata"
)

const VotedFor = "CANDIDATE_VOTED_FOR"

type Voter struct {
	metadata.Entity
	Name     string
	VotedFor *Candidate
}

// Candidate embeds Voter; a loaded candidate is also reachable as its Voter.
type Candidate struct {
	Voter
}

func NewVoter(name string) *Voter {
	return &Voter{Name: name}
}

func NewCandidate(name string) *Candidate {
	return &Candidate{Voter: Voter{Name: name}}
}

// Register adds the election types to reg.
func Register(reg *metadata.Registry) error {
	err := metadata.Register(reg, metadata.Node[Voter]{
		Label: "Voter",
		Properties: func(v *Voter) map[string]any {
			return map[string]any{"name": v.Name}
		},
		Hydrate: func(v *Voter, props map[string]any) (err error) {
			v.Name, err = metadata.String(props, "name")
			return err
		},
		Relations: []metadata.Relation[Voter]{
			metadata.One[Voter, Candidate]("votedFor", VotedFor, mapping.Outgoing,
				func(v *Voter) **Candidate { return &v.VotedFor }),
		},
	})
	if err != nil {
		return err
	}
	return metadata.Register(reg, metadata.Node[Candidate]{
		Label:  "Candidate",
		Labels: []string{"Voter"},
		Views:  []func(*Candidate) any{func(c *Candidate) any { return &c.Voter }},
	})
}
