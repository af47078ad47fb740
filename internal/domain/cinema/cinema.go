// Package cinema maps people, the movies they rate and their friendships.
package cinema

import (
	"github.com/mkd-neo4j/neo4j-ogm/internal/mapping"
	"github.com/mkd-neo4j/neo4j-ogm/internal/metadata"
)

const (
	Rated  = "RATED"
	Friend = "FRIEND"
)

type Person struct {
	metadata.Entity
	Name    string
	Friends []*Person
	Ratings []*Rating
	// Labels holds labels beyond Person, such as Critic.
	Labels []string
}

type Movie struct {
	metadata.Entity
	Title    string
	Released int64
	Ratings  []*Rating
}

// Rating is a RATED relationship with its own properties.
type Rating struct {
	metadata.Entity
	Person  *Person
	Movie   *Movie
	Stars   int64
	Comment string
}

func NewPerson(name string) *Person {
	return &Person{Name: name}
}

func NewMovie(title string, released int64) *Movie {
	return &Movie{Title: title, Released: released}
}

// Rate records a rating on both ends.
func (p *Person) Rate(m *Movie, stars int64, comment string) *Rating {
	r := &Rating{Person: p, Movie: m, Stars: stars, Comment: comment}
	p.Ratings = append(p.Ratings, r)
	m.Ratings = append(m.Ratings, r)
	return r
}

// Befriend records a friendship on both ends.
func (p *Person) Befriend(other *Person) {
	p.Friends = append(p.Friends, other)
	other.Friends = append(other.Friends, p)
}

// Register adds the cinema types to reg.
func Register(reg *metadata.Registry) error {
	err := metadata.Register(reg, metadata.Node[Person]{
		Label: "Person",
		Properties: func(p *Person) map[string]any {
			return map[string]any{"name": p.Name}
		},
		Hydrate: func(p *Person, props map[string]any) (err error) {
			p.Name, err = metadata.String(props, "name")
			return err
		},
		DynamicLabels: func(p *Person) *[]string { return &p.Labels },
		Relations: []metadata.Relation[Person]{
			metadata.Many[Person, Person]("friends", Friend, mapping.Undirected,
				func(p *Person) *[]*Person { return &p.Friends }),
			metadata.Links[Person, Rating]("ratings", Rated, mapping.Outgoing,
				func(p *Person) *[]*Rating { return &p.Ratings }),
		},
	})
	if err != nil {
		return err
	}
	err = metadata.Register(reg, metadata.Node[Movie]{
		Label: "Movie",
		Properties: func(m *Movie) map[string]any {
			return map[string]any{"title": m.Title, "released": m.Released}
		},
		Hydrate: func(m *Movie, props map[string]any) (err error) {
			if m.Title, err = metadata.String(props, "title"); err != nil {
				return err
			}
			m.Released, err = metadata.Int64(props, "released")
			return err
		},
		Relations: []metadata.Relation[Movie]{
			metadata.Links[Movie, Rating]("ratings", Rated, mapping.Incoming,
				func(m *Movie) *[]*Rating { return &m.Ratings }),
		},
	})
	if err != nil {
		return err
	}
	return metadata.RegisterRelationshipEntity(reg, metadata.RelationshipEntity[Rating, Person, Movie]{
		Type:  Rated,
		Start: func(r *Rating) **Person { return &r.Person },
		End:   func(r *Rating) **Movie { return &r.Movie },
		Properties: func(r *Rating) map[string]any {
			return map[string]any{"stars": r.Stars, "comment": r.Comment}
		},
		Hydrate: func(r *Rating, props map[string]any) (err error) {
			if r.Stars, err = metadata.Int64(props, "stars"); err != nil {
				return err
			}
			r.Comment, err = metadata.String(props, "comment")
			return err
		},
	})
}
