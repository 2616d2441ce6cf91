// Package ties models tie relationships between noteheads as a forest:
// every secondary notehead has exactly one primary, and following
// primary -> secondary links never returns to where it started.
package ties

import (
	"errors"
	"fmt"

	"github.com/himanishpuri/ScoreSync/internal/model"
)

var (
	// ErrCycle is returned when tie edges loop back on themselves.
	ErrCycle = errors.New("tie graph contains a cycle")
	// ErrMultiplePrimaries is returned when one notehead continues two different notes.
	ErrMultiplePrimaries = errors.New("secondary has more than one primary")
)

// Forest is an immutable, validated tie graph.
type Forest struct {
	children map[string][]string
	parent   map[string]string
}

// NewForest validates edges and builds the forest. Exact duplicate edges
// are collapsed.
func NewForest(edges []model.TieEdge) (*Forest, error) {
	f := &Forest{
		children: make(map[string][]string),
		parent:   make(map[string]string),
	}

	for _, e := range edges {
		if e.Primary == e.Secondary {
			return nil, fmt.Errorf("%w: %s is tied to itself", ErrCycle, e.Primary)
		}
		if p, ok := f.parent[e.Secondary]; ok {
			if p == e.Primary {
				continue
			}
			return nil, fmt.Errorf("%w: %s continues both %s and %s", ErrMultiplePrimaries, e.Secondary, p, e.Primary)
		}
		f.parent[e.Secondary] = e.Primary
		f.children[e.Primary] = append(f.children[e.Primary], e.Secondary)
	}

	// With one parent per node, a cycle shows up as a walk up the parent
	// links that revisits a node.
	done := make(map[string]bool, len(f.parent))
	for start := range f.parent {
		if done[start] {
			continue
		}
		seen := map[string]bool{}
		for cur := start; ; {
			if done[cur] {
				break
			}
			if seen[cur] {
				return nil, fmt.Errorf("%w: through %s", ErrCycle, cur)
			}
			seen[cur] = true
			p, ok := f.parent[cur]
			if !ok {
				break
			}
			cur = p
		}
		for n := range seen {
			done[n] = true
		}
	}

	return f, nil
}

// IsSecondary reports whether href continues another notehead.
func (f *Forest) IsSecondary(href string) bool {
	if f == nil {
		return false
	}
	_, ok := f.parent[href]
	return ok
}

// Primary returns the notehead href is tied from, if any.
func (f *Forest) Primary(href string) (string, bool) {
	if f == nil {
		return "", false
	}
	p, ok := f.parent[href]
	return p, ok
}

// Len is the number of distinct tie edges.
func (f *Forest) Len() int {
	if f == nil {
		return 0
	}
	return len(f.parent)
}

// Chain returns href followed by every notehead reachable through tie
// edges, breadth first, siblings in the order their edges were given.
func (f *Forest) Chain(href string) []string {
	group := []string{href}
	if f == nil {
		return group
	}
	visited := map[string]bool{href: true}
	queue := []string{href}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, sec := range f.children[cur] {
			if visited[sec] {
				continue
			}
			visited[sec] = true
			group = append(group, sec)
			queue = append(queue, sec)
		}
	}
	return group
}
