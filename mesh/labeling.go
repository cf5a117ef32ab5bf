package mesh

import (
	"fmt"
	"sort"
)

/*
Labeling assigns an entity id to every vertex, edge and cell of a mesh and
binds tag names to sets of entity ids. A Labeling is never modified after it
is built: WithTag and Relabel return updated copies.
*/
type Labeling struct {
	Entities [][]int         // [dim][facet] -> entity id
	Tags     map[string][]int // tag -> entity ids
}

// NewLabeling places every facet in entity 0 and tags it "interior"
func NewLabeling(counts []int) (l *Labeling) {
	l = &Labeling{
		Entities: make([][]int, len(counts)),
		Tags:     map[string][]int{"interior": {0}},
	}
	for d, n := range counts {
		l.Entities[d] = make([]int, n)
	}
	return
}

func (l *Labeling) clone() (c *Labeling) {
	c = &Labeling{
		Entities: make([][]int, len(l.Entities)),
		Tags:     make(map[string][]int, len(l.Tags)),
	}
	for d, ents := range l.Entities {
		c.Entities[d] = append([]int(nil), ents...)
	}
	for name, ents := range l.Tags {
		c.Tags[name] = append([]int(nil), ents...)
	}
	return
}

// MaxEntity is the largest entity id in use by a facet or a tag
func (l *Labeling) MaxEntity() (max int) {
	for _, ents := range l.Entities {
		for _, e := range ents {
			if e > max {
				max = e
			}
		}
	}
	for _, ents := range l.Tags {
		for _, e := range ents {
			if e > max {
				max = e
			}
		}
	}
	return
}

func (l *Labeling) HasTag(name string) bool {
	_, ok := l.Tags[name]
	return ok
}

func (l *Labeling) TagEntities(name string) (ents []int, ok bool) {
	ents, ok = l.Tags[name]
	return
}

// TagNames returns the tag names in sorted order
func (l *Labeling) TagNames() (names []string) {
	for name := range l.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// TagMask marks the facets of dimension d whose entity belongs to any of the named tags
func (l *Labeling) TagMask(d int, names ...string) (mask []bool) {
	inTag := make(map[int]bool)
	for _, name := range names {
		for _, e := range l.Tags[name] {
			inTag[e] = true
		}
	}
	mask = make([]bool, len(l.Entities[d]))
	for f, e := range l.Entities[d] {
		mask[f] = inTag[e]
	}
	return
}

// FacetsWithTag lists the facets of dimension d carrying the tag
func (l *Labeling) FacetsWithTag(d int, name string) (facets []int) {
	for f, isTagged := range l.TagMask(d, name) {
		if isTagged {
			facets = append(facets, f)
		}
	}
	return
}

// WithTag returns a copy with the tag bound to the given entities, replacing any previous binding
func (l *Labeling) WithTag(name string, entities ...int) (c *Labeling) {
	c = l.clone()
	ents := append([]int(nil), entities...)
	sort.Ints(ents)
	c.Tags[name] = ents
	return
}

// Relabel returns a copy where the listed facets of dimension d belong to entity
func (l *Labeling) Relabel(d int, facets []int, entity int) (c *Labeling, err error) {
	if d < 0 || d >= len(l.Entities) {
		err = fmt.Errorf("dimension %d outside labeling of dimension %d", d, len(l.Entities)-1)
		return
	}
	c = l.clone()
	for _, f := range facets {
		if f < 0 || f >= len(c.Entities[d]) {
			err = fmt.Errorf("facet %d outside [0,%d) for dimension %d", f, len(c.Entities[d]), d)
			return nil, err
		}
		c.Entities[d][f] = entity
	}
	return
}

// Restrict builds the labeling of a sub-mesh from its facet to parent facet maps
func (l *Labeling) Restrict(facetToParent [][]int) (c *Labeling) {
	c = &Labeling{
		Entities: make([][]int, len(facetToParent)),
		Tags:     make(map[string][]int, len(l.Tags)),
	}
	for d, toParent := range facetToParent {
		c.Entities[d] = make([]int, len(toParent))
		for f, pf := range toParent {
			c.Entities[d][f] = l.Entities[d][pf]
		}
	}
	for name, ents := range l.Tags {
		c.Tags[name] = append([]int(nil), ents...)
	}
	return
}
