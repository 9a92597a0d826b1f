package assertion

import "digital.vasic.oracle/pkg/record"

// Grouping maps assertion ids to their groups and remembers the
// order in which ids were first seen. It is not safe for
// concurrent use.
type Grouping struct {
	groups map[string]*Group
	order  []string
}

// NewGrouping creates an empty Grouping.
func NewGrouping() *Grouping {
	return &Grouping{groups: make(map[string]*Group)}
}

// GroupInstances groups instances in input order.
func GroupInstances(instances []record.AssertionInstance) *Grouping {
	g := NewGrouping()
	for _, inst := range instances {
		g.Add(inst)
	}
	return g
}

// Add routes inst to the group of its id.
func (g *Grouping) Add(inst record.AssertionInstance) {
	grp, ok := g.groups[inst.ID]
	if !ok {
		grp = &Group{ID: inst.ID}
		g.groups[inst.ID] = grp
		g.order = append(g.order, inst.ID)
	}
	grp.Add(inst)
}

// Len returns the number of distinct ids.
func (g *Grouping) Len() int {
	return len(g.order)
}

// Get returns the group for id, if any.
func (g *Grouping) Get(id string) (*Group, bool) {
	grp, ok := g.groups[id]
	return grp, ok
}

// Groups returns the groups in first-seen order.
func (g *Grouping) Groups() []*Group {
	out := make([]*Group, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.groups[id])
	}
	return out
}
