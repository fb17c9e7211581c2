package inventory

import (
	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// GroupNames returns the names of all groups, sorted.
func (inv *Inventory) GroupNames() []string {
	return inv.st.groupNames()
}

// Group returns a copy of the named group.
func (inv *Inventory) Group(name string) (*Group, error) {
	g, err := lookupGroup(inv.st, name)
	if err != nil {
		return nil, err
	}
	return g.clone(), nil
}

// GroupAdd creates an empty group.
func (inv *Inventory) GroupAdd(name string) error {
	if name == "" {
		return model.MalformedInput("group name must not be empty")
	}
	return inv.mutate(func(s *state) error {
		if _, ok := s.groups[name]; ok {
			return model.MalformedInput("group %q already exists", name)
		}
		s.groups[name] = newGroup()
		return nil
	})
}

// GroupDel removes a group. Its children are handed over to each of its
// parents, so hosts reachable through the parents stay reachable.
func (inv *Inventory) GroupDel(name string) error {
	return inv.mutate(func(s *state) error {
		g, err := lookupGroup(s, name)
		if err != nil {
			return err
		}
		for _, parent := range s.parentsOf(name) {
			p := s.groups[parent]
			p.children.Remove(name)
			for _, child := range g.Children() {
				p.children.Add(child)
			}
		}
		delete(s.groups, name)
		return nil
	})
}

// GroupChildAdd makes child a child group of group. Links that would close
// a cycle are rejected.
func (inv *Inventory) GroupChildAdd(group, child string) error {
	return inv.mutate(func(s *state) error {
		g, err := lookupGroup(s, group)
		if err != nil {
			return err
		}
		if _, err := lookupGroup(s, child); err != nil {
			return err
		}
		if s.reaches(child, group) {
			return model.MalformedInput("group %q cannot be a child of %q: it would create a cycle", child, group)
		}
		return g.addChild(child)
	})
}

// GroupChildDel removes child from the child groups of group.
func (inv *Inventory) GroupChildDel(group, child string) error {
	return inv.mutate(func(s *state) error {
		g, err := lookupGroup(s, group)
		if err != nil {
			return err
		}
		return g.deleteChild(child)
	})
}

// GroupHostAdd declares host a member of group.
func (inv *Inventory) GroupHostAdd(group, host string) error {
	return inv.mutate(func(s *state) error {
		g, err := lookupGroup(s, group)
		if err != nil {
			return err
		}
		canonical, _, err := inv.lookupHost(s, host)
		if err != nil {
			return err
		}
		return g.addHost(canonical)
	})
}

// GroupHostDel removes host from the declared members of group.
func (inv *Inventory) GroupHostDel(group, host string) error {
	return inv.mutate(func(s *state) error {
		g, err := lookupGroup(s, group)
		if err != nil {
			return err
		}
		return g.deleteHost(inv.normalizer.Normalize(host))
	})
}

func lookupGroup(s *state, name string) (*Group, error) {
	g, ok := s.groups[name]
	if !ok {
		return nil, model.MalformedInput("group %q does not exist", name)
	}
	return g, nil
}
