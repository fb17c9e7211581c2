package inventory

import (
	"maps"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/shinji-kodama/inventory-tool/internal/ippool"
	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// state holds the three entity collections. Every operation that changes
// the inventory works on a clone and swaps it in on success.
type state struct {
	pools  map[string]*ippool.Pool
	hosts  map[string]*Host
	groups map[string]*Group
}

func newState() *state {
	return &state{
		pools:  map[string]*ippool.Pool{},
		hosts:  map[string]*Host{},
		groups: map[string]*Group{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for name, p := range s.pools {
		c.pools[name] = p.Clone()
	}
	for name, h := range s.hosts {
		c.hosts[name] = h.clone()
	}
	for name, g := range s.groups {
		c.groups[name] = g.clone()
	}
	return c
}

func (s *state) hostNames() []string {
	return sortedNames(s.hosts)
}

func (s *state) groupNames() []string {
	return sortedNames(s.groups)
}

func (s *state) poolNames() []string {
	return sortedNames(s.pools)
}

// sortedNames returns the keys of m in order, never nil.
func sortedNames[V any](m map[string]V) []string {
	names := slices.AppendSeq(make([]string, 0, len(m)), maps.Keys(m))
	slices.Sort(names)
	return names
}

// owner returns the host that uses name as its own name or as an alias.
func (s *state) owner(name string) (string, bool) {
	if _, ok := s.hosts[name]; ok {
		return name, true
	}
	for _, host := range s.hostNames() {
		if s.hosts[host].HasAlias(name) {
			return host, true
		}
	}
	return "", false
}

// hasPending reports whether any host still waits for auto-allocation.
func (s *state) hasPending() bool {
	for _, h := range s.hosts {
		if h.pending.Cardinality() > 0 {
			return true
		}
	}
	return false
}

// renameHost moves a host to a new name and updates every group reference.
// An alias equal to the new name is dropped. The caller checks that to is
// not used by another host.
func (s *state) renameHost(from, to string) {
	h := s.hosts[from]
	delete(s.hosts, from)
	h.aliases.Remove(to)
	s.hosts[to] = h
	for _, g := range s.groups {
		g.renameHost(from, to)
	}
}

// mergeHost folds host from into host into: aliases are united, variables
// of into win on conflict, group references are redirected.
func (s *state) mergeHost(from, into string) {
	src, dst := s.hosts[from], s.hosts[into]
	for _, alias := range src.Aliases() {
		dst.aliases.Add(alias)
	}
	dst.aliases.Remove(into)
	for key, value := range src.keyvals {
		if !dst.HasVar(key) {
			dst.keyvals[key] = value
		}
	}
	for _, key := range src.Pending() {
		if !dst.HasVar(key) {
			dst.pending.Add(key)
		}
	}
	delete(s.hosts, from)
	for _, g := range s.groups {
		g.renameHost(from, into)
	}
}

// parentsOf returns the groups that list group as a child, sorted.
func (s *state) parentsOf(group string) []string {
	var parents []string
	for _, name := range s.groupNames() {
		if s.groups[name].HasChild(group) {
			parents = append(parents, name)
		}
	}
	return parents
}

// reaches reports whether group to is group from or one of its descendants.
func (s *state) reaches(from, to string) bool {
	seen := mapset.NewThreadUnsafeSet[string]()
	stack := []string{from}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if name == to {
			return true
		}
		if !seen.Add(name) {
			continue
		}
		if g, ok := s.groups[name]; ok {
			stack = append(stack, g.Children()...)
		}
	}
	return false
}

// members returns the effective host set of group: its declared hosts plus,
// recursively, those of its children. Names that do not resolve are skipped.
func (s *state) members(group string) (mapset.Set[string], error) {
	out := mapset.NewThreadUnsafeSet[string]()
	if err := s.collectMembers(group, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *state) collectMembers(group string, path []string, out mapset.Set[string]) error {
	if slices.Contains(path, group) {
		cycle := append(slices.Clone(path[slices.Index(path, group):]), group)
		return model.BadData("child group cycle detected: %s", strings.Join(cycle, " -> "))
	}
	g, ok := s.groups[group]
	if !ok {
		return nil
	}
	for _, host := range g.Hosts() {
		if _, ok := s.hosts[host]; ok {
			out.Add(host)
		}
	}
	path = append(path, group)
	for _, child := range g.Children() {
		if err := s.collectMembers(child, path, out); err != nil {
			return err
		}
	}
	return nil
}

// memberships derives the effective host set of every group.
func (s *state) memberships() (map[string]mapset.Set[string], error) {
	index := make(map[string]mapset.Set[string], len(s.groups))
	for _, name := range s.groupNames() {
		set, err := s.members(name)
		if err != nil {
			return nil, err
		}
		index[name] = set
	}
	return index, nil
}

// groupsByHost inverts a membership index: host -> sorted group names.
func groupsByHost(index map[string]mapset.Set[string]) map[string][]string {
	out := map[string][]string{}
	for _, group := range slices.Sorted(maps.Keys(index)) {
		for _, host := range sortedSet(index[group]) {
			out[host] = append(out[host], group)
		}
	}
	return out
}

// binding resolves the pool a host variable draws from, given the groups
// the host belongs to. Two groups binding the same key to different pools
// is ambiguous and reported as BadData.
func (s *state) binding(host, key string, groups []string) (pool, group string, ok bool, err error) {
	for _, name := range groups {
		bound, found := s.groups[name].IPPool(key)
		if !found {
			continue
		}
		if ok && bound != pool {
			return "", "", false, model.BadData(
				"ambiguous binding for variable %q of host %q: group %q uses pool %q, group %q uses pool %q",
				key, host, group, pool, name, bound)
		}
		pool, group, ok = bound, name, true
	}
	return pool, group, ok, nil
}
