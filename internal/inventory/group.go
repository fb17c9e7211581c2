package inventory

import (
	"maps"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// Group is a named set of hosts and child groups plus the pool bindings
// its members inherit.
//
// hosts holds the directly declared members; the effective membership
// (including hosts of child groups) is derived by the Inventory.
type Group struct {
	hosts    mapset.Set[string]
	children mapset.Set[string]

	// ippools maps a host variable key to the pool its values come from.
	ippools map[string]string
}

func newGroup() *Group {
	return &Group{
		hosts:    mapset.NewThreadUnsafeSet[string](),
		children: mapset.NewThreadUnsafeSet[string](),
		ippools:  map[string]string{},
	}
}

// Hosts returns the directly declared member hosts, sorted.
func (g *Group) Hosts() []string {
	return sortedSet(g.hosts)
}

// Children returns the child group names, sorted.
func (g *Group) Children() []string {
	return sortedSet(g.children)
}

// HasHost reports whether host is a declared member.
func (g *Group) HasHost(host string) bool {
	return g.hosts.Contains(host)
}

// HasChild reports whether child is a child group.
func (g *Group) HasChild(child string) bool {
	return g.children.Contains(child)
}

// IPPools returns a copy of the variable-key to pool-name bindings.
func (g *Group) IPPools() map[string]string {
	return maps.Clone(g.ippools)
}

// IPPool returns the pool bound to key.
func (g *Group) IPPool(key string) (string, bool) {
	pool, ok := g.ippools[key]
	return pool, ok
}

func (g *Group) addHost(host string) error {
	if g.hosts.Contains(host) {
		return model.MalformedInput("host %q is already a member", host)
	}
	g.hosts.Add(host)
	return nil
}

func (g *Group) deleteHost(host string) error {
	if !g.hosts.Contains(host) {
		return model.MalformedInput("host %q is not a member", host)
	}
	g.hosts.Remove(host)
	return nil
}

func (g *Group) addChild(child string) error {
	if g.children.Contains(child) {
		return model.MalformedInput("group %q is already a child", child)
	}
	g.children.Add(child)
	return nil
}

func (g *Group) deleteChild(child string) error {
	if !g.children.Contains(child) {
		return model.MalformedInput("group %q is not a child", child)
	}
	g.children.Remove(child)
	return nil
}

func (g *Group) bindPool(key, pool string) error {
	if current, ok := g.ippools[key]; ok {
		if current == pool {
			return nil
		}
		return model.MalformedInput("variable %q is already bound to pool %q", key, current)
	}
	g.ippools[key] = pool
	return nil
}

func (g *Group) unbindPool(key string) {
	delete(g.ippools, key)
}

// renameHost replaces a member reference, keeping membership unchanged
// when the host was not a member.
func (g *Group) renameHost(from, to string) {
	if g.hosts.Contains(from) {
		g.hosts.Remove(from)
		g.hosts.Add(to)
	}
}

func (g *Group) clone() *Group {
	return &Group{
		hosts:    g.hosts.Clone(),
		children: g.children.Clone(),
		ippools:  maps.Clone(g.ippools),
	}
}
