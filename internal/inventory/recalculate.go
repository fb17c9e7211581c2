package inventory

import (
	"fmt"
	"net/netip"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/shinji-kodama/inventory-tool/internal/ippool"
	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// Recalculate re-derives names, membership and pool allocations from the
// declarations. On failure the inventory is left exactly as it was.
func (inv *Inventory) Recalculate() error {
	scratch := inv.st.clone()
	if err := inv.recalculate(scratch); err != nil {
		return err
	}
	inv.st = scratch
	return nil
}

func (inv *Inventory) recalculate(s *state) error {
	inv.normalizeHosts(s)
	inv.normalizeAliases(s)
	inv.normalizeGroupMembers(s)

	if err := checkOverlaps(s); err != nil {
		return err
	}

	inv.pruneOrphans(s)

	// Membership derivation is repeated by reconcile; running it here first
	// reports a cycle before any allocation work happens.
	if _, err := s.memberships(); err != nil {
		return err
	}

	return inv.reconcile(s, model.KindBadData)
}

// normalizeHosts renames every host whose name is not canonical. When the
// canonical name is already taken, the host is merged into the owner.
// Canonical names are processed first so they win collisions.
func (inv *Inventory) normalizeHosts(s *state) {
	for _, name := range canonicalFirst(s.hostNames(), inv.normalizer) {
		if _, ok := s.hosts[name]; !ok {
			continue
		}
		canonical := inv.normalizer.Normalize(name)
		if canonical == name {
			continue
		}
		if owner, taken := s.owner(canonical); taken && owner != name {
			inv.log.Warn("merging host into existing host with the same canonical name",
				zap.String("host", name), zap.String("into", owner))
			s.mergeHost(name, owner)
			continue
		}
		inv.log.Info("renaming denormalized host", zap.String("from", name), zap.String("to", canonical))
		s.renameHost(name, canonical)
	}
}

// normalizeAliases rewrites aliases to canonical form and drops those that
// collide with a host name or an alias kept earlier.
func (inv *Inventory) normalizeAliases(s *state) {
	taken := mapset.NewThreadUnsafeSet(s.hostNames()...)
	for _, host := range s.hostNames() {
		h := s.hosts[host]
		kept := mapset.NewThreadUnsafeSet[string]()
		for _, alias := range canonicalFirst(h.Aliases(), inv.normalizer) {
			canonical := inv.normalizer.Normalize(alias)
			if canonical == "" || taken.Contains(canonical) {
				inv.log.Warn("dropping duplicate alias",
					zap.String("host", host), zap.String("alias", alias))
				continue
			}
			if canonical != alias {
				inv.log.Info("normalizing alias",
					zap.String("host", host), zap.String("from", alias), zap.String("to", canonical))
			}
			taken.Add(canonical)
			kept.Add(canonical)
		}
		h.aliases = kept
	}
}

// normalizeGroupMembers points group references written in denormalized
// form, or naming an alias, at the owning host.
func (inv *Inventory) normalizeGroupMembers(s *state) {
	for _, name := range s.groupNames() {
		g := s.groups[name]
		for _, member := range g.Hosts() {
			if _, ok := s.hosts[member]; ok {
				continue
			}
			owner, ok := s.owner(inv.normalizer.Normalize(member))
			if !ok {
				continue
			}
			g.hosts.Remove(member)
			g.hosts.Add(owner)
		}
	}
}

// checkOverlaps fails if any two pools share an address.
func checkOverlaps(s *state) error {
	names := s.poolNames()
	for i, a := range names {
		for _, b := range names[i+1:] {
			if s.pools[a].Overlaps(s.pools[b]) {
				return model.BadData("ippools %q (%s) and %q (%s) overlap",
					a, s.pools[a].Network(), b, s.pools[b].Network())
			}
		}
	}
	return nil
}

// pruneOrphans silently drops references to hosts and groups that do not
// exist.
func (inv *Inventory) pruneOrphans(s *state) {
	for _, name := range s.groupNames() {
		g := s.groups[name]
		for _, child := range g.Children() {
			if _, ok := s.groups[child]; !ok {
				inv.log.Warn("pruning missing child group", zap.String("group", name), zap.String("child", child))
				g.children.Remove(child)
			}
		}
		for _, host := range g.Hosts() {
			if _, ok := s.hosts[host]; !ok {
				inv.log.Warn("pruning missing host", zap.String("group", name), zap.String("host", host))
				g.hosts.Remove(host)
			}
		}
	}
}

// allocationRequest is a host variable waiting for an address.
type allocationRequest struct {
	host, key, pool string
}

// reconcile makes pool allocations match the address variables of hosts.
//
// Every address variable bound to a pool through the host's groups must hold
// an address inside that pool; it is marked allocated. Variables holding the
// auto-allocation sentinel get the next free address once all concrete
// values have been claimed. Allocations nobody references any more are
// released. Reserved addresses are left alone.
//
// kind decides how caller-visible inconsistencies are reported: BadData
// while recalculating loaded data, MalformedInput while applying a mutation.
// Ambiguous bindings and exhausted pools are always BadData.
func (inv *Inventory) reconcile(s *state, kind model.ErrorKind) error {
	index, err := s.memberships()
	if err != nil {
		return err
	}
	hostGroups := groupsByHost(index)

	referenced := map[string]mapset.Set[netip.Addr]{}
	for _, name := range s.poolNames() {
		referenced[name] = mapset.NewThreadUnsafeSet[netip.Addr]()
	}
	unbound := map[string]mapset.Set[netip.Addr]{}
	owners := map[netip.Addr]string{}
	var requests []allocationRequest

	for _, host := range s.hostNames() {
		h := s.hosts[host]
		for _, key := range h.Keys() {
			if !inv.classifier.IsAddressKeyword(key) {
				if !h.HasConcreteVar(key) {
					return fail(kind, "broken autoallocation: variable %q of host %q is not an address variable", key, host)
				}
				continue
			}
			poolName, group, bound, err := s.binding(host, key, hostGroups[host])
			if err != nil {
				return err
			}
			value, concrete := h.Var(key)
			if !bound {
				if !concrete {
					return fail(kind, "broken autoallocation: variable %q of host %q is not bound to any ippool", key, host)
				}
				markUnbound(s, unbound, value)
				continue
			}
			pool, ok := s.pools[poolName]
			if !ok {
				return fail(kind, "group %q binds variable %q to unknown ippool %q", group, key, poolName)
			}
			if !concrete {
				requests = append(requests, allocationRequest{host: host, key: key, pool: poolName})
				continue
			}

			addr, err := ippool.ParseAddr(value)
			if err != nil {
				return fail(kind, "variable %q of host %q: %v", key, host, err)
			}
			switch {
			case !pool.Contains(addr):
				return fail(kind, "variable %q of host %q: address %s is outside of ippool %q (%s)",
					key, host, addr, poolName, pool.Network())
			case pool.IsReserved(addr):
				return fail(kind, "variable %q of host %q: address %s is reserved in ippool %q",
					key, host, addr, poolName)
			case referenced[poolName].Contains(addr):
				return fail(kind, "address %s of ippool %q is used by both %s and %s/%s",
					addr, poolName, owners[addr], host, key)
			}
			referenced[poolName].Add(addr)
			owners[addr] = host + "/" + key
		}
	}

	// Addresses held by variables without a binding stay in use, so that
	// no other host is handed the same address.
	for name, addrs := range unbound {
		for addr := range addrs.Iter() {
			if referenced[name].Contains(addr) {
				inv.log.Warn("address is used inside and outside of its ippool binding",
					zap.String("ippool", name), zap.Stringer("address", addr), zap.String("bound", owners[addr]))
				continue
			}
			referenced[name].Add(addr)
		}
	}

	for _, name := range s.poolNames() {
		pool := s.pools[name]
		for _, addr := range pool.Allocated() {
			if referenced[name].Contains(addr) {
				continue
			}
			inv.log.Info("releasing stale allocation", zap.String("ippool", name), zap.Stringer("address", addr))
			if err := pool.Deallocate(addr); err != nil {
				return err
			}
		}
		want := referenced[name].ToSlice()
		slices.SortFunc(want, func(a, b netip.Addr) int { return a.Compare(b) })
		for _, addr := range want {
			if pool.IsAllocated(addr) {
				continue
			}
			if err := pool.Allocate(addr); err != nil {
				return err
			}
		}
	}

	for _, req := range requests {
		pool := s.pools[req.pool]
		addr, err := pool.NextFree()
		if err != nil {
			return fmt.Errorf("auto-allocating %q for host %q: %w", req.key, req.host, err)
		}
		if err := pool.Allocate(addr); err != nil {
			return err
		}
		s.hosts[req.host].setVar(req.key, addr.String())
		inv.log.Info("allocated address",
			zap.String("host", req.host), zap.String("key", req.key),
			zap.String("ippool", req.pool), zap.Stringer("address", addr))
	}
	return nil
}

// markUnbound records value in unbound under every pool whose network
// contains it, unless the pool reserves it. Values that are not address
// literals are stored unmanaged and ignored here.
func markUnbound(s *state, unbound map[string]mapset.Set[netip.Addr], value string) {
	addr, err := ippool.ParseAddr(value)
	if err != nil {
		return
	}
	for name, pool := range s.pools {
		if !pool.Contains(addr) || pool.IsReserved(addr) {
			continue
		}
		if unbound[name] == nil {
			unbound[name] = mapset.NewThreadUnsafeSet[netip.Addr]()
		}
		unbound[name].Add(addr)
	}
}

// canonicalFirst orders names so that those already in canonical form come
// before the ones that normalization would change; each part stays sorted.
func canonicalFirst(names []string, n interface{ Normalize(string) string }) []string {
	out := make([]string, 0, len(names))
	var rest []string
	for _, name := range names {
		if n.Normalize(name) == name {
			out = append(out, name)
		} else {
			rest = append(rest, name)
		}
	}
	return append(out, rest...)
}

func fail(kind model.ErrorKind, format string, args ...interface{}) error {
	return &model.InventoryError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
