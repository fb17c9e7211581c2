package inventory

import (
	"net/netip"

	"github.com/shinji-kodama/inventory-tool/internal/ippool"
	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// IPPoolNames returns the names of all pools, sorted.
func (inv *Inventory) IPPoolNames() []string {
	return inv.st.poolNames()
}

// IPPool returns a copy of the named pool.
func (inv *Inventory) IPPool(name string) (*ippool.Pool, error) {
	p, err := lookupPool(inv.st, name)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// IPPoolAdd registers pool under name. The name must be new and the
// network must not overlap any existing pool.
func (inv *Inventory) IPPoolAdd(name string, pool *ippool.Pool) error {
	if name == "" {
		return model.MalformedInput("ippool name must not be empty")
	}
	if pool == nil {
		return model.MalformedInput("ippool %q has no network", name)
	}
	return inv.mutate(func(s *state) error {
		if _, ok := s.pools[name]; ok {
			return model.MalformedInput("ippool %q already exists", name)
		}
		for _, other := range s.poolNames() {
			if s.pools[other].Overlaps(pool) {
				return model.MalformedInput("network %s overlaps ippool %q (%s)",
					pool.Network(), other, s.pools[other].Network())
			}
		}
		s.pools[name] = pool.Clone()
		return nil
	})
}

// IPPoolDel removes a pool together with every group binding to it. Host
// variables that drew addresses from it keep their values.
func (inv *Inventory) IPPoolDel(name string) error {
	return inv.mutate(func(s *state) error {
		if _, err := lookupPool(s, name); err != nil {
			return err
		}
		for _, g := range s.groups {
			for key, bound := range g.ippools {
				if bound == name {
					g.unbindPool(key)
				}
			}
		}
		delete(s.pools, name)
		return nil
	})
}

// IPPoolAssign binds variable key of every member of group to pool.
// Existing values must then fit the pool.
func (inv *Inventory) IPPoolAssign(pool, group, key string) error {
	if key == "" {
		return model.MalformedInput("variable name must not be empty")
	}
	return inv.mutate(func(s *state) error {
		if _, err := lookupPool(s, pool); err != nil {
			return err
		}
		g, err := lookupGroup(s, group)
		if err != nil {
			return err
		}
		return g.bindPool(key, pool)
	})
}

// IPPoolRevoke removes the binding of key to pool from group.
func (inv *Inventory) IPPoolRevoke(pool, group, key string) error {
	return inv.mutate(func(s *state) error {
		if _, err := lookupPool(s, pool); err != nil {
			return err
		}
		g, err := lookupGroup(s, group)
		if err != nil {
			return err
		}
		if bound, ok := g.IPPool(key); !ok || bound != pool {
			return model.MalformedInput("group %q does not bind variable %q to ippool %q", group, key, pool)
		}
		g.unbindPool(key)
		return nil
	})
}

// IPPoolBookAddr reserves addr in pool outside of any host variable.
func (inv *Inventory) IPPoolBookAddr(pool string, addr netip.Addr) error {
	return inv.mutate(func(s *state) error {
		p, err := lookupPool(s, pool)
		if err != nil {
			return err
		}
		return p.Reserve(addr.Unmap())
	})
}

// IPPoolCancelAddr releases a reservation made with IPPoolBookAddr.
func (inv *Inventory) IPPoolCancelAddr(pool string, addr netip.Addr) error {
	return inv.mutate(func(s *state) error {
		p, err := lookupPool(s, pool)
		if err != nil {
			return err
		}
		return p.Unreserve(addr.Unmap())
	})
}

func lookupPool(s *state, name string) (*ippool.Pool, error) {
	p, ok := s.pools[name]
	if !ok {
		return nil, model.MalformedInput("ippool %q does not exist", name)
	}
	return p, nil
}
