package ippool

import (
	"net/netip"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// Pool is a named block of addresses with reserved and allocated subsets.
//
// Invariants kept by every method:
//   - reserved and allocated only contain addresses inside network
//   - reserved and allocated are disjoint
type Pool struct {
	// network is fixed at construction time.
	network netip.Prefix

	// reserved holds addresses booked outside the variable-binding path.
	reserved mapset.Set[netip.Addr]

	// allocated holds addresses currently assigned to host variables.
	allocated mapset.Set[netip.Addr]
}

// New parses network and returns an empty pool covering it.
//
// The block must be a canonical CIDR (no host bits set), e.g. "10.0.0.0/24".
// Anything else fails with MalformedInput.
func New(network string) (*Pool, error) {
	prefix, err := netip.ParsePrefix(network)
	if err != nil {
		return nil, model.WrapMalformedInput(err, "invalid network %q", network)
	}
	return NewFromPrefix(prefix)
}

// NewFromPrefix returns an empty pool covering prefix.
func NewFromPrefix(prefix netip.Prefix) (*Pool, error) {
	if !prefix.IsValid() {
		return nil, model.MalformedInput("invalid network %s", prefix)
	}
	if prefix.Addr().Zone() != "" {
		return nil, model.MalformedInput("network %s must not carry a zone", prefix)
	}
	if prefix.Addr().Is4In6() {
		prefix = netip.PrefixFrom(prefix.Addr().Unmap(), prefix.Bits()-96)
		if !prefix.IsValid() {
			return nil, model.MalformedInput("invalid network %s", prefix)
		}
	}
	if prefix.Masked() != prefix {
		return nil, model.MalformedInput("network %s has host bits set (did you mean %s?)", prefix, prefix.Masked())
	}

	return &Pool{
		network:   prefix,
		reserved:  mapset.NewThreadUnsafeSet[netip.Addr](),
		allocated: mapset.NewThreadUnsafeSet[netip.Addr](),
	}, nil
}

// ParseAddr parses an address literal, unmapping IPv4-in-IPv6 forms so that
// "::ffff:10.0.0.1" and "10.0.0.1" are the same address.
func ParseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, model.WrapMalformedInput(err, "invalid IP address %q", s)
	}
	if addr.Zone() != "" {
		return netip.Addr{}, model.MalformedInput("IP address %q must not carry a zone", s)
	}
	return addr.Unmap(), nil
}

// Network returns the pool's CIDR block.
func (p *Pool) Network() netip.Prefix {
	return p.network
}

// Contains reports whether addr lies inside the pool's network.
func (p *Pool) Contains(addr netip.Addr) bool {
	return p.network.Contains(addr)
}

// IsReserved reports whether addr has been booked manually.
func (p *Pool) IsReserved(addr netip.Addr) bool {
	return p.reserved.Contains(addr)
}

// IsAllocated reports whether addr is assigned to a host variable.
func (p *Pool) IsAllocated(addr netip.Addr) bool {
	return p.allocated.Contains(addr)
}

// Reserve books addr so that NextFree never returns it.
func (p *Pool) Reserve(addr netip.Addr) error {
	if err := p.checkInside(addr); err != nil {
		return err
	}
	if p.allocated.Contains(addr) {
		return model.MalformedInput("address %s is already allocated in %s", addr, p.network)
	}
	if p.reserved.Contains(addr) {
		return model.MalformedInput("address %s is already reserved in %s", addr, p.network)
	}
	p.reserved.Add(addr)
	return nil
}

// Unreserve cancels a booking made with Reserve.
func (p *Pool) Unreserve(addr netip.Addr) error {
	if err := p.checkInside(addr); err != nil {
		return err
	}
	if !p.reserved.Contains(addr) {
		return model.MalformedInput("address %s is not reserved in %s", addr, p.network)
	}
	p.reserved.Remove(addr)
	return nil
}

// Allocate marks addr as assigned to a host variable.
func (p *Pool) Allocate(addr netip.Addr) error {
	if err := p.checkInside(addr); err != nil {
		return err
	}
	if p.reserved.Contains(addr) {
		return model.MalformedInput("address %s is reserved in %s", addr, p.network)
	}
	if p.allocated.Contains(addr) {
		return model.MalformedInput("address %s is already allocated in %s", addr, p.network)
	}
	p.allocated.Add(addr)
	return nil
}

// Deallocate returns addr to the free space of the pool.
func (p *Pool) Deallocate(addr netip.Addr) error {
	if err := p.checkInside(addr); err != nil {
		return err
	}
	if !p.allocated.Contains(addr) {
		return model.MalformedInput("address %s is not allocated in %s", addr, p.network)
	}
	p.allocated.Remove(addr)
	return nil
}

// NextFree returns the lowest usable address that is neither reserved nor
// allocated. It does not allocate it.
//
// The scan is bounded by the number of taken addresses: at most
// len(reserved)+len(allocated)+1 candidates are inspected before either a
// free address is found or the end of the block is reached.
func (p *Pool) NextFree() (netip.Addr, error) {
	first, last := p.usableRange()
	for candidate := first; candidate.IsValid(); candidate = candidate.Next() {
		if !p.reserved.Contains(candidate) && !p.allocated.Contains(candidate) {
			return candidate, nil
		}
		if candidate == last {
			break
		}
	}
	return netip.Addr{}, model.BadData("address pool %s is exhausted", p.network)
}

// Overlaps reports whether the two network blocks share any address.
func (p *Pool) Overlaps(other *Pool) bool {
	return p.network.Overlaps(other.network)
}

// Reserved returns the reserved addresses in ascending order.
func (p *Pool) Reserved() []netip.Addr {
	return sortedAddrs(p.reserved)
}

// Allocated returns the allocated addresses in ascending order.
func (p *Pool) Allocated() []netip.Addr {
	return sortedAddrs(p.allocated)
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	return &Pool{
		network:   p.network,
		reserved:  p.reserved.Clone(),
		allocated: p.allocated.Clone(),
	}
}

// usableRange returns the first and last address NextFree may hand out.
//
// IPv4 blocks up to /30 lose their network and broadcast addresses; /31 and
// /32 are point-to-point or single-host blocks and keep every address
// (RFC 3021). IPv6 blocks up to /126 lose the subnet-router anycast address.
func (p *Pool) usableRange() (netip.Addr, netip.Addr) {
	first := p.network.Addr()
	last := lastAddr(p.network)

	if first.Is4() {
		if p.network.Bits() <= 30 {
			return first.Next(), last.Prev()
		}
		return first, last
	}
	if p.network.Bits() <= 126 {
		return first.Next(), last
	}
	return first, last
}

func (p *Pool) checkInside(addr netip.Addr) error {
	if !addr.IsValid() {
		return model.MalformedInput("invalid IP address")
	}
	if !p.network.Contains(addr) {
		return model.MalformedInput("address %s is outside of network %s", addr, p.network)
	}
	return nil
}

// lastAddr returns the highest address inside prefix.
func lastAddr(prefix netip.Prefix) netip.Addr {
	raw := prefix.Addr().AsSlice()
	bits := prefix.Bits()
	for i := range raw {
		hostBits := len(raw)*8 - bits - (len(raw)-1-i)*8
		switch {
		case hostBits >= 8:
			raw[i] = 0xff
		case hostBits > 0:
			raw[i] |= byte(1<<hostBits) - 1
		}
	}
	addr, _ := netip.AddrFromSlice(raw)
	return addr
}

func sortedAddrs(set mapset.Set[netip.Addr]) []netip.Addr {
	addrs := set.ToSlice()
	slices.SortFunc(addrs, func(a, b netip.Addr) int { return a.Compare(b) })
	return addrs
}
