package inventory

import (
	"crypto/sha256"
	"encoding/hex"
	"net/netip"

	"github.com/shinji-kodama/inventory-tool/internal/ippool"
	"github.com/shinji-kodama/inventory-tool/internal/model"
	"github.com/shinji-kodama/inventory-tool/internal/store"
)

// Checksum returns the hex SHA-256 digest of doc's encoding with the
// checksum field left empty. It detects edits made outside the tool; it is
// not a security measure.
func Checksum(doc *store.Document) (string, error) {
	blank := *doc
	blank.Checksum = ""
	data, err := store.Marshal(&blank)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// stateFromDocument builds the entity collections as declared, without
// any consistency checks beyond what each pool enforces on itself.
// Invalid pool contents are BadData: the stored document is broken.
func stateFromDocument(doc *store.Document) (*state, error) {
	s := newState()

	for name, entry := range doc.IPPools {
		pool, err := ippool.New(entry.Network)
		if err != nil {
			return nil, model.WrapBadData(err, "ippool %q", name)
		}
		if err := fillPool(entry.Reserved, pool.Reserve); err != nil {
			return nil, model.WrapBadData(err, "ippool %q: reserved addresses", name)
		}
		if err := fillPool(entry.Allocated, pool.Allocate); err != nil {
			return nil, model.WrapBadData(err, "ippool %q: allocated addresses", name)
		}
		s.pools[name] = pool
	}

	for name, entry := range doc.Hosts {
		h := newHost()
		for key, value := range entry.Keyvals {
			if value == nil {
				h.requestAllocation(key)
				continue
			}
			h.setVar(key, *value)
		}
		for _, alias := range entry.Aliases {
			h.aliases.Add(alias)
		}
		s.hosts[name] = h
	}

	for name, entry := range doc.Groups {
		g := newGroup()
		for _, host := range entry.Hosts {
			g.hosts.Add(host)
		}
		for _, child := range entry.Children {
			g.children.Add(child)
		}
		for key, pool := range entry.IPPools {
			g.ippools[key] = pool
		}
		s.groups[name] = g
	}

	return s, nil
}

func fillPool(addrs []string, add func(netip.Addr) error) error {
	for _, raw := range addrs {
		addr, err := ippool.ParseAddr(raw)
		if err != nil {
			return err
		}
		if err := add(addr); err != nil {
			return err
		}
	}
	return nil
}

// documentFromState renders s with every set sorted, so equal states give
// equal documents. Pending allocations are written as null values.
func documentFromState(s *state, version int) *store.Document {
	doc := store.NewDocument(version)

	for name, pool := range s.pools {
		doc.IPPools[name] = store.IPPoolEntry{
			Allocated: addrStrings(pool.Allocated()),
			Network:   pool.Network().String(),
			Reserved:  addrStrings(pool.Reserved()),
		}
	}

	for name, h := range s.hosts {
		keyvals := make(map[string]*string, len(h.keyvals)+h.pending.Cardinality())
		for key, value := range h.keyvals {
			keyvals[key] = &value
		}
		for _, key := range h.Pending() {
			keyvals[key] = nil
		}
		doc.Hosts[name] = store.HostEntry{
			Aliases: h.Aliases(),
			Keyvals: keyvals,
		}
	}

	for name, g := range s.groups {
		doc.Groups[name] = store.GroupEntry{
			Children: g.Children(),
			Hosts:    g.Hosts(),
			IPPools:  g.IPPools(),
		}
	}

	return doc
}

func addrStrings(addrs []netip.Addr) []string {
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, addr.String())
	}
	return out
}
