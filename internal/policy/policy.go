// Package policy provides the hostname normalization and keyword
// classification capabilities the inventory engine is constructed with.
//
// The engine only depends on the Normalizer and KeywordClassifier
// interfaces. Domain and Keywords are the config-driven implementations
// used by the CLI; NormalizerFunc lets tests plug in an ad-hoc mapping.
package policy

import (
	"slices"
	"strings"
)

// Normalizer maps a host or alias name onto its canonical form.
// Implementations must be pure, total and idempotent.
type Normalizer interface {
	Normalize(name string) string
}

// KeywordClassifier tells which host variables hold addresses or networks.
type KeywordClassifier interface {
	IsAddressKeyword(key string) bool
	IsNetworkKeyword(key string) bool
	AddressKeywords() []string
	NetworkKeywords() []string
}

// NormalizerFunc adapts a plain function to the Normalizer interface.
type NormalizerFunc func(name string) string

// Normalize calls f(name).
func (f NormalizerFunc) Normalize(name string) string {
	return f(name)
}

// Identity is the Normalizer that leaves every name untouched.
var Identity Normalizer = NormalizerFunc(func(name string) string { return name })

// Domain normalizes hostnames by lower-casing them, dropping a trailing dot
// and stripping any of the configured domain suffixes.
//
// With suffixes ["example.com"], "Y1-Front.Foobar.Example.COM." becomes
// "y1-front.foobar". Suffixes are stripped repeatedly, which keeps the
// mapping idempotent.
type Domain struct {
	suffixes []string
}

// NewDomain creates a Domain normalizer. Suffixes may be given with or
// without a leading dot.
func NewDomain(suffixes ...string) *Domain {
	d := &Domain{}
	for _, s := range suffixes {
		s = strings.Trim(strings.ToLower(strings.TrimSpace(s)), ".")
		if s == "" {
			continue
		}
		d.suffixes = append(d.suffixes, "."+s)
	}
	// Longest first, so "y1.example.com" wins over "example.com".
	slices.SortFunc(d.suffixes, func(a, b string) int { return len(b) - len(a) })
	return d
}

// Normalize implements Normalizer.
func (d *Domain) Normalize(name string) string {
	name = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
	for {
		stripped := false
		for _, suffix := range d.suffixes {
			if len(name) > len(suffix) && strings.HasSuffix(name, suffix) {
				name = strings.TrimSuffix(name, suffix)
				stripped = true
				break
			}
		}
		if !stripped {
			return name
		}
	}
}

// Keywords classifies variables by membership in fixed keyword lists.
type Keywords struct {
	address []string
	network []string
}

// NewKeywords creates a classifier from the address and network keyword
// lists. Duplicates are dropped and the lists are kept sorted.
func NewKeywords(address, network []string) *Keywords {
	return &Keywords{
		address: compactSorted(address),
		network: compactSorted(network),
	}
}

// IsAddressKeyword reports whether key holds a single IP address.
func (k *Keywords) IsAddressKeyword(key string) bool {
	_, found := slices.BinarySearch(k.address, key)
	return found
}

// IsNetworkKeyword reports whether key holds a CIDR network.
func (k *Keywords) IsNetworkKeyword(key string) bool {
	_, found := slices.BinarySearch(k.network, key)
	return found
}

// AddressKeywords returns the sorted address keyword list.
func (k *Keywords) AddressKeywords() []string {
	return slices.Clone(k.address)
}

// NetworkKeywords returns the sorted network keyword list.
func (k *Keywords) NetworkKeywords() []string {
	return slices.Clone(k.network)
}

func compactSorted(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
