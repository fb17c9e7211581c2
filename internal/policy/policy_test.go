package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDomain_Normalize covers suffix stripping, case folding and trailing dots.
func TestDomain_Normalize(t *testing.T) {
	d := NewDomain("example.com", ".y1.example.com", "")

	tests := []struct {
		input    string
		expected string
	}{
		{"gulgulator.example.com", "gulgulator"},
		{"Y1-Front.Foobar.Example.COM.", "y1-front.foobar"},
		{"foobarator.y1.example.com", "foobarator"}, // longest suffix first
		{"y1", "y1"},
		{"example.com", "example.com"}, // never strip down to nothing
		{"a.example.com.example.com", "a"},
		{"  spaced.example.com ", "spaced"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := d.Normalize(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, d.Normalize(got), "normalization must be idempotent")
		})
	}
}

// TestNormalizerFunc verifies the adapter and the identity normalizer.
func TestNormalizerFunc(t *testing.T) {
	f := NormalizerFunc(func(name string) string {
		if name == "other.example.com" {
			return "other"
		}
		return name
	})

	assert.Equal(t, "other", f.Normalize("other.example.com"))
	assert.Equal(t, "proper", f.Normalize("proper"))
	assert.Equal(t, "Mixed.Case", Identity.Normalize("Mixed.Case"))
}

// TestKeywords checks classification and list accessors.
func TestKeywords(t *testing.T) {
	k := NewKeywords(
		[]string{"tunnel_ip", "ansible_ssh_host", "tunnel_ip", " "},
		[]string{"mgmt_network"},
	)

	assert.True(t, k.IsAddressKeyword("ansible_ssh_host"))
	assert.True(t, k.IsAddressKeyword("tunnel_ip"))
	assert.False(t, k.IsAddressKeyword("mgmt_network"))
	assert.True(t, k.IsNetworkKeyword("mgmt_network"))
	assert.False(t, k.IsNetworkKeyword("tunnel_ip"))

	assert.Equal(t, []string{"ansible_ssh_host", "tunnel_ip"}, k.AddressKeywords())
	assert.Equal(t, []string{"mgmt_network"}, k.NetworkKeywords())

	// Returned slices are copies.
	list := k.AddressKeywords()
	list[0] = "mutated"
	assert.True(t, k.IsAddressKeyword("ansible_ssh_host"))
}
