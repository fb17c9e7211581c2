// Package store reads and writes the on-disk inventory document.
//
// The document is a YAML mapping with four sections (groups, hosts, ippools
// and the version/checksum header). Encoding is deterministic: struct fields
// are emitted in declaration order, map keys are sorted by the YAML encoder,
// and callers hand over sets as sorted slices. Loading a document and saving
// it back without changes therefore reproduces the same bytes.
//
// The package knows nothing about inventory invariants; it only moves
// mappings between disk and memory.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// Document is the raw on-disk representation of an inventory.
//
// Field order matters: it is the order in which sections are written.
type Document struct {
	// Checksum is the content digest recorded at the last save.
	Checksum string `yaml:"checksum"`

	// Groups maps group names to their declarations.
	Groups map[string]GroupEntry `yaml:"groups"`

	// Hosts maps canonical host names to their variables and aliases.
	Hosts map[string]HostEntry `yaml:"hosts"`

	// IPPools maps pool names to their network and address subsets.
	IPPools map[string]IPPoolEntry `yaml:"ippools"`

	// Version is the document format version.
	Version int `yaml:"version"`
}

// GroupEntry is one group as declared in the document.
type GroupEntry struct {
	// Children lists the names of child groups.
	Children []string `yaml:"children"`

	// Hosts lists the names of directly declared member hosts.
	Hosts []string `yaml:"hosts"`

	// IPPools binds host variable keys to pool names.
	IPPools map[string]string `yaml:"ippools"`
}

// HostEntry is one host as declared in the document.
type HostEntry struct {
	// Aliases lists alternative names of the host.
	Aliases []string `yaml:"aliases"`

	// Keyvals holds the host variables. A nil value (YAML null) asks for an
	// address to be allocated from the pool bound to that key.
	Keyvals map[string]*string `yaml:"keyvals"`
}

// IPPoolEntry is one address pool as declared in the document.
type IPPoolEntry struct {
	// Allocated lists addresses handed out to host variables.
	Allocated []string `yaml:"allocated"`

	// Network is the pool's CIDR block.
	Network string `yaml:"network"`

	// Reserved lists manually booked addresses.
	Reserved []string `yaml:"reserved"`
}

// NewDocument returns an empty document with all sections present.
func NewDocument(version int) *Document {
	return &Document{
		Groups:  map[string]GroupEntry{},
		Hosts:   map[string]HostEntry{},
		IPPools: map[string]IPPoolEntry{},
		Version: version,
	}
}

// Marshal encodes doc as YAML with a two-space indent.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode inventory document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode inventory document: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a YAML inventory document.
//
// Unknown fields are rejected so that a typo such as "keyval:" does not
// silently drop a host's variables. Missing sections decode as empty maps.
func Unmarshal(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	doc := &Document{}
	if err := dec.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, model.MalformedInput("inventory document is empty")
		}
		return nil, model.WrapMalformedInput(err, "failed to parse inventory document")
	}

	if doc.Groups == nil {
		doc.Groups = map[string]GroupEntry{}
	}
	if doc.Hosts == nil {
		doc.Hosts = map[string]HostEntry{}
	}
	if doc.IPPools == nil {
		doc.IPPools = map[string]IPPoolEntry{}
	}
	return doc, nil
}
