package store

import (
	"os"

	"github.com/moby/sys/atomicwriter"

	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// File is the YAML-file Serializer used by the inventory.
type File struct{}

// Load reads and decodes the document stored at path.
//
// A missing or unreadable file fails with MalformedInput: the caller named
// the wrong path, which is fixable by retrying with a correct one.
func (File) Load(path string) (*Document, error) {
	// os.ReadFile handles the open-read-close lifecycle in a single call.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapMalformedInput(err, "inventory file not found: %s", path)
		}
		return nil, model.WrapMalformedInput(err, "failed to read inventory file %s", path)
	}
	return Unmarshal(data)
}

// Save encodes doc and atomically replaces the file at path. Readers never
// observe a half-written inventory.
func (File) Save(path string, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := atomicwriter.WriteFile(path, data, 0o644); err != nil {
		return model.WrapMalformedInput(err, "failed to write inventory file %s", path)
	}
	return nil
}
