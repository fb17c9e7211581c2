package inventory

import (
	"go.uber.org/zap"

	"github.com/shinji-kodama/inventory-tool/internal/model"
	"github.com/shinji-kodama/inventory-tool/internal/policy"
	"github.com/shinji-kodama/inventory-tool/internal/store"
)

// SupportedVersion is the only document format version Open accepts.
const SupportedVersion = 1

// Serializer moves inventory documents between memory and persistent
// storage. store.File is the production implementation.
type Serializer interface {
	// Load reads the document at path. A missing or unreadable file is
	// reported as MalformedInput.
	Load(path string) (*store.Document, error)

	// Save writes doc to path. A failed write is reported as MalformedInput.
	Save(path string, doc *store.Document) error
}

// Config holds everything Open needs. Zero-valued policy fields fall back
// to defaults: names are kept as written, no variable is treated as an
// address, documents are YAML files and nothing is logged.
type Config struct {
	// Path is the location of the inventory document.
	Path string

	// Initialize starts from an empty inventory without reading Path.
	Initialize bool

	// Normalizer maps host names and aliases to their canonical form.
	Normalizer policy.Normalizer

	// Classifier tells address and network variables apart from plain ones.
	Classifier policy.KeywordClassifier

	// Serializer loads and saves the document.
	Serializer Serializer

	// Logger receives recalculation and allocation events.
	Logger *zap.Logger
}

// Inventory is the in-memory inventory: pools, hosts and groups plus the
// rules keeping them consistent.
//
// An Inventory is not safe for concurrent use. Callers load it once,
// apply their changes and save it once.
type Inventory struct {
	path         string
	version      int
	recalculated bool
	st           *state

	normalizer policy.Normalizer
	classifier policy.KeywordClassifier
	serializer Serializer
	log        *zap.Logger
}

// Open loads the inventory described by cfg.
//
// The document must carry SupportedVersion, otherwise Open fails with
// BadData. When the stored checksum does not match the content, the
// inventory is recalculated and IsRecalculated reports true.
func Open(cfg Config) (*Inventory, error) {
	inv := &Inventory{
		path:       cfg.Path,
		version:    SupportedVersion,
		st:         newState(),
		normalizer: cfg.Normalizer,
		classifier: cfg.Classifier,
		serializer: cfg.Serializer,
		log:        cfg.Logger,
	}
	if inv.normalizer == nil {
		inv.normalizer = policy.Identity
	}
	if inv.classifier == nil {
		inv.classifier = policy.NewKeywords(nil, nil)
	}
	if inv.serializer == nil {
		inv.serializer = store.File{}
	}
	if inv.log == nil {
		inv.log = zap.NewNop()
	}

	if cfg.Initialize {
		inv.log.Debug("starting from an empty inventory", zap.String("path", inv.path))
		return inv, nil
	}

	doc, err := inv.serializer.Load(inv.path)
	if err != nil {
		return nil, err
	}
	if doc.Version != SupportedVersion {
		return nil, model.BadData("unsupported inventory format version %d, expected %d",
			doc.Version, SupportedVersion)
	}

	st, err := stateFromDocument(doc)
	if err != nil {
		return nil, err
	}
	inv.st = st

	sum, err := Checksum(doc)
	if err != nil {
		return nil, err
	}
	switch {
	case sum != doc.Checksum:
		inv.log.Info("inventory checksum mismatch, recalculating",
			zap.String("path", inv.path), zap.String("stored", doc.Checksum), zap.String("computed", sum))
		inv.recalculated = true
	case st.hasPending():
		// Allocation is deterministic, so the addresses handed out here are
		// the same until the next saving command persists them.
		inv.log.Info("inventory requests address allocation, recalculating", zap.String("path", inv.path))
	default:
		return inv, nil
	}

	if err := inv.Recalculate(); err != nil {
		return nil, err
	}
	return inv, nil
}

// Path returns the location the inventory is loaded from and saved to.
func (inv *Inventory) Path() string {
	return inv.path
}

// Version returns the document format version.
func (inv *Inventory) Version() int {
	return inv.version
}

// IsRecalculated reports whether Open had to rebuild derived state because
// the stored checksum did not match. Serving pending allocations in a file
// whose checksum matches does not count.
func (inv *Inventory) IsRecalculated() bool {
	return inv.recalculated
}

// Save writes the inventory back with a fresh checksum. Unchanged content
// is written byte for byte as it was loaded.
func (inv *Inventory) Save() error {
	doc := documentFromState(inv.st, inv.version)
	sum, err := Checksum(doc)
	if err != nil {
		return err
	}
	doc.Checksum = sum
	if err := inv.serializer.Save(inv.path, doc); err != nil {
		return err
	}
	inv.log.Debug("inventory saved", zap.String("path", inv.path), zap.String("checksum", sum))
	return nil
}

// mutate applies change to a scratch copy, reconciles addresses on it and
// swaps it in only if both steps succeed.
func (inv *Inventory) mutate(change func(s *state) error) error {
	scratch := inv.st.clone()
	if err := change(scratch); err != nil {
		return err
	}
	if err := inv.reconcile(scratch, model.KindMalformedInput); err != nil {
		return err
	}
	inv.st = scratch
	return nil
}
