package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shinji-kodama/inventory-tool/internal/model"
	"github.com/shinji-kodama/inventory-tool/internal/policy"
	"github.com/shinji-kodama/inventory-tool/internal/store"
)

var testKeywords = policy.NewKeywords(
	[]string{"ansible_ssh_host", "tunnel_ip", "var_without_pool"}, nil)

var testNetworkKeywords = policy.NewKeywords(
	[]string{"ansible_ssh_host", "tunnel_ip", "var_without_pool"}, []string{"guest_net"})

// testNormalizer strips example.com from a handful of known names and
// leaves everything else alone.
var testNormalizer = policy.NormalizerFunc(func(name string) string {
	switch name {
	case "foobarator.y1.example.com":
		return "foobarator.y1"
	case "gulgulator.example.com":
		return "gulgulator"
	case "other.example.com":
		return "other"
	case "y1-front.foobar.example.com":
		return "y1-front.foobar"
	}
	return name
})

// fixtureConfig copies a testdata fixture into a temporary directory so
// that saving never touches the checked-in file.
func fixtureConfig(t *testing.T, fixture string) Config {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", fixture))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), fixture)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	return Config{
		Path:       path,
		Normalizer: testNormalizer,
		Classifier: testKeywords,
		Logger:     zaptest.NewLogger(t),
	}
}

func openFixture(t *testing.T, fixture string) *Inventory {
	t.Helper()
	inv, err := Open(fixtureConfig(t, fixture))
	require.NoError(t, err)
	return inv
}

func addrs(t *testing.T, inv *Inventory, pool string) (allocated, reserved []string) {
	t.Helper()
	p, err := inv.IPPool(pool)
	require.NoError(t, err)
	return addrStrings(p.Allocated()), addrStrings(p.Reserved())
}

// failingSerializer loads like store.File but refuses to write.
type failingSerializer struct {
	store.File
}

func (failingSerializer) Save(path string, _ *store.Document) error {
	return model.MalformedInput("cannot write %s", path)
}

// TestOpen_Initialize verifies that initialize mode never reads the file.
func TestOpen_Initialize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yml")
	inv, err := Open(Config{Path: path, Initialize: true})
	require.NoError(t, err)

	assert.Empty(t, inv.HostNames())
	assert.Empty(t, inv.GroupNames())
	assert.Empty(t, inv.IPPoolNames())
	assert.False(t, inv.IsRecalculated())
	assert.Equal(t, SupportedVersion, inv.Version())
	assert.Equal(t, path, inv.Path())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "initialize mode must not create the file before Save")
}

// TestOpen_Errors verifies the load-time failure kinds.
func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
		kind    error
	}{
		{"unsupported version", "unsupported-version.yml", model.ErrBadData},
		{"overlapping ippools", "overlapping-ippools.yml", model.ErrBadData},
		{"child group cycle", "group-cycle.yml", model.ErrBadData},
		{"sentinel without binding", "broken-autoallocation.yml", model.ErrBadData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(fixtureConfig(t, tt.fixture))
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Open(Config{Path: filepath.Join(t.TempDir(), "missing.yml")})
		assert.ErrorIs(t, err, model.ErrMalformedInput)
	})
}

// TestOpen_CycleMessage verifies that a detected cycle names its groups.
func TestOpen_CycleMessage(t *testing.T) {
	_, err := Open(fixtureConfig(t, "group-cycle.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a -> b -> c -> a")
}

// TestOpen_LoadsDeclarations verifies that every entity of the main
// fixture is loaded as declared.
func TestOpen_LoadsDeclarations(t *testing.T) {
	inv := openFixture(t, "hosts-production.yml")

	assert.Equal(t, []string{"foobarator.y1", "y1", "y1-front.foobar"}, inv.HostNames())
	assert.Equal(t, []string{"front", "guests-y1", "hypervisor"}, inv.GroupNames())
	assert.Equal(t, []string{"tunels", "y1_guests"}, inv.IPPoolNames())

	allocated, reserved := addrs(t, inv, "y1_guests")
	assert.Equal(t, []string{"192.168.125.2", "192.168.125.3"}, allocated)
	assert.Equal(t, []string{"192.168.125.1"}, reserved)

	allocated, reserved = addrs(t, inv, "tunels")
	assert.Equal(t, []string{"192.168.255.125"}, allocated)
	assert.Empty(t, reserved)

	g, err := inv.Group("guests-y1")
	require.NoError(t, err)
	assert.Equal(t, []string{"foobarator.y1", "y1-front.foobar"}, g.Hosts())
	assert.Equal(t, map[string]string{"ansible_ssh_host": "y1_guests"}, g.IPPools())

	h, err := inv.Host("y1-front.foobar")
	require.NoError(t, err)
	assert.Equal(t, []string{"front-foobar.y1"}, h.Aliases())
	assert.Equal(t, map[string]string{"ansible_ssh_host": "192.168.125.2"}, h.Vars())
}

// TestOpen_ChecksumGate verifies that a saved inventory is trusted on the
// next load and that an unchanged inventory saves to identical bytes.
func TestOpen_ChecksumGate(t *testing.T) {
	cfg := fixtureConfig(t, "hosts-production.yml")

	inv, err := Open(cfg)
	require.NoError(t, err)
	assert.True(t, inv.IsRecalculated(), "fixture checksum is stale")
	require.NoError(t, inv.Save())

	first, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)

	reopened, err := Open(cfg)
	require.NoError(t, err)
	assert.False(t, reopened.IsRecalculated())
	require.NoError(t, reopened.Save())

	second, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	doc, err := store.Unmarshal(second)
	require.NoError(t, err)
	sum, err := Checksum(doc)
	require.NoError(t, err)
	assert.Equal(t, sum, doc.Checksum)
	assert.Len(t, doc.Checksum, 64)
}

// TestOpen_EditedFileIsRecalculated verifies that any change made behind
// the tool's back invalidates the checksum.
func TestOpen_EditedFileIsRecalculated(t *testing.T) {
	cfg := fixtureConfig(t, "hosts-production.yml")
	inv, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, inv.Save())

	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	doc, err := store.Unmarshal(data)
	require.NoError(t, err)
	extra := "1"
	doc.Hosts["y1"].Keyvals["extra"] = &extra
	out, err := store.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.Path, out, 0o644))

	reopened, err := Open(cfg)
	require.NoError(t, err)
	assert.True(t, reopened.IsRecalculated())
}

// TestSave_WriteFailure verifies that a failed write surfaces as
// MalformedInput.
func TestSave_WriteFailure(t *testing.T) {
	cfg := fixtureConfig(t, "hosts-production.yml")
	cfg.Serializer = failingSerializer{}
	inv, err := Open(cfg)
	require.NoError(t, err)

	assert.ErrorIs(t, inv.Save(), model.ErrMalformedInput)
}

// TestSave_InitializedInventory verifies that an empty inventory can be
// written and loaded back.
func TestSave_InitializedInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.yml")
	inv, err := Open(Config{Path: path, Initialize: true})
	require.NoError(t, err)
	require.NoError(t, inv.HostAdd("y1"))
	require.NoError(t, inv.Save())

	reopened, err := Open(Config{Path: path})
	require.NoError(t, err)
	assert.False(t, reopened.IsRecalculated())
	assert.Equal(t, []string{"y1"}, reopened.HostNames())
}

// TestRecalculate_Overlap verifies pool overlap detection.
func TestRecalculate_Overlap(t *testing.T) {
	inv := openFixture(t, "nonoverlapping-ippools.yml")
	assert.NoError(t, inv.Recalculate())

	_, err := Open(fixtureConfig(t, "overlapping-ippools.yml"))
	assert.ErrorIs(t, err, model.ErrBadData)
}

// TestRecalculate_RefreshesPools verifies that allocations follow host
// variables: stale entries are released and used addresses are marked.
func TestRecalculate_RefreshesPools(t *testing.T) {
	inv := openFixture(t, "refreshed-ippool.yml")
	require.NoError(t, inv.Recalculate())

	allocated, _ := addrs(t, inv, "tunels")
	assert.Equal(t, []string{"192.168.1.125"}, allocated)

	allocated, reserved := addrs(t, inv, "y1_guests")
	assert.Equal(t, []string{"192.168.125.2", "192.168.125.3"}, allocated)
	assert.Equal(t, []string{"192.168.125.1"}, reserved, "reservations are never released")
}

// TestRecalculate_Idempotent verifies that a second run changes nothing.
func TestRecalculate_Idempotent(t *testing.T) {
	inv := openFixture(t, "refreshed-ippool.yml")
	before := documentFromState(inv.st, inv.version)

	require.NoError(t, inv.Recalculate())
	assert.Equal(t, before, documentFromState(inv.st, inv.version))
}

// TestRecalculate_PrunesOrphans verifies that references to missing groups
// and hosts disappear without an error.
func TestRecalculate_PrunesOrphans(t *testing.T) {
	inv := openFixture(t, "orphaned.yml")

	tests := []struct {
		group    string
		children []string
		hosts    []string
	}{
		{"all", []string{"all-guests", "front"}, []string{}},
		{"all-guests", []string{"guests-y1"}, []string{}},
		{"front", []string{}, []string{"y1-front.foobar"}},
		{"guests-y1", []string{}, []string{"foobarator.y1", "y1-front.foobar"}},
	}
	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			g, err := inv.Group(tt.group)
			require.NoError(t, err)
			assert.Equal(t, tt.children, g.Children())
			assert.Equal(t, tt.hosts, g.Hosts())
		})
	}
}

// TestRecalculate_HostnameNormalization verifies that denormalized hosts
// are renamed and group references follow.
func TestRecalculate_HostnameNormalization(t *testing.T) {
	inv := openFixture(t, "denormalized-hostnames.yml")

	assert.Equal(t, []string{"foobarator.y1", "y1-front.foobar"}, inv.HostNames())
	g, err := inv.Group("guests-y1")
	require.NoError(t, err)
	assert.Equal(t, []string{"foobarator.y1", "y1-front.foobar"}, g.Hosts())

	h, err := inv.Host("foobarator.y1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ansible_ssh_host": "192.168.125.3"}, h.Vars())
}

// TestRecalculate_AliasNormalization verifies alias rewriting and the
// removal of aliases that collide with a host name or an earlier alias.
func TestRecalculate_AliasNormalization(t *testing.T) {
	inv := openFixture(t, "denormalized-aliases.yml")

	tests := []struct {
		host    string
		aliases []string
	}{
		{"foobarator.y1", []string{"gulgulator", "other", "proper"}},
		{"y1", []string{"other-proper"}},
		{"y1-front.foobar", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			h, err := inv.Host(tt.host)
			require.NoError(t, err)
			assert.Equal(t, tt.aliases, h.Aliases())
		})
	}
}

// TestRecalculate_MergesCollidingHosts verifies that a denormalized host
// whose canonical name is taken is folded into the existing host.
func TestRecalculate_MergesCollidingHosts(t *testing.T) {
	inv := openFixture(t, "colliding-hostnames.yml")

	assert.Equal(t, []string{"gulgulator"}, inv.HostNames())
	h, err := inv.Host("gulgulator")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"role": "primary", "rack": "r12"}, h.Vars())
	assert.Equal(t, []string{"worker-1"}, h.Aliases())

	g, err := inv.Group("workers")
	require.NoError(t, err)
	assert.Equal(t, []string{"gulgulator"}, g.Hosts())
}

// TestRecalculate_PendingAllocation verifies that null values in the
// document are served from the bound pool on load, skipping reservations.
func TestRecalculate_PendingAllocation(t *testing.T) {
	inv := openFixture(t, "pending-allocation.yml")
	assert.True(t, inv.IsRecalculated())

	h, err := inv.Host("y2-front.foobar")
	require.NoError(t, err)
	value, ok := h.Var("tunnel_ip")
	require.True(t, ok)
	assert.Equal(t, "192.168.255.3", value)
	assert.Empty(t, h.Pending())

	allocated, _ := addrs(t, inv, "tunels")
	assert.Equal(t, []string{"192.168.255.1", "192.168.255.3"}, allocated)
}

// TestOpen_PendingWithValidChecksum verifies that serving null values in
// a file the tool saved itself allocates addresses without flagging the
// inventory as recalculated.
func TestOpen_PendingWithValidChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.yml")
	doc := store.NewDocument(SupportedVersion)
	doc.IPPools["tunels"] = store.IPPoolEntry{Network: "192.168.255.0/24"}
	doc.Groups["front"] = store.GroupEntry{
		Hosts:   []string{"h"},
		IPPools: map[string]string{"tunnel_ip": "tunels"},
	}
	doc.Hosts["h"] = store.HostEntry{Keyvals: map[string]*string{"tunnel_ip": nil}}
	require.NoError(t, store.File{}.Save(path, doc))

	loaded, err := store.File{}.Load(path)
	require.NoError(t, err)
	loaded.Checksum, err = Checksum(loaded)
	require.NoError(t, err)
	require.NoError(t, store.File{}.Save(path, loaded))

	inv, err := Open(Config{Path: path, Classifier: testKeywords, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	assert.False(t, inv.IsRecalculated())
	assert.Equal(t, "192.168.255.1", hostVarsOf(t, inv, "h")["tunnel_ip"])

	allocated, _ := addrs(t, inv, "tunels")
	assert.Equal(t, []string{"192.168.255.1"}, allocated)
}

// TestRecalculate_FailureKeepsState verifies that a failed recalculation
// leaves the inventory untouched.
func TestRecalculate_FailureKeepsState(t *testing.T) {
	inv := openFixture(t, "hosts-production.yml")
	before := documentFromState(inv.st, inv.version)

	// y1-front.foobar is in front and guests-y1; binding the same key to a
	// second pool makes it ambiguous.
	inv.st.groups["front"].ippools["ansible_ssh_host"] = "tunels"

	err := inv.Recalculate()
	assert.ErrorIs(t, err, model.ErrBadData)
	assert.Contains(t, err.Error(), "ambiguous binding")

	delete(inv.st.groups["front"].ippools, "ansible_ssh_host")
	assert.Equal(t, before, documentFromState(inv.st, inv.version))
}
