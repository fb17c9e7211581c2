package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/inventory-tool/internal/model"
)

func groupOf(t *testing.T, inv *Inventory, name string) *Group {
	t.Helper()
	g, err := inv.Group(name)
	require.NoError(t, err)
	return g
}

// TestGroup_Lookup verifies listing and lookups.
func TestGroup_Lookup(t *testing.T) {
	inv := openFixture(t, "hosts-production.yml")

	assert.Equal(t, []string{"front", "guests-y1", "hypervisor"}, inv.GroupNames())

	g := groupOf(t, inv, "hypervisor")
	assert.Empty(t, g.Children())
	assert.Equal(t, []string{"y1"}, g.Hosts())
	assert.Equal(t, map[string]string{"tunnel_ip": "tunels"}, g.IPPools())

	_, err := inv.Group("hypervisor2")
	assert.ErrorIs(t, err, model.ErrMalformedInput)
}

// TestGroupAdd verifies group creation.
func TestGroupAdd(t *testing.T) {
	inv := openFixture(t, "hosts-production.yml")

	require.NoError(t, inv.GroupAdd("hypervisor2"))
	g := groupOf(t, inv, "hypervisor2")
	assert.Empty(t, g.Hosts())
	assert.Empty(t, g.Children())
	assert.Empty(t, g.IPPools())

	assert.ErrorIs(t, inv.GroupAdd("hypervisor"), model.ErrMalformedInput)
	assert.ErrorIs(t, inv.GroupAdd(""), model.ErrMalformedInput)
}

// TestGroupDel verifies removal with and without children.
func TestGroupDel(t *testing.T) {
	t.Run("without children", func(t *testing.T) {
		inv := openFixture(t, "hosts-production.yml")
		require.NoError(t, inv.GroupDel("front"))

		_, err := inv.Group("front")
		assert.ErrorIs(t, err, model.ErrMalformedInput)
	})

	t.Run("children move to parents", func(t *testing.T) {
		inv := openFixture(t, "child-groups.yml")
		require.NoError(t, inv.GroupDel("front"))

		assert.Equal(t, []string{"all-guests", "edge"}, groupOf(t, inv, "all").Children())
		groups, err := inv.HostToGroups("foobarator.y1")
		require.NoError(t, err)
		assert.Contains(t, groups, "all")
	})

	t.Run("leaf child", func(t *testing.T) {
		inv := openFixture(t, "child-groups.yml")
		require.NoError(t, inv.GroupDel("all-guests"))

		assert.Equal(t, []string{"front", "guests-y1"}, groupOf(t, inv, "all").Children())
	})

	t.Run("missing group", func(t *testing.T) {
		inv := openFixture(t, "hosts-production.yml")
		assert.ErrorIs(t, inv.GroupDel("hypervisor2"), model.ErrMalformedInput)
	})
}

// TestGroupChild verifies child links.
func TestGroupChild(t *testing.T) {
	inv := openFixture(t, "hosts-production.yml")

	require.NoError(t, inv.GroupChildAdd("hypervisor", "front"))
	assert.Equal(t, []string{"front"}, groupOf(t, inv, "hypervisor").Children())

	assert.ErrorIs(t, inv.GroupChildAdd("hypervisor", "front"), model.ErrMalformedInput)
	assert.ErrorIs(t, inv.GroupChildAdd("hypervisor2", "front"), model.ErrMalformedInput)
	assert.ErrorIs(t, inv.GroupChildAdd("hypervisor", "blabla"), model.ErrMalformedInput)

	require.NoError(t, inv.GroupChildDel("hypervisor", "front"))
	assert.Empty(t, groupOf(t, inv, "hypervisor").Children())
	assert.ErrorIs(t, inv.GroupChildDel("hypervisor", "front"), model.ErrMalformedInput)
	assert.ErrorIs(t, inv.GroupChildDel("all2", "front"), model.ErrMalformedInput)
}

// TestGroupChildAdd_RejectsCycles verifies that no link can close a cycle.
func TestGroupChildAdd_RejectsCycles(t *testing.T) {
	inv := openFixture(t, "child-groups.yml")

	assert.ErrorIs(t, inv.GroupChildAdd("edge", "edge"), model.ErrMalformedInput)
	assert.ErrorIs(t, inv.GroupChildAdd("edge", "all"), model.ErrMalformedInput)
	assert.ErrorIs(t, inv.GroupChildAdd("guests-y1", "all-guests"), model.ErrMalformedInput)

	require.NoError(t, inv.GroupChildAdd("guests-y1", "edge"))
}

// TestGroupChildDel_ChildGroups verifies removal from the fixture with
// nested groups.
func TestGroupChildDel_ChildGroups(t *testing.T) {
	inv := openFixture(t, "child-groups.yml")
	require.NoError(t, inv.GroupChildDel("all", "front"))

	assert.Equal(t, []string{"all-guests"}, groupOf(t, inv, "all").Children())
}

// TestGroupHost verifies declared membership changes.
func TestGroupHost(t *testing.T) {
	inv := openFixture(t, "hosts-production.yml")

	require.NoError(t, inv.GroupHostAdd("hypervisor", "foobarator.y1.example.com"))
	assert.Equal(t, []string{"foobarator.y1", "y1"}, groupOf(t, inv, "hypervisor").Hosts())

	assert.ErrorIs(t, inv.GroupHostAdd("hypervisor", "foobarator.y1"), model.ErrMalformedInput)
	assert.ErrorIs(t, inv.GroupHostAdd("hypervisor2", "foobarator.y1"), model.ErrMalformedInput)
	assert.ErrorIs(t, inv.GroupHostAdd("hypervisor", "bumbum"), model.ErrMalformedInput)

	require.NoError(t, inv.GroupHostDel("hypervisor", "y1"))
	assert.Equal(t, []string{"foobarator.y1"}, groupOf(t, inv, "hypervisor").Hosts())

	assert.ErrorIs(t, inv.GroupHostDel("hypervisor", "y1"), model.ErrMalformedInput)
	assert.ErrorIs(t, inv.GroupHostDel("hypervisor2", "foobarator.y1"), model.ErrMalformedInput)
}

// TestGroupHostDel_KeepsAddressInUse verifies that leaving the group that
// binds an address variable keeps the address allocated while the host
// still holds it.
func TestGroupHostDel_KeepsAddressInUse(t *testing.T) {
	inv := openFixture(t, "hosts-production.yml")
	require.NoError(t, inv.GroupHostDel("hypervisor", "y1"))

	allocated, _ := addrs(t, inv, "tunels")
	assert.Equal(t, []string{"192.168.255.125"}, allocated)
	assert.Equal(t, "192.168.255.125", hostVarsOf(t, inv, "y1")["tunnel_ip"])
}

// TestIPPoolAssign_AmbiguousBinding verifies that binding a key a member
// already draws from another pool is refused.
func TestIPPoolAssign_AmbiguousBinding(t *testing.T) {
	inv := openFixture(t, "hosts-production.yml")

	// y1-front.foobar is in front and in guests-y1.
	err := inv.IPPoolAssign("tunels", "front", "ansible_ssh_host")
	assert.ErrorIs(t, err, model.ErrBadData)
	assert.Empty(t, groupOf(t, inv, "front").IPPools())
}
