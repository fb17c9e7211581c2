// Package inventory is the consistency and allocation engine of the tool.
//
// An Inventory owns three collections keyed by canonical name: address
// pools, hosts and groups. Groups refer to hosts, child groups and pools by
// name only; every cross-reference is resolved through the Inventory at use
// time, so renaming or deleting an entity never leaves a dangling pointer,
// only a name that recalculation prunes.
//
// Recalculation rebuilds everything derived from the declarations:
//
//  1. host and alias names are normalized (denormalized hosts are renamed,
//     colliding ones merged)
//  2. pools are checked pairwise for overlapping networks
//  3. group references to missing hosts and child groups are pruned
//  4. effective group membership is derived (transitively through
//     children, with a cycle guard)
//  5. address variables are reconciled with pool allocations: bound values
//     are marked allocated, null values get the next free address
//  6. allocations no longer referenced by any host variable are released
//
// Recalculation and every mutation run against a scratch copy of the
// collections that replaces the live one only on success, so a failed
// operation never leaves partial changes behind.
//
// A content checksum stored in the document decides whether recalculation
// can be skipped at load time.
package inventory
