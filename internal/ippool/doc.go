// Package ippool implements the address pool entity of the inventory.
//
// A Pool owns one CIDR network block plus two disjoint subsets of it:
// reserved addresses (booked manually by an operator) and allocated
// addresses (handed out to host variables). Allocation is deterministic:
// NextFree always returns the lowest address in the block that is neither
// reserved nor allocated, skipping the network and broadcast addresses of
// IPv4 blocks and the subnet-router anycast address of IPv6 blocks.
//
// Pools never reference hosts or groups. The inventory package decides
// which addresses should be allocated and drives the pool accordingly.
package ippool
