package inventory

import (
	"encoding/json"
	"fmt"

	"go.uber.org/multierr"

	"github.com/shinji-kodama/inventory-tool/internal/model"
)

// allGroup is the group Ansible treats as containing every host.
const allGroup = "all"

// AnsibleGroup is one group entry of the Ansible dynamic inventory.
type AnsibleGroup struct {
	Children []string          `json:"children"`
	Hosts    []string          `json:"hosts"`
	Vars     map[string]string `json:"vars"`
}

// AnsibleInventory is the document printed by an Ansible dynamic inventory
// script for --list.
type AnsibleInventory struct {
	// HostVars maps host names to their variables, aliases included.
	HostVars map[string]map[string]interface{}

	// Groups maps group names to their entries. It always has an "all" entry.
	Groups map[string]AnsibleGroup
}

// MarshalJSON renders the inventory in the layout Ansible expects, with
// host variables under "_meta".
func (a *AnsibleInventory) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(a.Groups)+1)
	for name, group := range a.Groups {
		out[name] = group
	}
	out["_meta"] = map[string]interface{}{"hostvars": a.HostVars}
	return json.Marshal(out)
}

// AnsibleView projects the inventory onto the Ansible dynamic
// inventory layout.
//
// It fails with BadData when the inventory is incomplete: a group lists a
// host that does not exist, a member lacks a variable its group binds to a
// pool, or an allocation is still pending. Every problem found is reported.
func (inv *Inventory) AnsibleView() (*AnsibleInventory, error) {
	if err := inv.checkComplete(); err != nil {
		return nil, err
	}

	s := inv.st
	view := &AnsibleInventory{
		HostVars: make(map[string]map[string]interface{}, len(s.hosts)),
		Groups:   make(map[string]AnsibleGroup, len(s.groups)+1),
	}
	for _, name := range s.hostNames() {
		view.HostVars[name] = hostVars(s.hosts[name])
	}
	for _, name := range s.groupNames() {
		g := s.groups[name]
		view.Groups[name] = AnsibleGroup{
			Children: g.Children(),
			Hosts:    g.Hosts(),
			Vars:     map[string]string{},
		}
	}

	all := AnsibleGroup{
		Children: []string{},
		Hosts:    s.hostNames(),
		Vars:     map[string]string{},
	}
	if g, ok := s.groups[allGroup]; ok {
		all.Children = g.Children()
	}
	view.Groups[allGroup] = all

	return view, nil
}

// AnsibleHostVars returns the variables of one host as printed for --host.
func (inv *Inventory) AnsibleHostVars(name string) (map[string]interface{}, error) {
	_, h, err := inv.lookupHost(inv.st, name)
	if err != nil {
		return nil, err
	}
	if pending := h.Pending(); len(pending) > 0 {
		return nil, model.BadData("host %q still waits for allocation of %v", name, pending)
	}
	return hostVars(h), nil
}

func hostVars(h *Host) map[string]interface{} {
	vars := make(map[string]interface{}, len(h.keyvals)+1)
	for key, value := range h.keyvals {
		vars[key] = value
	}
	vars[aliasesKey] = h.Aliases()
	return vars
}

// checkComplete collects every reason the inventory cannot be rendered.
func (inv *Inventory) checkComplete() error {
	s := inv.st
	index, err := s.memberships()
	if err != nil {
		return err
	}

	var problems error
	for _, name := range s.groupNames() {
		g := s.groups[name]
		for _, host := range g.Hosts() {
			if _, ok := s.hosts[host]; !ok {
				problems = multierr.Append(problems, fmt.Errorf("group %q lists missing host %q", name, host))
			}
		}
		bindings := g.IPPools()
		for _, host := range sortedSet(index[name]) {
			for _, key := range sortedNames(bindings) {
				if !s.hosts[host].HasVar(key) {
					problems = multierr.Append(problems, fmt.Errorf(
						"host %q of group %q has no value for %q bound to ippool %q",
						host, name, key, bindings[key]))
				}
			}
		}
	}
	for _, host := range s.hostNames() {
		for _, key := range s.hosts[host].Pending() {
			problems = multierr.Append(problems, fmt.Errorf("host %q still waits for allocation of %q", host, key))
		}
	}

	if problems != nil {
		return model.WrapBadData(problems, "inventory is incomplete")
	}
	return nil
}
