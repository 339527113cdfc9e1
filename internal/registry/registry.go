// Package registry holds the static, ordered list of diagnostic probes.
// Adding a probe means adding an entry here (or in a config file); no
// other component changes.
package registry

import (
	"fmt"

	"bytemomo/remora/internal/domain"
)

// Default returns the built-in probe set in bundle order.
func Default() []domain.ProbeSpec {
	return []domain.ProbeSpec{
		{ID: "hostinfo", Kind: domain.Builtin, Command: []string{"hostinfo"}, TimeoutSeconds: 10, Required: true},
		{ID: "cpu", Kind: domain.Exec, Command: []string{"lscpu"}, TimeoutSeconds: 15, Required: true},
		{ID: "numa", Kind: domain.Exec, Command: []string{"numactl", "--hardware"}, TimeoutSeconds: 15},
		{ID: "memory", Kind: domain.Exec, Command: []string{"free", "-m"}, TimeoutSeconds: 10, Required: true},
		{ID: "gpu", Kind: domain.Exec, Command: []string{"nvidia-smi", "-q"}, TimeoutSeconds: 30},
		{ID: "storage", Kind: domain.Exec, Command: []string{"lsblk", "-O"}, TimeoutSeconds: 15},
		{ID: "io", Kind: domain.Exec, Command: []string{"iostat", "-x", "1", "2"}, TimeoutSeconds: 30},
		{ID: "network", Kind: domain.Exec, Command: []string{"ip", "-d", "addr"}, TimeoutSeconds: 15, Required: true},
		{ID: "sockets", Kind: domain.Exec, Command: []string{"ss", "-tulpn"}, TimeoutSeconds: 15},
		{ID: "listeners", Kind: domain.Builtin, Command: []string{"listeners"}, TimeoutSeconds: 120},
		{ID: "security", Kind: domain.Exec, Command: []string{"sestatus", "-v"}, TimeoutSeconds: 15},
		{ID: "virt", Kind: domain.Exec, Command: []string{"systemd-detect-virt", "--list"}, TimeoutSeconds: 10},
		{ID: "firmware", Kind: domain.Exec, Command: []string{"dmidecode"}, TimeoutSeconds: 30},
		{ID: "kernel", Kind: domain.Exec, Command: []string{"uname", "-a"}, TimeoutSeconds: 10, Required: true},
	}
}

// Registry is an ordered, immutable-after-build probe list.
type Registry struct {
	specs []domain.ProbeSpec
	index map[string]int
}

// New builds a registry from the given specs, validating each.
func New(specs []domain.ProbeSpec) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(specs))}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.index[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate probe id %q", spec.ID)
		}
		r.index[spec.ID] = len(r.specs)
		r.specs = append(r.specs, spec)
	}
	return r, nil
}

// Apply merges extra specs on top of the registry: a spec whose id is
// already known replaces that entry in place (keeping its position), a
// new id is appended at the end. Used for site-specific config files.
func (r *Registry) Apply(extra []domain.ProbeSpec) error {
	for _, spec := range extra {
		if err := spec.Validate(); err != nil {
			return err
		}
		if i, ok := r.index[spec.ID]; ok {
			r.specs[i] = spec
			continue
		}
		r.index[spec.ID] = len(r.specs)
		r.specs = append(r.specs, spec)
	}
	return nil
}

// List returns the enabled probes in registry order.
func (r *Registry) List() []domain.ProbeSpec {
	out := make([]domain.ProbeSpec, 0, len(r.specs))
	for _, spec := range r.specs {
		if spec.Disabled {
			continue
		}
		out = append(out, spec)
	}
	return out
}

// Lookup finds a probe by id, including disabled ones.
func (r *Registry) Lookup(id string) (domain.ProbeSpec, bool) {
	i, ok := r.index[id]
	if !ok {
		return domain.ProbeSpec{}, false
	}
	return r.specs[i], true
}
