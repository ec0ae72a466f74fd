// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-jwx.
//
// go-jwx is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package provider

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/jeremyhahn/go-jwx/pkg/metrics"
	"github.com/jeremyhahn/go-jwx/pkg/types"
	"golang.org/x/sys/cpu"
)

var (
	registryMu sync.Mutex
	registry   = []Backend{softwareBackend{}}
	frozen     bool

	probeOnce    sync.Once
	capabilities *Capabilities
)

// keyKinds are the families Probe selects a backend for.
var keyKinds = []types.KeyKind{types.KeyKindRSA, types.KeyKindECDSA, types.KeyKindDSA}

// BackendInfo is the probe result for one backend.
type BackendInfo struct {
	Name      string `json:"name" yaml:"name"`
	Available bool   `json:"available" yaml:"available"`
	Reentrant bool   `json:"reentrant" yaml:"reentrant"`
}

// Capabilities is the process-wide, read-only result of Probe.
type Capabilities struct {
	backends []BackendInfo
	selected map[types.KeyKind]string
	aesni    bool
	arch     string
}

// Backends returns the probe result of every registered backend, in
// registration order.
func (c *Capabilities) Backends() []BackendInfo {
	out := make([]BackendInfo, len(c.backends))
	copy(out, c.backends)
	return out
}

// Selected returns the backend chosen for a key family by auto selection.
func (c *Capabilities) Selected(kind types.KeyKind) string {
	if name, ok := c.selected[kind]; ok {
		return name
	}
	return BackendSoftware
}

// HasAESNI reports whether the CPU has AES instructions.
func (c *Capabilities) HasAESNI() bool {
	return c.aesni
}

// Arch returns the GOARCH the probe ran on.
func (c *Capabilities) Arch() string {
	return c.arch
}

// Register adds a backend to the registry. It must be called before the
// first Probe, typically from main or an init function.
func Register(b Backend) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if frozen {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, b.Name())
	}
	for _, existing := range registry {
		if existing.Name() == b.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateBackend, b.Name())
		}
	}
	registry = append(registry, b)
	return nil
}

// Probe inspects every registered backend and the CPU exactly once and
// freezes the registry. Later calls return the same Capabilities.
func Probe() *Capabilities {
	probeOnce.Do(func() {
		registryMu.Lock()
		defer registryMu.Unlock()
		frozen = true
		capabilities = probe(registry)
	})
	return capabilities
}

func probe(backends []Backend) *Capabilities {
	caps := &Capabilities{
		selected: make(map[types.KeyKind]string, len(keyKinds)),
		aesni:    cpu.X86.HasAES || cpu.ARM64.HasAES,
		arch:     runtime.GOARCH,
	}

	native := ""
	for _, b := range backends {
		info := BackendInfo{Name: b.Name(), Available: b.Available(), Reentrant: b.Reentrant()}
		caps.backends = append(caps.backends, info)
		if native == "" && info.Available && info.Name != BackendSoftware {
			native = info.Name
		}
	}

	for _, kind := range keyKinds {
		name := BackendSoftware
		if native != "" {
			name = native
		}
		caps.selected[kind] = name
		metrics.SetBackendSelected(string(kind), name)
	}
	return caps
}

// Lookup returns a registered backend by name.
func Lookup(name string) (Backend, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, b := range registry {
		if b.Name() == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, name)
}

// BackendNames returns the names of all registered backends, sorted.
func BackendNames() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for _, b := range registry {
		names = append(names, b.Name())
	}
	sort.Strings(names)
	return names
}
