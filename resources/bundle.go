// Package resources implements resource binding: a process-wide,
// read-only-to-the-core map from node-instance name to the shared
// pipeline, tokenizer, and wake notifier that instance uses.
//
// The map is populated by an external loader before the first Open and
// torn down after all instances close; the core itself never writes to it.
package resources

import (
	"sync"

	"github.com/vajain-rhods/openvino-model-server/api"
	"github.com/vajain-rhods/openvino-model-server/pipeline"
)

// Bundle holds the shared resources one node instance binds to at Open.
type Bundle struct {
	Pipeline pipeline.Pipeline
	Notifier pipeline.Notifier
}

// Map is the process-wide registry keyed by node-instance name. Safe for
// concurrent Lookup from many calculator instances; Set/Delete are expected
// to run only from the loader at startup/shutdown, guarded by the same
// mutex for simplicity.
type Map struct {
	mu    sync.RWMutex
	nodes map[string]Bundle
}

// NewMap returns an empty registry.
func NewMap() *Map {
	return &Map{nodes: make(map[string]Bundle)}
}

// Set registers (or replaces) the bundle for a node-instance name.
func (m *Map) Set(name string, b Bundle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[name] = b
}

// Delete removes a node-instance's bundle, e.g. on teardown.
func (m *Map) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, name)
}

// Lookup resolves a node-instance name to its bundle. A missing name is
// returned as an *api.StatusError with Kind NotFound.
func (m *Map) Lookup(name string) (Bundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.nodes[name]
	if !ok {
		return Bundle{}, api.NewStatusError(api.NotFound, "no resource bundle registered for node %q", name)
	}
	return b, nil
}
