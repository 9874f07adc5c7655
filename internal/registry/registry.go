// Package registry is the job-name -> function lookup table consulted
// by the executor and by the FFI's list_job_types call. It mirrors the
// original's JOB_KV table (src/system/job_system.rs), a map populated
// at startup by the internal/jobs init functions. Register does not
// refuse later calls; the tests use it to add their own jobs.
package registry

import (
	"encoding/json"
	"sort"
	"sync"
)

// JobFunc is a registered job: it takes the node's input document and
// returns a document of the form {"result": <object>, "status": <uint>}
// (spec.md §4.7). A job function never returns a Go error; failures
// are reported through the same document shape the caller expects.
type JobFunc func(input json.RawMessage) json.RawMessage

var (
	mu       sync.RWMutex
	registry = make(map[string]JobFunc)
)

// Register adds or replaces the job function bound to name. Called
// from internal/jobs init functions; not meant to be called after the
// program has started executing graphs.
func Register(name string, fn JobFunc) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = fn
}

// Lookup returns the job function bound to name, if any.
func Lookup(name string) (JobFunc, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[name]
	return fn, ok
}

// Names returns every registered job name, sorted, for list_job_types.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
