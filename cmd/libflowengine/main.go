// Command libflowengine builds as a C shared library (go build
// -buildmode=c-shared) exporting the job system's C ABI: create/
// destroy a JobSystem, add workers, submit/await/poll a job, and list
// registered job names. Every exported function takes and returns a
// JSON-encoded *C.char; the caller owns and must release every
// returned pointer with FreeString. Grounded on
// original_source/src/system/job_system.rs's `pub mod ffi` block.
//
// cgo is the only way to produce a C ABI from Go; there is no
// third-party substitute for it. -buildmode=c-shared requires package
// main, so this lives under cmd/ rather than pkg/ despite exporting a
// library, not a CLI.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/nuulab/flowengine/internal/job"
	"github.com/nuulab/flowengine/internal/jobsystem"
	"github.com/nuulab/flowengine/internal/registry"

	_ "github.com/nuulab/flowengine/internal/jobs"
)

var (
	idCounter atomic.Uint64

	systemsMu sync.RWMutex
	systems   = make(map[uint64]*jobsystem.System[json.RawMessage, json.RawMessage])

	jobsMu sync.RWMutex
	jobs   = make(map[uint64]*job.Handle[json.RawMessage, json.RawMessage])
)

func recoverDoc(recovered any) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": fmt.Sprintf("panic in job function: %v", recovered)})
	return b
}

func toC(v any) *C.char {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
	}
	return C.CString(string(b))
}

func parseArg(p *C.char) (map[string]json.RawMessage, error) {
	if p == nil {
		return nil, fmt.Errorf("json_str_ptr was a null pointer")
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(C.GoString(p)), &m); err != nil {
		return nil, fmt.Errorf("unable to parse json")
	}
	return m, nil
}

func argUint64(m map[string]json.RawMessage, key string) (uint64, bool) {
	raw, ok := m[key]
	if !ok {
		return 0, false
	}
	var v uint64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

func argString(m map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := m[key]
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

//export CreateJobSystem
func CreateJobSystem() *C.char {
	sys := jobsystem.New[json.RawMessage, json.RawMessage](recoverDoc)
	id := idCounter.Add(1)

	systemsMu.Lock()
	systems[id] = sys
	systemsMu.Unlock()

	return toC(map[string]any{"success": true, "system_id": id})
}

//export DestroyJobSystem
func DestroyJobSystem(jsonStrPtr *C.char) *C.char {
	m, err := parseArg(jsonStrPtr)
	if err != nil {
		return toC(map[string]string{"error": err.Error()})
	}
	id, ok := argUint64(m, "system_id")
	if !ok {
		return toC(map[string]any{"success": false, "error": "'system_id' key is not a valid number or may not exist"})
	}

	systemsMu.Lock()
	sys, ok := systems[id]
	if ok {
		delete(systems, id)
	}
	systemsMu.Unlock()
	if !ok {
		return toC(map[string]any{"success": false, "error": "specified system id was not found"})
	}
	sys.Close()

	return toC(map[string]any{"success": true})
}

//export AddWorker
func AddWorker(jsonStrPtr *C.char) *C.char {
	m, err := parseArg(jsonStrPtr)
	if err != nil {
		return toC(map[string]string{"error": err.Error()})
	}
	id, ok := argUint64(m, "system_id")
	if !ok {
		return toC(map[string]any{"success": false, "error": "'system_id' key is not a valid number or may not exist"})
	}

	systemsMu.RLock()
	sys, ok := systems[id]
	systemsMu.RUnlock()
	if !ok {
		return toC(map[string]any{"success": false, "error": "specified system id could not be found"})
	}
	sys.AddWorker()

	return toC(map[string]any{"success": true})
}

//export SendJob
func SendJob(jsonStrPtr *C.char) *C.char {
	m, err := parseArg(jsonStrPtr)
	if err != nil {
		return toC(map[string]string{"error": err.Error()})
	}
	systemID, ok := argUint64(m, "system_id")
	if !ok {
		return toC(map[string]any{"success": false, "error": "'system_id' key is not a valid number or may not exist"})
	}
	jobType, ok := argString(m, "type")
	if !ok {
		return toC(map[string]any{"success": false, "error": "'type' key is not a string or may not exist"})
	}

	systemsMu.RLock()
	sys, ok := systems[systemID]
	systemsMu.RUnlock()
	if !ok {
		return toC(map[string]any{"success": false, "error": "specified system id could not be found"})
	}

	fn, ok := registry.Lookup(jobType)
	if !ok {
		return toC(map[string]any{"success": false, "error": fmt.Sprintf("job type '%s' was not found", jobType)})
	}

	input := m["input"]
	if input == nil {
		input = json.RawMessage("{}")
	}

	id := idCounter.Add(1)
	h := sys.SendJob(input, func(in json.RawMessage) json.RawMessage { return fn(in) })

	jobsMu.Lock()
	jobs[id] = h
	jobsMu.Unlock()

	return toC(map[string]any{"success": true, "handle_id": id})
}

//export GetJob
func GetJob(jsonStrPtr *C.char) *C.char {
	m, err := parseArg(jsonStrPtr)
	if err != nil {
		return toC(map[string]string{"error": err.Error()})
	}
	id, ok := argUint64(m, "handle_id")
	if !ok {
		return toC(map[string]any{"success": false, "error": "'type' handle_id is not a valid number or may not exist"})
	}

	jobsMu.Lock()
	h, ok := jobs[id]
	if ok {
		delete(jobs, id)
	}
	jobsMu.Unlock()
	if !ok {
		return toC(map[string]any{"success": false, "error": "specified handle id was not found"})
	}

	return toC(map[string]any{"success": true, "result": h.Get()})
}

//export GetJobStatus
func GetJobStatus(jsonStrPtr *C.char) *C.char {
	m, err := parseArg(jsonStrPtr)
	if err != nil {
		return toC(map[string]string{"error": err.Error()})
	}
	id, ok := argUint64(m, "handle_id")
	if !ok {
		return toC(map[string]any{"success": false, "error": "'type' handle_id is not a valid number or may not exist"})
	}

	jobsMu.RLock()
	h, ok := jobs[id]
	jobsMu.RUnlock()
	if !ok {
		return toC(map[string]any{"success": false, "error": "specified handle id was not found"})
	}

	return toC(map[string]any{"success": true, "status": h.GetStatus().String()})
}

//export ListJobTypes
func ListJobTypes() *C.char {
	return toC(map[string]any{"entries": registry.Names()})
}

//export FreeString
func FreeString(ptr *C.char) {
	C.free(unsafe.Pointer(ptr))
}

func main() {}
