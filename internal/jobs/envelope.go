package jobs

import (
	"encoding/json"
	"fmt"
)

// input unwraps the {"input": ...} envelope every job function
// receives, root or not (internal/dsl execute.go wraps both the root
// 'data' attribute and every successor payload this way).
func input(payload json.RawMessage) json.RawMessage {
	var env struct {
		Input json.RawMessage `json:"input"`
	}
	if err := json.Unmarshal(payload, &env); err != nil || env.Input == nil {
		return json.RawMessage("{}")
	}
	return env.Input
}

// resultDoc builds the {"result": ..., "status": ...} document every
// job function must return (spec.md §4.7).
func resultDoc(result any, status uint64) json.RawMessage {
	b, err := json.Marshal(struct {
		Result any    `json:"result"`
		Status uint64 `json:"status"`
	}{Result: result, Status: status})
	if err != nil {
		return errResultDoc("failed to encode result: %v", err)
	}
	return b
}

// errResultDoc is resultDoc's failure path: status 1 terminates most
// graphs (they have no second outgoing edge from a node whose only
// purpose is to succeed), surfacing the error as the result body.
func errResultDoc(format string, args ...any) json.RawMessage {
	return resultDoc(map[string]string{"error": fmt.Sprintf(format, args...)}, 1)
}
