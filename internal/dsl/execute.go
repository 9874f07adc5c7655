package dsl

import (
	"encoding/json"
	"fmt"
	"runtime"
	"sync"

	"github.com/nuulab/flowengine/internal/job"
	"github.com/nuulab/flowengine/internal/jobsystem"
	"github.com/nuulab/flowengine/internal/registry"
)

// ExecuteArgs is the input to the recursive node-executor closure that
// runs on a JobSystem worker goroutine (spec.md §4.7).
type ExecuteArgs struct {
	Payload json.RawMessage
	NodeIdx int
	Graph   *Graph
}

// Result is the per-root outcome of a branch: either the last job's
// returned document (when the branch terminates because the status
// selected no outgoing edge) or an error document (spec.md §4.7, §7
// kind 3). The payload contract is a tagged variant internally
// (Ok(object) | Err(string)) that is always an object on the wire.
type Result struct {
	Doc json.RawMessage
}

func errDoc(format string, args ...any) json.RawMessage {
	b, err := json.Marshal(map[string]string{"error": fmt.Sprintf(format, args...)})
	if err != nil {
		return json.RawMessage(`{"error":"failed to encode error document"}`)
	}
	return b
}

func recoverResult(recovered any) Result {
	return Result{Doc: errDoc("panic in job function: %v", recovered)}
}

// ExecuteNode is the recursive node-executor (spec.md §4.7): resolve
// the node's registered job, invoke it on the incoming payload, read
// the returned status, select the matching outgoing edge in ascending
// order, and recurse on the successor within the same goroutine. A
// node whose job name isn't registered fails just that branch.
func ExecuteNode(args ExecuteArgs) Result {
	node := args.Graph.Nodes[args.NodeIdx]

	fn, ok := registry.Lookup(node.Name)
	if !ok {
		return Result{Doc: errDoc("job name %q is not registered", node.Name)}
	}

	doc := fn(args.Payload)

	var parsed struct {
		Result json.RawMessage `json:"result"`
		Status *uint64         `json:"status"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil || parsed.Result == nil || parsed.Status == nil {
		return Result{Doc: errDoc("invalid job schema (missing result/status) from %q: %s", node.Name, doc)}
	}

	edges := args.Graph.OutgoingSorted(args.NodeIdx)
	if *parsed.Status >= uint64(len(edges)) {
		return Result{Doc: doc}
	}

	next := edges[*parsed.Status].Dst
	nextPayload, err := json.Marshal(map[string]json.RawMessage{"input": parsed.Result})
	if err != nil {
		return Result{Doc: errDoc("failed to wrap successor payload for %q: %v", node.Name, err)}
	}

	return ExecuteNode(ExecuteArgs{Payload: nextPayload, NodeIdx: next, Graph: args.Graph})
}

// execState tracks the per-graph state machine: Parsed -> Executing ->
// Done (spec.md §4.7). Re-execution past Done is undefined and Runner
// refuses it.
type execState int

const (
	statedParsed execState = iota
	stateExecuting
	stateDone
)

// Runner pairs a parsed Graph with the JobSystem it executes on. A
// Runner is created once per graph and is good for exactly one
// ExecuteAll call.
type Runner struct {
	graph *Graph
	sys   *jobsystem.System[ExecuteArgs, Result]

	mu    sync.Mutex
	state execState
}

// NewRunner builds a Runner with nThreads workers. nThreads <= 0 means
// "use the host CPU count", matching the original's num_cpus::get()
// default (spec.md §5, SPEC_FULL.md SUPPLEMENTED FEATURES).
func NewRunner(g *Graph, nThreads int) *Runner {
	if nThreads <= 0 {
		nThreads = runtime.NumCPU()
	}
	sys := jobsystem.New[ExecuteArgs, Result](recoverResult)
	for i := 0; i < nThreads; i++ {
		sys.AddWorker()
	}
	return &Runner{graph: g, sys: sys, state: statedParsed}
}

// ExecuteAll transitions the graph Parsed -> Executing, identifies
// source nodes (in-degree zero), submits one job per source, blocks on
// every handle in order, and leaves the graph Done. Calling it more
// than once is undefined (spec.md §4.7); the second call panics to
// fail loudly rather than silently re-running work.
func (r *Runner) ExecuteAll() []Result {
	r.mu.Lock()
	if r.state != statedParsed {
		r.mu.Unlock()
		panic("dsl: ExecuteAll called twice on the same Runner")
	}
	r.state = stateExecuting
	r.mu.Unlock()

	roots := r.graph.Roots()
	handles := make([]*job.Handle[ExecuteArgs, Result], 0, len(roots))
	for _, idx := range roots {
		payload := rootPayload(r.graph.Nodes[idx])
		h := r.sys.SendJob(ExecuteArgs{Payload: payload, NodeIdx: idx, Graph: r.graph}, ExecuteNode)
		handles = append(handles, h)
	}

	results := make([]Result, len(handles))
	for i, h := range handles {
		results[i] = h.Get()
	}

	r.mu.Lock()
	r.state = stateDone
	r.mu.Unlock()

	return results
}

// Close shuts down the underlying JobSystem's workers. Call it after
// ExecuteAll once the Runner is no longer needed.
func (r *Runner) Close() {
	r.sys.Close()
}

// rootPayload builds the payload for a source node from its 'data'
// attribute. It is wrapped under the same "input" key a successor
// payload carries (see ExecuteNode) so every job
// function, root or not, reads its argument the same way.
func rootPayload(n ProcessNode) json.RawMessage {
	data, ok := n.Attributes[KeyData]
	if !ok || data == "" {
		data = "{}"
	}
	if !json.Valid([]byte(data)) {
		return errDoc("invalid JSON in 'data' attribute of node %q", n.Name)
	}
	b, err := json.Marshal(map[string]json.RawMessage{"input": json.RawMessage(data)})
	if err != nil {
		return errDoc("failed to wrap root payload for node %q: %v", n.Name, err)
	}
	return b
}
