package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nuulab/flowengine/pkg/core"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) GenerateChat(ctx context.Context, messages []core.Message, opts ...core.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestCorrect_CollectsFixesAcrossFiles(t *testing.T) {
	orig := defaultLLM
	defer func() { defaultLLM = orig }()
	defaultLLM = func() core.LLM {
		return &fakeLLM{response: `{"message":"explained","fix":"int x;"}`}
	}

	input, err := json.Marshal(map[string]any{"input": map[string]any{
		"files": []map[string]any{
			{
				"filename": "main.c",
				"errors": []map[string]any{
					{"line": 1, "column": 1, "message": "missing semicolon", "context": "int x"},
				},
			},
		},
	}})
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}

	out := correct(input)

	var parsed struct {
		Result struct {
			Fixes []fix `json:"fixes"`
		} `json:"result"`
		Status uint64 `json:"status"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("unmarshal output: %v, raw=%s", err, out)
	}
	if parsed.Status != 0 {
		t.Fatalf("status = %d, want 0", parsed.Status)
	}
	if len(parsed.Result.Fixes) != 1 || parsed.Result.Fixes[0].Fix != "int x;" {
		t.Fatalf("fixes = %+v", parsed.Result.Fixes)
	}
}

func TestCorrect_SkipsFailedFixesButContinues(t *testing.T) {
	orig := defaultLLM
	defer func() { defaultLLM = orig }()
	defaultLLM = func() core.LLM {
		return &fakeLLM{err: context.DeadlineExceeded}
	}

	input, err := json.Marshal(map[string]any{"input": map[string]any{
		"files": []map[string]any{
			{
				"filename": "main.c",
				"errors": []map[string]any{
					{"line": 1, "column": 1, "message": "boom", "context": "x"},
				},
			},
		},
	}})
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}

	out := correct(input)

	var parsed struct {
		Result struct {
			Fixes []fix `json:"fixes"`
		} `json:"result"`
		Status uint64 `json:"status"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("unmarshal output: %v, raw=%s", err, out)
	}
	if len(parsed.Result.Fixes) != 0 {
		t.Fatalf("fixes = %+v, want empty", parsed.Result.Fixes)
	}
}
