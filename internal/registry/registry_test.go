package registry_test

import (
	"encoding/json"
	"testing"

	"github.com/nuulab/flowengine/internal/registry"
)

func echo(input json.RawMessage) json.RawMessage {
	b, _ := json.Marshal(map[string]any{"result": map[string]string{"ok": "yes"}, "status": 0})
	return b
}

func TestRegisterLookup(t *testing.T) {
	registry.Register("test_echo", echo)

	fn, ok := registry.Lookup("test_echo")
	if !ok {
		t.Fatalf("Lookup(test_echo) = false, want true")
	}
	out := fn(json.RawMessage(`{}`))
	if len(out) == 0 {
		t.Fatalf("echo returned empty document")
	}
}

func TestLookup_UnknownName(t *testing.T) {
	if _, ok := registry.Lookup("does_not_exist"); ok {
		t.Fatalf("Lookup(does_not_exist) = true, want false")
	}
}

func TestNames_SortedAndContainsRegistered(t *testing.T) {
	registry.Register("zzz_test", echo)
	registry.Register("aaa_test", echo)

	names := registry.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("Names() not sorted: %v", names)
		}
	}

	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["zzz_test"] || !found["aaa_test"] {
		t.Fatalf("Names() = %v, missing registered test names", names)
	}
}
