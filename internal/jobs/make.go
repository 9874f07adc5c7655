package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"github.com/nuulab/flowengine/internal/registry"
)

func init() {
	registry.Register("make", runMake)
}

const makeTimeout = 5 * time.Minute

// runMake launches `make <target>` and reports its stderr, mirroring
// the original's convention of treating a toolchain's diagnostic
// stream as the thing downstream jobs parse for errors (grounded on
// original_source/src/jobs/make.rs).
func runMake(payload json.RawMessage) json.RawMessage {
	var params struct {
		Target string `json:"target"`
	}
	if err := json.Unmarshal(input(payload), &params); err != nil || params.Target == "" {
		return errResultDoc("no 'target' key found in input")
	}

	ctx, cancel := context.WithTimeout(context.Background(), makeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "make", params.Target)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if _, isExitErr := err.(*exec.ExitError); !isExitErr {
			return errResultDoc("%v", err)
		}
	}

	return resultDoc(map[string]string{"clang_output": stderr.String()}, 0)
}
