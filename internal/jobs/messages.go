package jobs

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nuulab/flowengine/internal/registry"
)

func init() {
	registry.Register("print_error", printError)
	registry.Register("print_success", printSuccess)
}

// printError writes its input document to stderr as the terminal job
// of an error branch (grounded on
// original_source/src/jobs/errormessage.rs).
func printError(payload json.RawMessage) json.RawMessage {
	fmt.Fprintf(os.Stderr, "Error: %s\n", input(payload))
	return resultDoc(map[string]any{}, 0)
}

// printSuccess writes its input document to stderr as the terminal job
// of a success branch (grounded on
// original_source/src/jobs/successmessage.rs).
func printSuccess(payload json.RawMessage) json.RawMessage {
	fmt.Fprintf(os.Stderr, "Success: %s\n", input(payload))
	return resultDoc(map[string]any{}, 0)
}
