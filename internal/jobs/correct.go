package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nuulab/flowengine/internal/registry"
	"github.com/nuulab/flowengine/pkg/core"
	"github.com/nuulab/flowengine/pkg/llm/openai"
)

func init() {
	registry.Register("correct", correct)
}

const fixPrompt = `A fully JSON response with the schema: {"message": string, "fix": string} and no additional plaintext characters. The message field explains the error (in the context of the code). The "fix" field contains the full code chunk with updated changes, which ONLY fix the specified error. The JSON object: `

type fix struct {
	Message string `json:"message"`
	Fix     string `json:"fix"`
}

// errorFix asks llm to propose a fix for one compile error, grounded
// on original_source/src/jobs/correct.rs's error_fix.
func errorFix(ctx context.Context, llm core.LLM, e compileError) (fix, error) {
	if e.Message == "" {
		return fix{}, fmt.Errorf("message not found")
	}

	prompt := fmt.Sprintf(`The code chunk: %q causes the error: %q. %s`, e.Context, e.Message, fixPrompt)
	resp, err := llm.GenerateChat(ctx, []core.Message{
		{Role: core.RoleUser, Content: prompt},
	}, core.WithTemperature(0.2), core.WithTopP(0.1), core.WithMaxTokens(99999))
	if err != nil {
		return fix{}, err
	}

	var f fix
	if err := json.Unmarshal([]byte(resp), &f); err != nil {
		return fix{}, fmt.Errorf("unmarshal model response: %w", err)
	}
	return f, nil
}

// defaultLLM points at a local OpenAI-compatible server, matching the
// original's hardcoded local LLM endpoint. Overridable for tests.
var defaultLLM = func() core.LLM {
	return openai.New("not needed for a local LLM", openai.WithBaseURL("http://localhost:4891/v1/"))
}

// correct walks every compile error across every file and asks the
// configured LLM for a fix, skipping (and logging) any error_fix
// failure rather than aborting the whole job, grounded on
// original_source/src/jobs/correct.rs.
func correct(payload json.RawMessage) json.RawMessage {
	var doc struct {
		Files []fileErrors `json:"files"`
	}
	if err := json.Unmarshal(input(payload), &doc); err != nil || doc.Files == nil {
		return errResultDoc("files[] is not an array or may not exist")
	}

	llm := defaultLLM()
	ctx := context.Background()

	fixes := make([]fix, 0)
	for _, file := range doc.Files {
		for _, e := range file.Errors {
			f, err := errorFix(ctx, llm, e)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Parsing error: %v\n", err)
				continue
			}
			fixes = append(fixes, f)
		}
	}

	return resultDoc(map[string]any{"fixes": fixes}, 0)
}
