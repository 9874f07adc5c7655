package jobs

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/nuulab/flowengine/internal/registry"
)

func init() {
	registry.Register("add_context", addContext)
}

// readContextLines returns up to n lines of a file starting at the
// 0-based line index start, joined without separators (grounded on
// original_source/src/jobs/filereader.rs's get_context, which collects
// line contents with no newline between them).
func readContextLines(filename string, start uint64, n int) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var b strings.Builder
	var i uint64
	taken := 0
	for scanner.Scan() {
		if i >= start && taken < n {
			b.WriteString(scanner.Text())
			taken++
		}
		i++
	}
	return b.String(), nil
}

// addContext attaches up to 5 lines of source context, starting 2
// lines above the reported error line, to every error entry in every
// file (grounded on original_source/src/jobs/filereader.rs's
// read_context). It mutates and passes through the {"files": [...]}
// document produced by clang_parse rather than replacing it.
func addContext(payload json.RawMessage) json.RawMessage {
	var doc struct {
		Files []fileErrors `json:"files"`
	}
	if err := json.Unmarshal(input(payload), &doc); err != nil || doc.Files == nil {
		return errResultDoc("files[] is not an array or may not exist")
	}

	for fi := range doc.Files {
		file := &doc.Files[fi]
		if file.Filename == "" {
			return errResultDoc("files[]->filename is not a string or may not exist")
		}
		for ei := range file.Errors {
			e := &file.Errors[ei]
			// e.Line is 1-based; two lines above it is 0-based index Line-3.
			start := uint64(0)
			if e.Line > 3 {
				start = e.Line - 3
			}
			context, err := readContextLines(file.Filename, start, 5)
			if err != nil {
				continue
			}
			e.Context = context
		}
	}

	return resultDoc(map[string]any{"files": doc.Files}, 0)
}
