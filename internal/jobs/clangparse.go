package jobs

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/nuulab/flowengine/internal/registry"
)

func init() {
	registry.Register("clang_parse", clangParse)
}

var (
	linkerSymbolExpr = regexp.MustCompile(`\(\.\w+\+0x\w+\): undefined reference to ` + "`" + `\w+'`)
	linkerExpr       = regexp.MustCompile(`clang-\d+: error: (?P<message>.*)`)
	compilerExpr     = regexp.MustCompile(`(?P<filename>[^:]*):(?P<line>\d+):(?P<column>\d+): (?:error|warning): (?P<message>.*)`)
)

type compileError struct {
	Line    uint64 `json:"line"`
	Column  uint64 `json:"column"`
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

type fileErrors struct {
	Filename string         `json:"filename"`
	Errors   []compileError `json:"errors"`
}

type linkerOutput struct {
	Message string   `json:"message"`
	Symbols []string `json:"symbols"`
}

// clangParse scans a clang/make diagnostic stream line by line,
// grouping compiler errors by file and separately collecting linker
// errors, grounded on original_source/src/jobs/clangoutput.rs. Status
// 0 selects the success successor, status 1 the error-reporting one.
func clangParse(payload json.RawMessage) json.RawMessage {
	var params struct {
		ClangOutput string `json:"clang_output"`
	}
	if err := json.Unmarshal(input(payload), &params); err != nil || params.ClangOutput == "" {
		return errResultDoc("no 'clang_output' key found in input")
	}

	files := map[string]*fileErrors{}
	var order []string
	linker := linkerOutput{Symbols: []string{}}

	for _, line := range strings.Split(params.ClangOutput, "\n") {
		if m := compilerExpr.FindStringSubmatch(line); m != nil {
			filename := m[compilerExpr.SubexpIndex("filename")]
			lineNo, _ := strconv.ParseUint(m[compilerExpr.SubexpIndex("line")], 10, 64)
			col, _ := strconv.ParseUint(m[compilerExpr.SubexpIndex("column")], 10, 64)
			msg := m[compilerExpr.SubexpIndex("message")]

			fe, ok := files[filename]
			if !ok {
				fe = &fileErrors{Filename: filename}
				files[filename] = fe
				order = append(order, filename)
			}
			fe.Errors = append(fe.Errors, compileError{Line: lineNo, Column: col, Message: msg})
			continue
		}
		if m := linkerExpr.FindStringSubmatch(line); m != nil {
			linker.Message = m[linkerExpr.SubexpIndex("message")]
			continue
		}
		if linkerSymbolExpr.MatchString(line) {
			linker.Symbols = append(linker.Symbols, line)
		}
	}

	out := make([]fileErrors, 0, len(order))
	for _, name := range order {
		out = append(out, *files[name])
	}

	return resultDoc(map[string]any{"files": out, "linker": linker}, 0)
}
