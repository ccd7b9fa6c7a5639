package repl

import (
	"sort"
	"strings"

	"lama/runtime"
)

var replCommands = []string{
	":cancel", ":diff", ":exit", ":functions", ":help", ":history",
	":jobs", ":load", ":programs", ":quit", ":run", ":wait",
}

// FunctionCompleter implements readline.AutoCompleter over REPL commands
// and the names currently held by the function registry.
type FunctionCompleter struct {
	registry *runtime.FunctionRegistry
}

// NewFunctionCompleter creates a completer backed by registry
func NewFunctionCompleter(registry *runtime.FunctionRegistry) *FunctionCompleter {
	return &FunctionCompleter{registry: registry}
}

// findWordBoundaries finds the start of the word ending at pos. A word is a
// run of letters, digits, underscores and a leading colon.
func (fc *FunctionCompleter) findWordBoundaries(line []rune, pos int) (start, end int) {
	start = pos
	for start > 0 {
		r := line[start-1]
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == ':' {
			start--
		} else {
			break
		}
	}
	return start, pos
}

// Do returns the suffixes completing the word under the cursor and the
// length of the prefix already typed.
func (fc *FunctionCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	if pos > len(line) {
		pos = len(line)
	}
	start, _ := fc.findWordBoundaries(line, pos)
	prefix := string(line[start:pos])

	var candidates []string
	if strings.HasPrefix(prefix, ":") {
		if start != 0 {
			return nil, 0
		}
		candidates = replCommands
	} else {
		for _, fn := range fc.registry.Functions() {
			if fn.IsDefined() {
				candidates = append(candidates, fn.Name()+"(")
			}
		}
		sort.Strings(candidates)
	}

	for _, candidate := range candidates {
		if strings.HasPrefix(candidate, prefix) {
			newLine = append(newLine, []rune(strings.TrimPrefix(candidate, prefix)))
		}
	}
	return newLine, len([]rune(prefix))
}
