// Package ninja writes the low-level build script syntax: escaping,
// line wrapping, and the rule/build/variable statement forms.
package ninja

import (
	"fmt"
	"io"
	"strings"
)

const defaultWidth = 78

// Rule holds the declaration of one rule statement.
type Rule struct {
	Command     string
	Description string
	Depfile     string
	Deps        string
	Pool        string
	Rspfile     string
	RspfileBody string
	Generator   bool
	Restat      bool
}

// Build holds the declaration of one build statement.
type Build struct {
	Outputs         []string
	ImplicitOutputs []string
	Rule            string
	Inputs          []string
	Implicit        []string
	OrderOnly       []string
	Dyndep          string
	Variables       []Variable
}

// Variable is one ordered name/value binding.
type Variable struct {
	Name  string
	Value string
}

// Writer emits build script statements, wrapping long lines at a fixed
// width with '$' continuations.
type Writer struct {
	out    io.Writer
	width  int
	indent int
	err    error
}

// NewWriter creates a Writer emitting to out at the default width.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, width: defaultWidth}
}

// Err returns the first write error encountered, so call sites can emit
// a whole document and check once.
func (w *Writer) Err() error { return w.err }

// Newline emits a blank line.
func (w *Writer) Newline() {
	w.write("\n")
}

// Comment emits commented text, wrapped at the writer's width.
func (w *Writer) Comment(text string) {
	for _, line := range wrapText(text, w.width-2) {
		w.write("# " + line + "\n")
	}
}

// CommentRaw emits one comment line without wrapping, for content that
// downstream tools parse.
func (w *Writer) CommentRaw(text string) {
	w.write("# " + text + "\n")
}

// Variable emits a variable binding at the current indent. Empty values
// emit nothing.
func (w *Writer) Variable(name, value string) {
	if value == "" {
		return
	}
	w.line(fmt.Sprintf("%s = %s", name, value))
}

// Pool emits a pool declaration.
func (w *Writer) Pool(name string, depth int) {
	w.line("pool " + name)
	w.indented(func() {
		w.Variable("depth", fmt.Sprintf("%d", depth))
	})
}

// Rule emits a rule statement.
func (w *Writer) Rule(name string, r Rule) {
	w.line("rule " + name)
	w.indented(func() {
		w.Variable("command", r.Command)
		w.Variable("description", r.Description)
		w.Variable("depfile", r.Depfile)
		w.Variable("pool", r.Pool)
		w.Variable("rspfile", r.Rspfile)
		w.Variable("rspfile_content", r.RspfileBody)
		w.Variable("deps", r.Deps)
		if r.Generator {
			w.Variable("generator", "1")
		}
		if r.Restat {
			w.Variable("restat", "1")
		}
	})
}

// Build emits a build statement with its implicit ('|') and order-only
// ('||') sections and indented variables.
func (w *Writer) Build(b Build) {
	outputs := escapePaths(b.Outputs)
	if len(b.ImplicitOutputs) > 0 {
		outputs = append(outputs, "|")
		outputs = append(outputs, escapePaths(b.ImplicitOutputs)...)
	}
	inputs := escapePaths(b.Inputs)
	if len(b.Implicit) > 0 {
		inputs = append(inputs, "|")
		inputs = append(inputs, escapePaths(b.Implicit)...)
	}
	if len(b.OrderOnly) > 0 {
		inputs = append(inputs, "||")
		inputs = append(inputs, escapePaths(b.OrderOnly)...)
	}

	w.line(fmt.Sprintf("build %s: %s %s",
		strings.Join(outputs, " "), b.Rule, strings.Join(inputs, " ")))
	w.indented(func() {
		w.Variable("dyndep", b.Dyndep)
		for _, v := range b.Variables {
			w.Variable(v.Name, v.Value)
		}
	})
}

// Default designates paths as default build targets.
func (w *Writer) Default(paths ...string) {
	w.line("default " + strings.Join(paths, " "))
}

// Include emits an include statement.
func (w *Writer) Include(path string) {
	w.line("include " + path)
}

// Subninja emits a subninja statement.
func (w *Writer) Subninja(path string) {
	w.line("subninja " + path)
}

func (w *Writer) indented(body func()) {
	w.indent++
	body()
	w.indent--
}

// line writes text word-wrapped at the writer's width, breaking only at
// unescaped spaces and continuing with '$'.
func (w *Writer) line(text string) {
	leading := strings.Repeat("  ", w.indent)
	for len(leading)+len(text) > w.width {
		available := w.width - len(leading) - len(" $")

		space := rfindUnescapedSpace(text, available)
		if space < 0 {
			space = findUnescapedSpace(text, available-1)
		}
		if space < 0 {
			break
		}

		w.write(leading + text[:space] + " $\n")
		text = text[space+1:]
		leading = strings.Repeat("  ", w.indent+2)
	}
	w.write(leading + text + "\n")
}

func (w *Writer) write(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.out, s)
}

// EscapePath escapes the characters significant in build and rule
// declarations. Dollar signs are deliberately left alone so variable
// references survive.
func EscapePath(path string) string {
	path = strings.ReplaceAll(path, "$ ", "$$ ")
	path = strings.ReplaceAll(path, " ", "$ ")
	return strings.ReplaceAll(path, ":", "$:")
}

// Escape escapes a string so it is embedded without further
// interpretation. The only metacharacter is '$'.
func Escape(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

func escapePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, EscapePath(p))
	}
	return out
}

// rfindUnescapedSpace finds the rightmost space at or before limit that
// is not preceded by an odd number of '$'.
func rfindUnescapedSpace(text string, limit int) int {
	if limit >= len(text) {
		limit = len(text) - 1
	}
	for i := limit; i >= 0; i-- {
		if text[i] == ' ' && countDollarsBefore(text, i)%2 == 0 {
			return i
		}
	}
	return -1
}

// findUnescapedSpace finds the first unescaped space after start.
func findUnescapedSpace(text string, start int) int {
	for i := start + 1; i < len(text); i++ {
		if i >= 0 && text[i] == ' ' && countDollarsBefore(text, i)%2 == 0 {
			return i
		}
	}
	return -1
}

func countDollarsBefore(s string, i int) int {
	count := 0
	for j := i - 1; j > 0 && s[j] == '$'; j-- {
		count++
	}
	return count
}

// wrapText greedily wraps prose at width characters for comments.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}
