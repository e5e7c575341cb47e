package debug

import "github.com/kr/text"

// IndentBlock indents every non-empty line of s by one tab, for nesting one
// DumpGraph output inside another.
func IndentBlock(s string) string {
	return text.Indent(s, "\t")
}
