package diag

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFormatsCaretUnderColumn(t *testing.T) {
	d := New(FoldError, "divide by zero").At("prog.sl", 3, 9).WithSource("let x = a / 0;")
	msg := d.Error()

	if !strings.Contains(msg, "FoldError: divide by zero") {
		t.Errorf("Error() missing kind/message header: %q", msg)
	}
	if !strings.Contains(msg, "at prog.sl:3:9") {
		t.Errorf("Error() missing location line: %q", msg)
	}
	lines := strings.Split(msg, "\n")
	var sourceIdx, caretIdx int
	for i, l := range lines {
		if strings.Contains(l, "let x = a / 0;") {
			sourceIdx = i
		}
		if strings.TrimSpace(l) == "^" {
			caretIdx = i
		}
	}
	if caretIdx != sourceIdx+1 {
		t.Fatalf("caret line should immediately follow the source line; got source at %d, caret at %d", sourceIdx, caretIdx)
	}
	caretCol := strings.Index(lines[caretIdx], "^")
	sourceCol := strings.Index(lines[sourceIdx], "a / 0")
	if caretCol != sourceCol {
		t.Errorf("caret at column %d, want aligned with column %d", caretCol, sourceCol)
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("underlying io failure")
	d := New(LowerError, "could not lower call").Because(cause)

	if !errors.Is(d, cause) {
		t.Error("errors.Is should see through Diagnostic.Unwrap to the wrapped cause")
	}
	if !strings.Contains(d.Error(), "underlying io failure") {
		t.Error("Error() should mention the wrapped cause")
	}
}

func TestAddFrameAccumulatesProvenance(t *testing.T) {
	d := New(BackendError, "immediate out of range").
		AddFrame("lower", "node %12").
		AddFrame("sparc", "Add node %17")

	msg := d.Error()
	if !strings.Contains(msg, "in lower: node %12") || !strings.Contains(msg, "in sparc: Add node %17") {
		t.Errorf("Error() missing accumulated frames: %q", msg)
	}
}

func TestViolatefPanicsWithViolation(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Violatef did not panic")
		}
		v, ok := r.(*Violation)
		if !ok {
			t.Fatalf("panic value is %T, want *Violation", r)
		}
		if v.Invariant != "matured-block-pred" {
			t.Errorf("Invariant = %q, want %q", v.Invariant, "matured-block-pred")
		}
	}()
	Violatef("matured-block-pred", "block %d already matured", 7)
}
