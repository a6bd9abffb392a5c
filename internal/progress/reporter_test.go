package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Out: &buf}
	r.Start(3, "Embedding chunks")
	r.Update(2, "batch 1")
	r.Finish()

	want := "Embedding chunks: 3 items\n[2/3] batch 1\nEmbedding chunks: done\n"
	if buf.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestNewReporterInCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter().(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestNewReporterTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	r := NewReporter()
	if _, ok := r.(*TerminalReporter); !ok {
		t.Fatal("expected TerminalReporter")
	}
	// Update before Start must not panic.
	r.Update(1, strings.Repeat("x", 3))
	r.Finish()
}
