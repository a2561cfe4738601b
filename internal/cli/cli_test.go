package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestProgressBarCountsGenerations(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar(&buf, 4, "gen").SetWidth(8)

	pb.Increment()
	pb.Increment()
	if !strings.Contains(buf.String(), "gen [####----] 2/4") {
		t.Fatalf("unexpected render %q", buf.String())
	}

	for i := 0; i < 5; i++ {
		pb.Increment()
	}
	if pb.Current() != 4 {
		t.Fatalf("expected progress clamped to 4, got %d", pb.Current())
	}
	pb.Finish()
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Fatalf("expected finish to end the line")
	}
	if strings.Contains(buf.String(), "\033[") {
		t.Fatalf("non-terminal writer should not get color codes")
	}
}

func TestProgressBarZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar(&buf, 0, "gen")
	pb.Finish()
	if !strings.Contains(buf.String(), "0/1") {
		t.Fatalf("expected total clamped to 1, got %q", buf.String())
	}
}

func TestSpinnerStartStop(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "waiting")
	s.Start()
	s.Start()
	time.Sleep(250 * time.Millisecond)
	s.Stop()
	s.Stop()
	if !strings.Contains(buf.String(), "waiting") {
		t.Fatalf("expected spinner output, got %q", buf.String())
	}
}

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	Warning(&buf, "ERR_0003: limit reached")
	Success(&buf, "deleted")
	Error(&buf, "boom")
	want := "warning ERR_0003: limit reached\nok deleted\nerror boom\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestWriteCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish"} {
		var buf bytes.Buffer
		if err := WriteCompletion(&buf, shell); err != nil {
			t.Fatalf("%s: %v", shell, err)
		}
		if !strings.Contains(buf.String(), "lifectl") {
			t.Fatalf("%s script does not mention lifectl", shell)
		}
	}
	if err := WriteCompletion(&bytes.Buffer{}, "tcsh"); err == nil {
		t.Fatalf("expected error for unsupported shell")
	}
}
