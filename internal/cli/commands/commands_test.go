package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("9.9.9")
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	if err := cmd.Execute(); err != nil {
		t.Errorf("version command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "9.9.9") {
		t.Errorf("version output should contain version, got: %s", output)
	}
}

func TestFormatHeaders(t *testing.T) {
	if got := formatHeaders(nil); got != "-" {
		t.Errorf("expected placeholder for empty headers, got %q", got)
	}

	got := formatHeaders(map[string]string{"X-One": "1"})
	if got != "X-One: 1" {
		t.Errorf("unexpected header formatting: %q", got)
	}

	got = formatHeaders(map[string]string{"A": "1", "B": "2"})
	if !strings.Contains(got, "A: 1") || !strings.Contains(got, "B: 2") {
		t.Errorf("expected both headers present, got %q", got)
	}
}

func TestDocsServeRequiresDir(t *testing.T) {
	cmd := NewDocsCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"serve"})

	if err := cmd.Execute(); err == nil {
		t.Error("docs serve without a directory should fail")
	}
}
