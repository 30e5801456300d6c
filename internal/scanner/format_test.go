package scanner

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size uint64
		want string
	}{
		{0, "0 B"},
		{1, "1.00 B"},
		{1023, "1023.00 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1 << 20, "1.00 MB"},
		{1073741824, "1.00 GB"},
		{1 << 40, "1.00 TB"},
		{1 << 50, "1024.00 TB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.size); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestRender_PlainTable(t *testing.T) {
	res := &Result{
		Entries: []Entry{{"var", 1536}, {"home", 0}},
		Total:   4096,
	}

	var buf bytes.Buffer
	if err := Render(&buf, res, RenderOptions{}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"Directory Name               Size",
		strings.Repeat("-", 35),
		"var                       1.50 KB",
		"home                          0 B",
		strings.Repeat("-", 35),
		"Total                     4.00 KB",
	}

	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(lines), buf.String())
	}

	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d:\n got %q\nwant %q", i, lines[i], want[i])
		}
	}
}

func TestRender_WidensForLongNames(t *testing.T) {
	long := strings.Repeat("x", 32)
	res := &Result{Entries: []Entry{{long, 10}}, Total: 10}

	var buf bytes.Buffer
	if err := Render(&buf, res, RenderOptions{}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if NameWidth(res.Entries) != 32 {
		t.Errorf("expected width 32, got %d", NameWidth(res.Entries))
	}

	if !strings.Contains(buf.String(), strings.Repeat("-", 47)) {
		t.Errorf("expected separator of 47 dashes:\n%s", buf.String())
	}
}

func TestRender_Color(t *testing.T) {
	res := &Result{Entries: []Entry{{"big", 2 << 30}}, Total: 2 << 30}

	var buf bytes.Buffer
	if err := Render(&buf, res, RenderOptions{Color: true}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if !strings.Contains(buf.String(), "\x1b[31m") {
		t.Errorf("expected red escape for a directory over 1 GiB:\n%q", buf.String())
	}
}
