package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/neurite/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{pipeline.DefaultFormat}},
		{"dot", []string{"dot"}},
		{"svg,png,json", []string{"svg", "png", "json"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"derive from input", "", "cell.swc", "cell"},
		{"derive from nested input", "", "data/cell.swc", "data/cell"},
		{"strip format extension", "out.svg", "cell.swc", "out"},
		{"keep unknown extension", "out.bin", "cell.swc", "out.bin"},
		{"plain output", "out", "cell.swc", "out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestRunRenderDOT(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cell.swc")
	swcData := "1 1 0 0 0 1.0 -1\n2 3 0 1 0 0.5 1\n"
	if err := os.WriteFile(input, []byte(swcData), 0o644); err != nil {
		t.Fatal(err)
	}

	output := filepath.Join(dir, "cell.dot")
	opts := renderOpts{
		output:  output,
		formats: []string{pipeline.FormatDOT},
		noCache: true,
		scale:   pipeline.DefaultScale,
	}
	if err := runRender(t.Context(), input, &opts); err != nil {
		t.Fatalf("runRender() error = %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if len(data) == 0 {
		t.Error("rendered dot file is empty")
	}
}
