package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/neurite/pkg/cache"
	morphio "github.com/matzehuels/neurite/pkg/io"
)

const forkedSWC = `# test reconstruction
1 1 0 0 0 1.0 -1
2 3 0 1 0 0.5 1
3 3 0 2 0 0.5 2
4 2 1 1 0 0.4 2
`

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cell.swc")
	if err := os.WriteFile(path, []byte(forkedSWC), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestExecuteDOT(t *testing.T) {
	r := quietRunner(nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), Options{
		Source:  writeSource(t),
		Formats: []string{FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	dot := string(result.Artifacts[FormatDOT])
	if !strings.Contains(dot, "digraph morphology") {
		t.Errorf("dot artifact missing header: %q", dot)
	}
	if result.Stats.BranchCount != 3 {
		t.Errorf("BranchCount = %d, want 3", result.Stats.BranchCount)
	}
	if result.Stats.PointCount == 0 {
		t.Error("PointCount = 0, want > 0")
	}
	if result.DocHash == "" {
		t.Error("DocHash is empty")
	}
	if result.CacheInfo.ParseHit {
		t.Error("ParseHit = true on first run")
	}
}

func TestExecuteJSON(t *testing.T) {
	r := quietRunner(nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), Options{
		Source:  writeSource(t),
		Formats: []string{FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	m, err := morphio.UnmarshalJSON(result.Artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if !m.Equal(result.Morphology) {
		t.Error("json artifact does not round trip to the pipeline morphology")
	}
}

func TestExecuteCacheHit(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(fc)
	defer r.Close()

	opts := Options{Source: writeSource(t), Formats: []string{FormatDOT}}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if first.CacheInfo.ParseHit || first.CacheInfo.RenderHit {
		t.Errorf("first run cache info = %+v, want cold", first.CacheInfo)
	}

	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !second.CacheInfo.ParseHit {
		t.Error("second run ParseHit = false, want true")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run RenderHit = false, want true")
	}
	if string(first.Artifacts[FormatDOT]) != string(second.Artifacts[FormatDOT]) {
		t.Error("cached dot artifact differs from fresh render")
	}
}

func TestExecuteRefresh(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(fc)
	defer r.Close()

	opts := Options{Source: writeSource(t), Formats: []string{FormatDOT}}
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatal(err)
	}

	opts.Refresh = true
	result, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.CacheInfo.ParseHit {
		t.Error("ParseHit = true with Refresh set")
	}
}

func TestExecuteNoReparse(t *testing.T) {
	r := quietRunner(nil)
	defer r.Close()

	_, err := r.Execute(context.Background(), Options{
		Source:    writeSource(t),
		Formats:   []string{FormatDOT},
		NoReparse: true,
	})
	if err == nil {
		t.Fatal("Execute() expected error when reparsing is disabled and cache is empty")
	}
}

func TestExecuteMissingSource(t *testing.T) {
	r := quietRunner(nil)
	defer r.Close()

	_, err := r.Execute(context.Background(), Options{
		Source:  filepath.Join(t.TempDir(), "missing.swc"),
		Formats: []string{FormatDOT},
	})
	if err == nil {
		t.Fatal("Execute() expected error for missing source")
	}
}

func TestExecuteTagMap(t *testing.T) {
	dir := t.TempDir()
	tags := filepath.Join(dir, "tags.toml")
	content := "[tags]\n5 = [\"custom\"]\n"
	if err := os.WriteFile(tags, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r := quietRunner(nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), Options{
		Source:  writeSource(t),
		TagMap:  tags,
		Formats: []string{FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Morphology.ContainsLabel("soma") {
		t.Error("custom tag map should extend the defaults, soma label missing")
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"missing source", Options{}, true},
		{"bad format", Options{Source: "a.swc", Formats: []string{"gif"}}, true},
		{"negative scale", Options{Source: "a.swc", Scale: -1}, true},
		{"valid", Options{Source: "a.swc"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAndSetDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	opts := Options{Source: "a.swc"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats = %v, want [%s]", opts.Formats, DefaultFormat)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", opts.Scale, DefaultScale)
	}
}
