package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/ulikunitz/xz"
)

// FixtureSource resolves a fixture name to a result payload.
type FixtureSource interface {
	Load(ctx context.Context, name string, spec contract.ChartSpec) (contract.ChartResult, error)
}

// Fixtures is a closed name to payload table. Names come either from the
// built-in generators or from files discovered under a fixture directory;
// files take precedence over generators of the same name.
type Fixtures struct {
	generators map[string]Generator
	files      map[string]string
	fsys       fs.FS
}

// NewFixtures returns a table holding only the built-in generators.
func NewFixtures() *Fixtures {
	return &Fixtures{
		generators: builtinGenerators(),
		files:      make(map[string]string),
	}
}

// Register adds or replaces a generator.
func (f *Fixtures) Register(name string, g Generator) {
	f.generators[name] = g
}

// AddDir discovers *.json and *.json.xz payloads anywhere under dir. The
// fixture name is the slash-separated path without its extension.
func (f *Fixtures) AddDir(dir string) (int, error) {
	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, "**/*.{json,json.xz}")
	if err != nil {
		return 0, fmt.Errorf("scanning fixture dir %s: %w", dir, err)
	}
	sort.Strings(matches)

	files := make(map[string]string, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(strings.TrimSuffix(m, ".xz"), ".json")
		if prev, dup := files[name]; dup {
			return 0, fmt.Errorf("fixture %q found twice: %s and %s", name, prev, m)
		}
		files[name] = m
	}

	f.fsys = fsys
	f.files = files
	return len(files), nil
}

// Names lists every resolvable fixture name in sorted order.
func (f *Fixtures) Names() []string {
	seen := make(map[string]bool, len(f.generators)+len(f.files))
	var names []string
	for n := range f.generators {
		seen[n] = true
		names = append(names, n)
	}
	for n := range f.files {
		if !seen[n] {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

func (f *Fixtures) Load(ctx context.Context, name string, spec contract.ChartSpec) (contract.ChartResult, error) {
	if err := ctx.Err(); err != nil {
		return contract.ChartResult{}, aborted(err, 0)
	}

	if path, ok := f.files[name]; ok {
		data, err := f.read(path)
		if err != nil {
			return contract.ChartResult{}, &Error{
				Category: CategoryInvalidResult,
				Message:  fmt.Sprintf("reading fixture %q", name),
				Err:      err,
			}
		}
		if err := ctx.Err(); err != nil {
			return contract.ChartResult{}, aborted(err, 0)
		}
		var r contract.ChartResult
		if err := json.Unmarshal(data, &r); err != nil {
			return contract.ChartResult{}, &Error{
				Category: CategoryInvalidResult,
				Message:  fmt.Sprintf("decoding fixture %q: %v", name, err),
				Err:      err,
			}
		}
		return r, nil
	}

	gen, ok := f.generators[name]
	if !ok {
		return contract.ChartResult{}, &Error{
			Category: CategoryInvalidResult,
			Message:  fmt.Sprintf("unknown fixture %q", name),
		}
	}
	return gen(spec), nil
}

func (f *Fixtures) read(path string) ([]byte, error) {
	file, err := f.fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("opening xz stream: %w", err)
		}
		r = xr
	}
	return io.ReadAll(r)
}
