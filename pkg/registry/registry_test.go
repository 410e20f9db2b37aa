package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/stackreqs/pkg/cache"
	"github.com/matzehuels/stackreqs/pkg/component"
	stackerrors "github.com/matzehuels/stackreqs/pkg/errors"
	"github.com/matzehuels/stackreqs/pkg/observability"
)

func manifestDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"light.toml": "dependencies = [\"zwave\"]\n",
		"zwave.json": `{"requirements": ["pyzwave==0.3"]}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestOpenManifest(t *testing.T) {
	dir := manifestDir(t)
	ctx := context.Background()

	for _, source := range []string{dir, "file://" + dir, "  " + dir + "  "} {
		b, err := Open(ctx, source, Options{})
		if err != nil {
			t.Fatalf("Open(%q): %v", source, err)
		}
		if b.Name() != "manifest" {
			t.Errorf("Name = %q, want manifest", b.Name())
		}
		ids, err := b.List(ctx)
		if err != nil || !slices.Equal(ids, []string{"light", "zwave"}) {
			t.Errorf("List = %v, %v", ids, err)
		}
		b.Close()
	}
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		source string
		code   stackerrors.Code
	}{
		{"", stackerrors.ErrCodeInvalidConfig},
		{"s3://bucket/components", stackerrors.ErrCodeUnsupported},
		{"/definitely/not/here", stackerrors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, err := Open(context.Background(), tt.source, Options{})
			if got := stackerrors.GetCode(err); got != tt.code {
				t.Errorf("code = %q (%v), want %q", got, err, tt.code)
			}
		})
	}
}

// fakeBackend counts lookups and listings.
type fakeBackend struct {
	*component.Static
	mu      sync.Mutex
	lookups int
	lists   int
}

func (f *fakeBackend) Lookup(ctx context.Context, id string) (*component.Descriptor, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()
	return f.Static.Lookup(ctx, id)
}

func (f *fakeBackend) List(ctx context.Context) ([]string, error) {
	f.lists++
	return f.Static.List(ctx)
}

func (f *fakeBackend) Name() string { return "fake" }
func (f *fakeBackend) Close() error { return nil }

type writableBackend struct{ *fakeBackend }

func (*writableBackend) Put(context.Context, *component.Descriptor) error { return nil }
func (*writableBackend) Delete(context.Context, string) error             { return nil }

func newFake() *fakeBackend {
	return &fakeBackend{Static: component.NewStatic(
		&component.Descriptor{ID: "light", Dependencies: []string{"zwave"}},
		&component.Descriptor{ID: "zwave", Requirements: []string{"pyzwave==0.3"}},
	)}
}

type recordingCacheHooks struct {
	mu                sync.Mutex
	hits, misses, set int
}

func (r *recordingCacheHooks) OnCacheHit(context.Context, string) {
	r.mu.Lock()
	r.hits++
	r.mu.Unlock()
}

func (r *recordingCacheHooks) OnCacheMiss(context.Context, string) {
	r.mu.Lock()
	r.misses++
	r.mu.Unlock()
}

func (r *recordingCacheHooks) OnCacheSet(context.Context, string, int) {
	r.mu.Lock()
	r.set++
	r.mu.Unlock()
}

func TestCachedLookup(t *testing.T) {
	hooks := &recordingCacheHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inner := newFake()
	c := NewCached(inner, "fake://", fc, nil, time.Hour)

	for range 3 {
		d, err := c.Lookup(ctx, "zwave")
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if !slices.Equal(d.Requirements, []string{"pyzwave==0.3"}) {
			t.Errorf("Requirements = %v", d.Requirements)
		}
	}
	if inner.lookups != 1 {
		t.Errorf("backend lookups = %d, want 1", inner.lookups)
	}
	if hooks.hits != 2 || hooks.misses != 1 || hooks.set != 1 {
		t.Errorf("hooks = %+v, want 2 hits, 1 miss, 1 set", hooks)
	}

	// A second registry sharing the cache under another source does not see
	// the entry.
	other := newFake()
	if _, err := NewCached(other, "other://", fc, nil, time.Hour).Lookup(ctx, "zwave"); err != nil {
		t.Fatal(err)
	}
	if other.lookups != 1 {
		t.Errorf("other backend lookups = %d, want 1", other.lookups)
	}

	if err := c.Invalidate(ctx, "zwave"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := c.Lookup(ctx, "zwave"); err != nil {
		t.Fatal(err)
	}
	if inner.lookups != 2 {
		t.Errorf("backend lookups after invalidate = %d, want 2", inner.lookups)
	}
}

func TestCachedDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	fc, _ := cache.NewFileCache(t.TempDir())
	inner := newFake()
	c := NewCached(inner, "fake://", fc, nil, 0)

	for range 2 {
		if _, err := c.Lookup(ctx, "hue"); !errors.Is(err, component.ErrNotFound) {
			t.Fatalf("Lookup(hue) error = %v, want ErrNotFound", err)
		}
	}
	if inner.lookups != 2 {
		t.Errorf("backend lookups = %d, want 2", inner.lookups)
	}
}

func TestCachedList(t *testing.T) {
	ctx := context.Background()
	fc, _ := cache.NewFileCache(t.TempDir())
	inner := newFake()
	c := NewCached(inner, "fake://", fc, nil, 0)

	for range 2 {
		ids, err := c.List(ctx)
		if err != nil || !slices.Equal(ids, []string{"light", "zwave"}) {
			t.Fatalf("List = %v, %v", ids, err)
		}
	}
	if inner.lists != 1 {
		t.Errorf("backend lists = %d, want 1", inner.lists)
	}
}

type recordingRegistryHooks struct {
	ids []string
}

func (r *recordingRegistryHooks) OnLookup(_ context.Context, backend, id string, _ time.Duration, _ error) {
	r.ids = append(r.ids, backend+"/"+id)
}

func TestInstrumentedReportsLookups(t *testing.T) {
	hooks := &recordingRegistryHooks{}
	observability.SetRegistryHooks(hooks)
	defer observability.Reset()

	b, err := Open(context.Background(), manifestDir(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	b.Lookup(context.Background(), "light")
	b.Lookup(context.Background(), "nope")
	if want := []string{"manifest/light", "manifest/nope"}; !slices.Equal(hooks.ids, want) {
		t.Errorf("hook ids = %v, want %v", hooks.ids, want)
	}
}

func TestAsWriter(t *testing.T) {
	fc := cache.NewNullCache()

	if _, ok := AsWriter(NewCached(newFake(), "x", fc, nil, 0)); ok {
		t.Error("read-only backend should not be a writer")
	}

	w := &writableBackend{newFake()}
	wrapped := NewCached(&instrumented{Backend: w}, "x", fc, nil, 0)
	got, ok := AsWriter(wrapped)
	if !ok {
		t.Fatal("AsWriter should find the writable backend")
	}
	if got != Writer(w) {
		t.Error("AsWriter returned the wrong backend")
	}
}
