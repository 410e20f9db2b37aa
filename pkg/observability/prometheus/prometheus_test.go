package prometheus

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/stackreqs/pkg/observability"
)

func TestMetricsExposition(t *testing.T) {
	ctx := context.Background()
	m := New()

	m.OnResolveComplete(ctx, 4, 7, 20*time.Millisecond, nil)
	m.OnResolveComplete(ctx, 0, 0, time.Millisecond, errors.New("cycle"))
	m.OnLookup(ctx, "redis", "light", time.Millisecond, nil)
	m.OnCacheHit(ctx, "descriptor")
	m.OnCacheSet(ctx, "descriptor", 128)
	m.OnRequest(ctx, "POST", "/v1/resolve", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`stackreqs_resolve_total{outcome="ok"} 1`,
		`stackreqs_resolve_total{outcome="error"} 1`,
		`stackreqs_registry_lookup_total{backend="redis",outcome="ok"} 1`,
		`stackreqs_cache_events_total{event="hit",key_type="descriptor"} 1`,
		`stackreqs_cache_written_bytes_total{key_type="descriptor"} 128`,
		`stackreqs_http_requests_total{method="POST",route="/v1/resolve",status="200"} 1`,
		`stackreqs_resolve_components_count 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestInstall(t *testing.T) {
	defer observability.Reset()
	m := New()
	m.Install()

	if observability.Resolve() != observability.ResolveHooks(m) {
		t.Error("resolve hooks not installed")
	}
	if observability.HTTP() != observability.HTTPHooks(m) {
		t.Error("http hooks not installed")
	}
}
