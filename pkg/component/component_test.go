package component

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestIDFromKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"light", "light"},
		{"sensor kitchen", "sensor"},
		{"sensor  two spaces", "sensor"},
		{"  padded ", "padded"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := IDFromKey(tt.key); got != tt.want {
			t.Errorf("IDFromKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestRequestedFromKeys(t *testing.T) {
	keys := []string{"zwave", "homeassistant", "sensor kitchen", "sensor garage", "light", ""}

	got := RequestedFromKeys(keys, "homeassistant")
	want := []string{"light", "sensor", "zwave"}
	if !slices.Equal(got, want) {
		t.Errorf("RequestedFromKeys() = %v, want %v", got, want)
	}
}

func TestRequestedFromKeysEmpty(t *testing.T) {
	if got := RequestedFromKeys([]string{"homeassistant"}, "homeassistant"); len(got) != 0 {
		t.Errorf("RequestedFromKeys() = %v, want empty", got)
	}
}

func TestStaticLookup(t *testing.T) {
	ctx := context.Background()
	reg := NewStatic(
		&Descriptor{ID: "a", Dependencies: []string{"b"}, Requirements: []string{"req-a"}},
		&Descriptor{ID: "b"},
		nil,
	)

	d, err := reg.Lookup(ctx, "a")
	if err != nil {
		t.Fatalf("Lookup(a) error: %v", err)
	}
	if !slices.Equal(d.Dependencies, []string{"b"}) {
		t.Errorf("Dependencies = %v, want [b]", d.Dependencies)
	}

	// Returned descriptors are copies.
	d.Requirements[0] = "mutated"
	again, _ := reg.Lookup(ctx, "a")
	if again.Requirements[0] != "req-a" {
		t.Error("Lookup should return an independent copy")
	}

	if _, err := reg.Lookup(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStaticList(t *testing.T) {
	reg := NewStatic(&Descriptor{ID: "zwave"}, &Descriptor{ID: "light"})
	ids, err := reg.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if want := []string{"light", "zwave"}; !slices.Equal(ids, want) {
		t.Errorf("List() = %v, want %v", ids, want)
	}
}

func TestDescriptorCloneNil(t *testing.T) {
	var d *Descriptor
	if d.Clone() != nil {
		t.Error("Clone of nil descriptor should be nil")
	}
}
