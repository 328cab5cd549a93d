package registry

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/cratedeps/pkg/cache"
)

func TestParseKinds(t *testing.T) {
	tests := []struct {
		in      string
		want    Kinds
		wantErr bool
	}{
		{"normal", Kinds{KindNormal}, false},
		{"normal,build", Kinds{KindBuild, KindNormal}, false},
		{"build, normal, build", Kinds{KindBuild, KindNormal}, false},
		{"DEV", Kinds{KindDev}, false},
		{"", nil, true},
		{"normal,test", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKinds(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKinds(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseKinds(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestKindCodes(t *testing.T) {
	for code, want := range map[int]Kind{0: KindNormal, 1: KindBuild, 2: KindDev} {
		got, ok := KindFromCode(code)
		if !ok || got != want {
			t.Errorf("KindFromCode(%d) = %q, %v", code, got, ok)
		}
		if got.Code() != code {
			t.Errorf("%q.Code() = %d, want %d", got, got.Code(), code)
		}
	}
	if _, ok := KindFromCode(7); ok {
		t.Error("KindFromCode(7) should fail")
	}
	if got := DefaultKinds().Codes(); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("DefaultKinds().Codes() = %v, want [0 1]", got)
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory().
		Add("foo", "1.0.0",
			Dep("bar", "^2.0"),
			Dependency{Name: "cc", Requirement: "1", Kind: KindBuild},
			Dependency{Name: "proptest", Requirement: "1", Kind: KindDev}).
		Add("foo", "1.1.0")

	versions, err := m.ListVersions(ctx, "foo")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(versions, []string{"1.0.0", "1.1.0"}) {
		t.Errorf("versions = %v", versions)
	}

	if v, _ := m.ListVersions(ctx, "missing"); len(v) != 0 {
		t.Errorf("unknown crate should have no versions, got %v", v)
	}

	deps, err := m.ListDependencies(ctx, "foo", "1.0.0", DefaultKinds())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, d := range deps {
		names = append(names, d.Name)
	}
	if !slices.Equal(names, []string{"bar", "cc"}) {
		t.Errorf("deps = %v, want [bar cc]", names)
	}

	if m.Queries() != 3 {
		t.Errorf("Queries() = %d, want 3", m.Queries())
	}
}

func TestMemoryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory().ListVersions(ctx, "foo")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	m := NewMemory().Add("foo", "1.0.0", Dep("bar", "^1"))
	reg := Cached(m, fc, time.Hour)

	for range 3 {
		if _, err := reg.ListVersions(ctx, "foo"); err != nil {
			t.Fatal(err)
		}
		deps, err := reg.ListDependencies(ctx, "foo", "1.0.0", DefaultKinds())
		if err != nil {
			t.Fatal(err)
		}
		if len(deps) != 1 || deps[0].Name != "bar" || deps[0].Requirement != "^1" {
			t.Fatalf("deps = %+v", deps)
		}
	}

	if m.Queries() != 2 {
		t.Errorf("inner registry queried %d times, want 2", m.Queries())
	}
	if reg.Name() != "memory" {
		t.Errorf("Name() = %q", reg.Name())
	}
}

func TestCachedSkipsEmptyVersionLists(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := NewMemory()
	reg := Cached(m, fc, 0)

	if v, _ := reg.ListVersions(ctx, "late"); len(v) != 0 {
		t.Fatalf("versions = %v", v)
	}
	m.Add("late", "0.1.0")

	v, err := reg.ListVersions(ctx, "late")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(v, []string{"0.1.0"}) {
		t.Errorf("versions = %v, want [0.1.0]", v)
	}
}

func TestCachedNilCache(t *testing.T) {
	m := NewMemory().Add("foo", "1.0.0")
	reg := Cached(m, nil, 0)

	for range 2 {
		if _, err := reg.ListVersions(context.Background(), "foo"); err != nil {
			t.Fatal(err)
		}
	}
	if m.Queries() != 2 {
		t.Errorf("Queries() = %d, want 2 without a cache", m.Queries())
	}
}

func TestInstrumentPassesThrough(t *testing.T) {
	reg := Instrument(NewMemory().Add("foo", "1.0.0"))
	v, err := reg.ListVersions(context.Background(), "foo")
	if err != nil || len(v) != 1 {
		t.Errorf("ListVersions = %v, %v", v, err)
	}
	if reg.Name() != "memory" {
		t.Errorf("Name() = %q", reg.Name())
	}
}
