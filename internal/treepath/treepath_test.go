package treepath

import (
	"testing"

	"github.com/google/uuid"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		name      string
		ancestors []string
		handle    string
		want      string
	}{
		{
			name:      "root node",
			ancestors: nil,
			handle:    "apparel",
			want:      "apparel",
		},
		{
			name:      "one ancestor",
			ancestors: []string{"apparel"},
			handle:    "shirts",
			want:      "apparel/shirts",
		},
		{
			name:      "two ancestors",
			ancestors: []string{"apparel", "shirts"},
			handle:    "tees",
			want:      "apparel/shirts/tees",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Join(tt.ancestors, tt.handle); got != tt.want {
				t.Errorf("Join(%v, %q) = %q, want %q", tt.ancestors, tt.handle, got, tt.want)
			}
		})
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	paths := []string{"a", "a/b", "a/b/c", "summer-sale/t-shirts"}
	for _, p := range paths {
		segs := Split(p)
		if got := Join(segs[:len(segs)-1], segs[len(segs)-1]); got != p {
			t.Errorf("round trip of %q produced %q", p, got)
		}
	}
}

func TestSplitEmpty(t *testing.T) {
	if got := Split(""); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}
}

func TestLevel(t *testing.T) {
	if got := Level(0); got != 0 {
		t.Errorf("Level(0) = %d, want 0", got)
	}
	if got := Level(3); got != 3 {
		t.Errorf("Level(3) = %d, want 3", got)
	}
}

func TestIsDescendant(t *testing.T) {
	tests := []struct {
		path, ancestor string
		want           bool
	}{
		{"a/b", "a", true},
		{"a/b/c", "a", true},
		{"a/b/c", "a/b", true},
		{"a", "a", false},           // a node is not its own descendant
		{"a/bc", "a/b", false},      // sibling with shared prefix
		{"ab", "a", false},          // handle-level prefix, not a segment
		{"x/a/b", "a", false},       // same handles, different subtree
	}

	for _, tt := range tests {
		if got := IsDescendant(tt.path, tt.ancestor); got != tt.want {
			t.Errorf("IsDescendant(%q, %q) = %v, want %v", tt.path, tt.ancestor, got, tt.want)
		}
	}
}

func TestRebase(t *testing.T) {
	tests := []struct {
		name             string
		path, old, new   string
		want             string
		wantOK           bool
	}{
		{name: "subtree root itself", path: "a/b", old: "a/b", new: "x/b", want: "x/b", wantOK: true},
		{name: "direct child", path: "a/b/c", old: "a/b", new: "x/b", want: "x/b/c", wantOK: true},
		{name: "deep descendant", path: "a/b/c/d", old: "a/b", new: "b", want: "b/c/d", wantOK: true},
		{name: "outside subtree", path: "a/z", old: "a/b", new: "x/b", wantOK: false},
		{name: "shared string prefix only", path: "a/bc", old: "a/b", new: "x/b", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Rebase(tt.path, tt.old, tt.new)
			if ok != tt.wantOK {
				t.Fatalf("Rebase(%q, %q, %q) ok = %v, want %v", tt.path, tt.old, tt.new, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Rebase(%q, %q, %q) = %q, want %q", tt.path, tt.old, tt.new, got, tt.want)
			}
		})
	}
}

func TestDetectCycle(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	// Moving a under c, where c's chain is [c, b, a]: cycle.
	if !DetectCycle(a, []uuid.UUID{c, b, a}) {
		t.Error("expected cycle when subtree root is an ancestor of the candidate parent")
	}

	// Moving a under itself.
	if !DetectCycle(a, []uuid.UUID{a}) {
		t.Error("expected cycle when candidate parent is the subtree root itself")
	}

	// Moving a under an unrelated chain.
	if DetectCycle(a, []uuid.UUID{c, b}) {
		t.Error("unexpected cycle for unrelated ancestor chain")
	}

	if DetectCycle(a, nil) {
		t.Error("unexpected cycle for empty chain")
	}
}
