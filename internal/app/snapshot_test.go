package app

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/hylla/gantt/internal/domain"
)

func TestFormatParsing(t *testing.T) {
	cases := map[string]Format{"plan.json": FormatJSON, "plan.YAML": FormatYAML, "plan.yml": FormatYAML}
	for path, want := range cases {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Fatalf("FormatFromPath(%q) = %q, %v", path, got, err)
		}
	}
	if _, err := FormatFromPath("plan.toml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("FormatFromPath() error = %v, want ErrUnknownFormat", err)
	}
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	tree := SampleTree(nil, testCalendar())
	data, err := EncodeTree(tree, FormatJSON, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("EncodeTree() error = %v", err)
	}
	got, err := DecodeTree(data, FormatJSON)
	if err != nil {
		t.Fatalf("DecodeTree() error = %v", err)
	}
	var want, have []string
	tree.Walk(func(n domain.Node, _ int) bool {
		want = append(want, n.ID)
		for _, task := range n.Tasks {
			want = append(want, task.ID)
		}
		return true
	})
	got.Walk(func(n domain.Node, _ int) bool {
		have = append(have, n.ID)
		for _, task := range n.Tasks {
			have = append(have, task.ID)
		}
		return true
	})
	if !slices.Equal(want, have) {
		t.Fatalf("ids differ after round trip:\nwant %v\ngot  %v", want, have)
	}
}

func TestDecodeRepairsLinksAndClampsTasks(t *testing.T) {
	doc := `
- id: p
  content: Plan
  children:
    - id: g
      content: Group
      tasks:
        - {id: a, content: A, start_day: -3, duration: 2, progress: 140}
        - {id: b, content: B, start_day: 4, duration: 0}
      links:
        - {id: ok, source: a, target: b}
        - {id: self, source: a, target: a}
        - {id: ghost, source: a, target: zz}
        - {id: bent, source: a, target: b, source_point: middle}
`
	snap, err := DecodeSnapshot([]byte(doc), FormatYAML)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	tree, repairs, err := snap.Tree()
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	if want := []string{"link self", "link ghost", "link bent"}; !slices.Equal(repairs, want) {
		t.Fatalf("repairs = %v, want %v", repairs, want)
	}
	g, ok := tree.Find("g")
	if !ok || !g.IsLeaf || g.Level != 1 || g.ParentID != "p" {
		t.Fatalf("expected normalized leaf, got %+v", g)
	}
	a, _ := g.TaskByID("a")
	if a.StartDay != 0 || a.Progress != 100 {
		t.Fatalf("expected clamped task, got %+v", a)
	}
	if len(g.Links) != 1 || g.Links[0].SourcePoint != domain.LinkPointEnd {
		t.Fatalf("expected one defaulted link, got %+v", g.Links)
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	if _, err := DecodeTree([]byte(`{"version":"other.v9","nodes":[]}`), FormatJSON); !errors.Is(err, ErrSnapshotVersion) {
		t.Fatalf("DecodeTree() error = %v, want ErrSnapshotVersion", err)
	}
	dup := `[{"id":"x","content":"A"},{"id":"x","content":"B"}]`
	if _, err := DecodeTree([]byte(dup), FormatJSON); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("DecodeTree() error = %v, want ErrInvalidID", err)
	}
	blank := `[{"id":"g","content":"G","is_leaf":true,"tasks":[{"id":"t","content":" "}]}]`
	if _, err := DecodeTree([]byte(blank), FormatJSON); !errors.Is(err, domain.ErrInvalidContent) {
		t.Fatalf("DecodeTree() error = %v, want ErrInvalidContent", err)
	}
	if _, err := DecodeTree(nil, Format("xml")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("DecodeTree() error = %v, want ErrUnknownFormat", err)
	}
}
