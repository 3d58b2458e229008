package layout

import (
	"reflect"
	"testing"

	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/viewport"
)

func testTree() domain.Tree {
	return domain.Tree{{
		ID: "p", Type: domain.NodeTypeProject, Content: "Project",
		Children: []domain.Node{
			{
				ID: "s1", Type: domain.NodeTypeSection, Content: "Design",
				Children: []domain.Node{{
					ID: "g1", Type: domain.NodeTypeTaskGroup, Content: "UX", IsLeaf: true,
					Tasks: []domain.Task{
						{ID: "t1", Content: "Wireframes", StartDay: 0, Duration: 2, Row: 0},
						{ID: "t2", Content: "Mockups", StartDay: 2, Duration: 3, Row: 3},
					},
				}},
			},
			{ID: "g2", Type: domain.NodeTypeTaskGroup, Content: "Empty", IsLeaf: true},
		},
	}}.Normalize()
}

func TestFlattenPreOrderRespectsExpandSet(t *testing.T) {
	vp := viewport.New(viewport.DefaultDimensions(), viewport.DefaultMinZoom, viewport.DefaultMaxZoom)
	tree := testTree()

	flat := Flatten(tree, ExpandSet{}, vp)
	if len(flat) != 1 || flat[0].Node.ID != "p" {
		t.Fatalf("collapsed root should hide children, got %d rows", len(flat))
	}

	flat = Flatten(tree, ExpandAll(tree), vp)
	var ids []string
	for _, f := range flat {
		ids = append(ids, f.Node.ID)
	}
	if want := []string{"p", "s1", "g1", "g2"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("unexpected order %v, want %v", ids, want)
	}
	if flat[0].Y != vp.Dims.HeaderHeight {
		t.Fatalf("first row should start below header, got %v", flat[0].Y)
	}
	g1 := flat[2]
	if g1.Height != 4*vp.ScaledRowHeight() {
		t.Fatalf("expected sparse max row 3 to give 4 rows, got %v", g1.Height)
	}
	if flat[3].Y != g1.Bottom() {
		t.Fatalf("rows must be contiguous: %v vs %v", flat[3].Y, g1.Bottom())
	}
	if flat[3].Height != vp.ScaledRowHeight() || flat[3].Level != 1 {
		t.Fatalf("unexpected empty-leaf row %+v", flat[3])
	}
}

func TestFlattenIsIdempotentAndPure(t *testing.T) {
	vp := viewport.New(viewport.DefaultDimensions(), viewport.DefaultMinZoom, viewport.DefaultMaxZoom).SetZoom(1.7).Pan(0, -33)
	tree := testTree()
	before := tree.Clone()
	expanded := ExpandAll(tree)
	a := Flatten(tree, expanded, vp)
	b := Flatten(tree, expanded, vp)
	for i := range a {
		if a[i].Y != b[i].Y || a[i].Height != b[i].Height {
			t.Fatalf("row %d differs between runs", i)
		}
	}
	if !reflect.DeepEqual(before, tree) {
		t.Fatal("Flatten mutated its input")
	}
	if a[0].Y != vp.Dims.HeaderHeight-33 {
		t.Fatalf("offsetY not applied: %v", a[0].Y)
	}
}

func TestAtAndDropPosition(t *testing.T) {
	vp := viewport.New(viewport.DefaultDimensions(), viewport.DefaultMinZoom, viewport.DefaultMaxZoom)
	tree := testTree()
	flat := Flatten(tree, ExpandAll(tree), vp)
	s1 := flat[1]

	got, idx, ok := At(flat, s1.Y+1)
	if !ok || idx != 1 || got.Node.ID != "s1" {
		t.Fatalf("At() = %q %d %t", got.Node.ID, idx, ok)
	}
	if _, _, ok := At(flat, 0); ok {
		t.Fatal("expected header area to miss")
	}
	rh := vp.ScaledRowHeight()
	if p := DropPosition(s1, s1.Y+rh*0.1, vp); p != domain.PositionBefore {
		t.Fatalf("top third = %q", p)
	}
	if p := DropPosition(s1, s1.Y+rh*0.5, vp); p != domain.PositionInside {
		t.Fatalf("middle third = %q", p)
	}
	if p := DropPosition(s1, s1.Y+rh*0.9, vp); p != domain.PositionAfter {
		t.Fatalf("bottom third = %q", p)
	}
	if p := DropPosition(flat[3], flat[3].Y+rh*0.5, vp); p != domain.PositionAfter {
		t.Fatalf("leaf middle third should resolve to after, got %q", p)
	}
}

func TestExpandSetToggleReturnsCopy(t *testing.T) {
	s := ExpandSet{}
	s2 := s.Toggle("a")
	if s.Has("a") || !s2.Has("a") {
		t.Fatal("Toggle must not mutate the receiver")
	}
	if s2.Toggle("a").Has("a") {
		t.Fatal("second toggle should collapse")
	}
	if !ExpandSetFromTree(domain.Tree{{ID: "x", Expanded: true}}).Has("x") {
		t.Fatal("expected seed from Expanded flag")
	}
}
