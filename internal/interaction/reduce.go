package interaction

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/layout"
	"github.com/hylla/gantt/internal/mutation"
	"github.com/hylla/gantt/internal/viewport"
)

// Reduce applies one event to the state. It never mutates s or f.
func Reduce(s State, ev Event, f Frame) (State, Effect) {
	switch ev := ev.(type) {
	case PointerDown:
		return pointerDown(s, ev, f)
	case PointerMove:
		return pointerMove(s, ev, f)
	case PointerUp:
		return pointerUp(s, ev.X, ev.Y, f)
	case PointerLeave:
		return pointerUp(s, s.CursorX, s.CursorY, f)
	case Wheel:
		return wheel(s, ev)
	case Key:
		return key(s, ev, f)
	case EditInput:
		if s.Edit == nil {
			return s, Effect{}
		}
		edit := *s.Edit
		edit.Value = ev.Value
		s.Edit = &edit
		return s, Effect{Redraw: true}
	case Blur:
		var eff Effect
		s = commitEdit(s, &eff)
		return s, eff
	default:
		return s, Effect{Diagnostic: fmt.Sprintf("unhandled event %T", ev)}
	}
}

func pointerDown(s State, ev PointerDown, f Frame) (State, Effect) {
	var eff Effect
	s.CursorX, s.CursorY = ev.X, ev.Y
	if s.Edit != nil {
		s = commitEdit(s, &eff)
	}
	if s.Busy() {
		return s, eff
	}
	if ev.Button == ButtonMiddle {
		s = startPan(s, ev.X, ev.Y)
		return s, eff
	}
	if ev.Button != ButtonLeft {
		return s, eff
	}

	hit := f.hit(ev.X, ev.Y, s.Modes())
	eff.Redraw = true
	switch hit.Kind {
	case hittest.KindAxisButton:
		s.Scale = hit.Scale
	case hittest.KindControl:
		switch hit.Control {
		case hittest.ControlEditTree:
			s.EditMode = !s.EditMode
		case hittest.ControlLinkMode:
			s.LinkMode = !s.LinkMode
			if !s.LinkMode {
				s.Link = nil
			}
		}
	case hittest.KindTreeButton:
		s = treeButton(s, hit, f, &eff)
	case hittest.KindLinkDelete:
		eff.add(mutation.DeleteLink{LinkID: hit.LinkID})
	case hittest.KindItem:
		s = itemDown(s, ev, hit.Item, f, &eff)
	case hittest.KindToggle:
		s.Expanded = s.Expanded.Toggle(hit.NodeID)
	case hittest.KindImage:
		if node, ok := f.Tree.Find(hit.NodeID); ok {
			s.Edit = &TextEdit{Target: EditImage, ID: node.ID, Original: node.ImageURL, Value: node.ImageURL}
		}
	case hittest.KindBadge:
		s = selectNode(s, hit.NodeID, f, &eff)
	case hittest.KindLabel, hittest.KindRow:
		s.TreeDrag = &TreeDrag{NodeID: hit.NodeID, StartY: ev.Y, FromLabel: hit.Kind == hittest.KindLabel}
		s.Viewport.Dragging = true
	default:
		if s.Link != nil {
			s.Link = nil
			return s, eff
		}
		s = startPan(s, ev.X, ev.Y)
	}
	return s, eff
}

func startPan(s State, x, y float64) State {
	s.Pan = &PanState{StartX: x, StartY: y, LastX: x, LastY: y}
	s.Viewport.Dragging = true
	return s
}

func itemDown(s State, ev PointerDown, item hittest.ItemRegion, f Frame, eff *Effect) State {
	if s.LinkMode {
		return linkClick(s, item, ev.X, f, eff)
	}
	if ev.Clicks >= 2 {
		s.Edit = &TextEdit{Target: EditTask, ID: item.TaskID, Original: item.Task.Content, Value: item.Task.Content}
		return s
	}

	switch {
	case ev.Mod.Multi() && s.Selection.Has(item.TaskID):
		s.Selection = s.Selection.Without(item.TaskID)
		if s.Primary == item.TaskID {
			s.Primary = ""
		}
		eff.SelectionChanged = true
		return s
	case ev.Mod.Multi():
		s.Selection = s.Selection.With(item.TaskID, item.NodeID)
		s.Primary = item.TaskID
		eff.SelectionChanged = true
	case !(len(s.Selection) == 1 && s.Selection.Has(item.TaskID)):
		s.Selection = Selection{item.TaskID: item.NodeID}
		s.Primary = item.TaskID
		eff.SelectionChanged = true
	}

	s.Drag = &TaskDrag{
		Mode:     ClassifyDrag(item, ev.X),
		NodeID:   item.NodeID,
		Original: item.Task,
		Live:     PreviewOf(item.Task),
		StartX:   ev.X,
		StartY:   ev.Y,
	}
	s.Viewport.Dragging = true
	return s
}

func linkClick(s State, item hittest.ItemRegion, x float64, f Frame, eff *Effect) State {
	point, ax, ay := NearestAnchor(item, x)
	if s.Link == nil {
		s.Link = &LinkArm{SourceTaskID: item.TaskID, NodeID: item.NodeID, SourcePoint: point, AnchorX: ax, AnchorY: ay}
		return s
	}
	arm := *s.Link
	s.Link = nil
	switch {
	case arm.SourceTaskID == item.TaskID:
		eff.Diagnostic = fmt.Sprintf("link ignored: task %q links to itself", item.TaskID)
		return s
	case arm.NodeID != item.NodeID:
		eff.Diagnostic = fmt.Sprintf("link ignored: tasks %q and %q live in different groups", arm.SourceTaskID, item.TaskID)
		return s
	}
	id := f.newID()
	if id == "" {
		id = fmt.Sprintf("link-%s-%s", arm.SourceTaskID, item.TaskID)
	}
	eff.add(mutation.AddLink{Link: domain.TaskLink{
		ID:           id,
		SourceTaskID: arm.SourceTaskID,
		TargetTaskID: item.TaskID,
		SourcePoint:  arm.SourcePoint,
		TargetPoint:  point,
	}})
	return s
}

func selectNode(s State, nodeID string, f Frame, eff *Effect) State {
	node, ok := f.Tree.Find(nodeID)
	if !ok || len(node.Tasks) == 0 {
		eff.Diagnostic = fmt.Sprintf("badge click on %q selected nothing", nodeID)
		return s
	}
	sel := Selection{}
	for _, t := range node.Tasks {
		sel[t.ID] = node.ID
	}
	s.Selection = sel
	s.Primary = ""
	eff.SelectionChanged = true
	return s
}

func treeButton(s State, hit hittest.Hit, f Frame, eff *Effect) State {
	node, ok := f.Tree.Find(hit.NodeID)
	if !ok {
		eff.Diagnostic = fmt.Sprintf("tree button for missing node %q", hit.NodeID)
		return s
	}
	switch hit.Action {
	case hittest.TreeActionDelete:
		eff.add(mutation.DeleteNode{NodeID: node.ID})
		s.Selection, s.Primary = pruneSelection(s.Selection, node), ""
		eff.SelectionChanged = true
	case hittest.TreeActionAddSibling:
		child, err := newOutlineNode(f.newID(), node.Type)
		if err != nil {
			eff.Diagnostic = err.Error()
			return s
		}
		eff.add(mutation.AddNode{TargetID: node.ID, Position: domain.PositionAfter, Node: child})
		s.Expanded = s.Expanded.With(child.ID)
	case hittest.TreeActionAddChild:
		child, err := newOutlineNode(f.newID(), childType(node.Type))
		if err != nil {
			eff.Diagnostic = err.Error()
			return s
		}
		eff.add(mutation.AddNode{TargetID: node.ID, Position: domain.PositionInside, Node: child})
		s.Expanded = s.Expanded.With(node.ID).With(child.ID)
	case hittest.TreeActionMoveUp, hittest.TreeActionMoveDown:
		delta := -1
		if hit.Action == hittest.TreeActionMoveDown {
			delta = 1
		}
		m, ok := mutation.ShiftNode(f.source(), node.ID, delta)
		if !ok {
			eff.Diagnostic = fmt.Sprintf("node %q cannot move %s", node.ID, hit.Action)
			return s
		}
		eff.add(m)
	}
	return s
}

func childType(t domain.NodeType) domain.NodeType {
	if t == domain.NodeTypeProject {
		return domain.NodeTypeSection
	}
	return domain.NodeTypeTaskGroup
}

func newOutlineNode(id string, t domain.NodeType) (domain.Node, error) {
	label := "New section"
	switch t {
	case domain.NodeTypeProject:
		label = "New project"
	case domain.NodeTypeTaskGroup:
		label = "New group"
	}
	return domain.NewNode(domain.NodeInput{ID: id, Type: t, Content: label, Expanded: true})
}

// pruneSelection drops selected tasks that live inside a removed subtree.
func pruneSelection(sel Selection, removed domain.Node) Selection {
	inside := map[string]struct{}{}
	domain.Tree{removed}.Walk(func(n domain.Node, _ int) bool {
		inside[n.ID] = struct{}{}
		return true
	})
	out := Selection{}
	for taskID, nodeID := range sel {
		if _, ok := inside[nodeID]; !ok {
			out[taskID] = nodeID
		}
	}
	return out
}

func pointerMove(s State, ev PointerMove, f Frame) (State, Effect) {
	var eff Effect
	s.CursorX, s.CursorY = ev.X, ev.Y

	switch {
	case s.Pan != nil:
		pan := *s.Pan
		s.Viewport = s.Viewport.Pan(ev.X-pan.LastX, ev.Y-pan.LastY)
		pan.LastX, pan.LastY = ev.X, ev.Y
		if math.Hypot(ev.X-pan.StartX, ev.Y-pan.StartY) >= PanThreshold {
			pan.Moved = true
		}
		s.Pan = &pan
		eff.Redraw = true
	case s.Drag != nil:
		drag := *s.Drag
		drag.Live = LivePreview(drag, ev.X, ev.Y, s.Viewport, f.Calendar.TotalDays)
		s.Drag = &drag
		eff.Redraw = true
	case s.TreeDrag != nil:
		s.TreeDrag = treeDragMove(*s.TreeDrag, ev.Y, s.Viewport, f)
		eff.Redraw = true
	case s.Link != nil:
		eff.Redraw = true
	}

	hover := ""
	if f.Hits != nil && !s.Busy() {
		if item, ok := f.Hits.ItemAt(ev.X, ev.Y); ok {
			hover = item.TaskID
		}
	}
	if hover != s.Hover {
		s.Hover = hover
		eff.Redraw = true
	}
	return s, eff
}

func treeDragMove(d TreeDrag, y float64, vp viewport.Viewport, f Frame) *TreeDrag {
	if math.Abs(y-d.StartY) >= PanThreshold {
		d.Moved = true
	}
	d.TargetID, d.Position = "", ""
	if !d.Moved {
		return &d
	}
	target, _, ok := layout.At(f.Flat, y)
	if !ok || target.Node.ID == d.NodeID || f.Tree.IsDescendant(d.NodeID, target.Node.ID) {
		return &d
	}
	d.TargetID = target.Node.ID
	d.Position = layout.DropPosition(target, y, vp)
	return &d
}

func pointerUp(s State, x, y float64, f Frame) (State, Effect) {
	var eff Effect
	s.CursorX, s.CursorY = x, y

	switch {
	case s.Pan != nil:
		if !s.Pan.Moved && len(s.Selection) > 0 {
			s.Selection, s.Primary = Selection{}, ""
			eff.SelectionChanged = true
		}
		eff.Redraw = true
	case s.Drag != nil:
		drag := *s.Drag
		drag.Live = LivePreview(drag, x, y, s.Viewport, f.Calendar.TotalDays)
		if task, changed := Commit(drag, f.Calendar); changed {
			eff.add(mutation.UpdateTask{Task: task})
		}
		eff.Redraw = true
	case s.TreeDrag != nil:
		drag := *treeDragMove(*s.TreeDrag, y, s.Viewport, f)
		switch {
		case drag.Moved && drag.TargetID != "":
			eff.add(mutation.MoveNode{NodeID: drag.NodeID, TargetID: drag.TargetID, Position: drag.Position})
		case drag.Moved:
			eff.Diagnostic = fmt.Sprintf("drop of %q resolved to no target", drag.NodeID)
		case drag.FromLabel:
			if node, ok := f.Tree.Find(drag.NodeID); ok {
				s.Edit = &TextEdit{Target: EditNode, ID: node.ID, Original: node.Content, Value: node.Content}
			}
		}
		eff.Redraw = true
	}
	s = s.endGesture()
	return s, eff
}

func wheel(s State, ev Wheel) (State, Effect) {
	if ev.Mod.Ctrl || ev.Mod.Meta {
		if ev.DeltaY == 0 {
			return s, Effect{}
		}
		s.Viewport = s.Viewport.ZoomAt(ev.X, ev.Y, viewport.WheelFactor(ev.DeltaY))
		return s, Effect{Redraw: true}
	}
	dx, dy := -ev.DeltaX, -ev.DeltaY
	if ev.Mod.Shift {
		dx, dy = -ev.DeltaY, 0
	}
	s.Viewport = s.Viewport.Pan(dx, dy)
	return s, Effect{Redraw: true}
}

func key(s State, ev Key, f Frame) (State, Effect) {
	var eff Effect
	if s.Edit != nil {
		switch ev.Name {
		case KeyEscape:
			s.Edit = nil
			eff.Redraw = true
		case KeyEnter:
			s = commitEdit(s, &eff)
		}
		return s, eff
	}

	switch ev.Name {
	case KeyEscape:
		switch {
		case s.Busy():
			s = s.endGesture()
		case s.Link != nil:
			s.Link = nil
		case len(s.Selection) > 0:
			s.Selection, s.Primary = Selection{}, ""
			eff.SelectionChanged = true
		}
		eff.Redraw = true
	case KeyDelete, KeyBackspace:
		ids := s.Selection.IDs()
		if len(ids) == 0 || s.Busy() {
			return s, eff
		}
		eff.add(mutation.DeleteTasks{TaskIDs: ids})
		s.Selection, s.Primary = Selection{}, ""
		eff.SelectionChanged = true
	case KeyDuplicate:
		if !(ev.Mod.Ctrl || ev.Mod.Meta) || len(s.Selection) == 0 || s.Busy() {
			return s, eff
		}
		pairs := make(map[string]string, len(s.Selection))
		for _, id := range s.Selection.IDs() {
			pairs[id] = f.newID()
		}
		eff.add(mutation.DuplicateTasks{NewIDs: pairs})
	}
	return s, eff
}

// IDs returns the selected task ids in stable order.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func commitEdit(s State, eff *Effect) State {
	if s.Edit == nil {
		return s
	}
	edit := *s.Edit
	s.Edit = nil
	eff.Redraw = true
	value := strings.TrimSpace(edit.Value)
	if value == strings.TrimSpace(edit.Original) {
		return s
	}
	switch edit.Target {
	case EditNode:
		if value == "" {
			return s
		}
		eff.add(mutation.RenameNode{NodeID: edit.ID, Content: value})
	case EditTask:
		if value == "" {
			return s
		}
		eff.add(mutation.RenameTask{TaskID: edit.ID, Content: value})
	case EditImage:
		eff.add(mutation.UpdateImage{NodeID: edit.ID, URL: value})
	}
	return s
}
