package hittest

// Kind names the category a pointer position resolved to.
type Kind int

const (
	KindBackground Kind = iota
	KindAxisButton
	KindControl
	KindTreeButton
	KindLinkDelete
	KindItem
	KindToggle
	KindImage
	KindBadge
	KindLabel
	KindRow
)

func (k Kind) String() string {
	switch k {
	case KindAxisButton:
		return "axis_button"
	case KindControl:
		return "control"
	case KindTreeButton:
		return "tree_button"
	case KindLinkDelete:
		return "link_delete"
	case KindItem:
		return "item"
	case KindToggle:
		return "toggle"
	case KindImage:
		return "image"
	case KindBadge:
		return "badge"
	case KindLabel:
		return "label"
	case KindRow:
		return "row"
	default:
		return "background"
	}
}

// Modes gates the mode-specific categories during resolution.
type Modes struct {
	EditMode bool
	LinkMode bool
}

// Hit is the resolved target of a pointer position.
type Hit struct {
	Kind    Kind
	NodeID  string
	TaskID  string
	LinkID  string
	Action  TreeAction
	Scale   TimeScale
	Control Control
	Item    ItemRegion
}

// Resolve returns the first region under (x, y) in priority order: axis buttons,
// header controls, tree buttons (edit mode), link delete buttons (link mode),
// items (topmost first), toggles, images, badges, then labels and rows (edit mode).
func (r *Registry) Resolve(x, y float64, modes Modes) Hit {
	for _, b := range r.AxisButtons {
		if b.Rect.Contains(x, y) {
			return Hit{Kind: KindAxisButton, Scale: b.Scale}
		}
	}
	for _, b := range r.Controls {
		if b.Rect.Contains(x, y) {
			return Hit{Kind: KindControl, Control: b.Control}
		}
	}
	if modes.EditMode {
		for _, b := range r.TreeButtons {
			if b.Rect.Contains(x, y) {
				return Hit{Kind: KindTreeButton, NodeID: b.NodeID, Action: b.Action}
			}
		}
	}
	if modes.LinkMode {
		for _, b := range r.LinkButtons {
			if b.Contains(x, y) {
				return Hit{Kind: KindLinkDelete, NodeID: b.NodeID, LinkID: b.LinkID}
			}
		}
	}
	if item, ok := r.ItemAt(x, y); ok {
		return Hit{Kind: KindItem, NodeID: item.NodeID, TaskID: item.TaskID, Item: item}
	}
	if n, ok := firstNode(r.Toggles, x, y); ok {
		return Hit{Kind: KindToggle, NodeID: n.NodeID}
	}
	if n, ok := firstNode(r.Images, x, y); ok {
		return Hit{Kind: KindImage, NodeID: n.NodeID}
	}
	if n, ok := firstNode(r.Badges, x, y); ok {
		return Hit{Kind: KindBadge, NodeID: n.NodeID}
	}
	if modes.EditMode {
		if n, ok := firstNode(r.Labels, x, y); ok {
			return Hit{Kind: KindLabel, NodeID: n.NodeID}
		}
		if n, ok := firstNode(r.Rows, x, y); ok {
			return Hit{Kind: KindRow, NodeID: n.NodeID}
		}
	}
	return Hit{Kind: KindBackground}
}

// ItemAt returns the topmost item under (x, y). Items drawn later sit on top.
func (r *Registry) ItemAt(x, y float64) (ItemRegion, bool) {
	for i := len(r.Items) - 1; i >= 0; i-- {
		if r.Items[i].Contains(x, y) {
			return r.Items[i], true
		}
	}
	return ItemRegion{}, false
}

// RowAt returns the sidebar row under (x, y) regardless of mode.
func (r *Registry) RowAt(x, y float64) (NodeRegion, bool) {
	return firstNode(r.Rows, x, y)
}

func firstNode(regions []NodeRegion, x, y float64) (NodeRegion, bool) {
	for _, n := range regions {
		if n.Rect.Contains(x, y) {
			return n, true
		}
	}
	return NodeRegion{}, false
}
