package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/gantt/internal/domain"
	"gopkg.in/yaml.v3"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "gantt.snapshot.v1"

// Format names a snapshot encoding.
type Format string

// Supported snapshot encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat normalizes a user supplied format name.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Snapshot is the portable form of one document tree.
type Snapshot struct {
	Version     string         `json:"version" yaml:"version"`
	ExportedAt  time.Time      `json:"exported_at" yaml:"exported_at"`
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Nodes       []SnapshotNode `json:"nodes" yaml:"nodes"`
}

// SnapshotNode represents one outline node and its subtree.
type SnapshotNode struct {
	ID       string         `json:"id" yaml:"id"`
	Type     string         `json:"type,omitempty" yaml:"type,omitempty"`
	Content  string         `json:"content" yaml:"content"`
	Color    string         `json:"color,omitempty" yaml:"color,omitempty"`
	IsLeaf   bool           `json:"is_leaf,omitempty" yaml:"is_leaf,omitempty"`
	Expanded bool           `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	ImageURL string         `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Tasks    []SnapshotTask `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	Links    []SnapshotLink `json:"links,omitempty" yaml:"links,omitempty"`
	Children []SnapshotNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// SnapshotTask represents one schedulable item.
type SnapshotTask struct {
	ID       string `json:"id" yaml:"id"`
	Content  string `json:"content" yaml:"content"`
	StartDay int    `json:"start_day" yaml:"start_day"`
	Duration int    `json:"duration" yaml:"duration"`
	Color    string `json:"color,omitempty" yaml:"color,omitempty"`
	Progress int    `json:"progress" yaml:"progress"`
	Author   string `json:"author,omitempty" yaml:"author,omitempty"`
	Row      int    `json:"row" yaml:"row"`
}

// SnapshotLink represents one dependency arrow.
type SnapshotLink struct {
	ID          string `json:"id" yaml:"id"`
	Source      string `json:"source" yaml:"source"`
	Target      string `json:"target" yaml:"target"`
	SourcePoint string `json:"source_point,omitempty" yaml:"source_point,omitempty"`
	TargetPoint string `json:"target_point,omitempty" yaml:"target_point,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
}

// NewSnapshot captures tree for export.
func NewSnapshot(name, description string, tree domain.Tree, now time.Time) Snapshot {
	return Snapshot{
		Version:     SnapshotVersion,
		ExportedAt:  now.UTC(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Nodes:       snapshotNodes(tree),
	}
}

func snapshotNodes(nodes []domain.Node) []SnapshotNode {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]SnapshotNode, 0, len(nodes))
	for _, n := range nodes {
		sn := SnapshotNode{
			ID:       n.ID,
			Type:     string(n.Type),
			Content:  n.Content,
			Color:    n.Color,
			IsLeaf:   n.IsLeaf,
			Expanded: n.Expanded,
			ImageURL: n.ImageURL,
			Children: snapshotNodes(n.Children),
		}
		for _, t := range n.Tasks {
			sn.Tasks = append(sn.Tasks, SnapshotTask{
				ID:       t.ID,
				Content:  t.Content,
				StartDay: t.StartDay,
				Duration: t.Duration,
				Color:    t.Color,
				Progress: t.Progress,
				Author:   t.Author,
				Row:      t.Row,
			})
		}
		for _, l := range n.Links {
			sn.Links = append(sn.Links, SnapshotLink{
				ID:          l.ID,
				Source:      l.SourceTaskID,
				Target:      l.TargetTaskID,
				SourcePoint: string(l.SourcePoint),
				TargetPoint: string(l.TargetPoint),
				Color:       l.Color,
			})
		}
		out = append(out, sn)
	}
	return out
}

// Tree rebuilds a validated domain tree. Tasks are clamped into range and links that
// cannot be honoured are dropped; their ids are returned as repairs.
func (s Snapshot) Tree() (domain.Tree, []string, error) {
	if s.Version != "" && s.Version != SnapshotVersion {
		return nil, nil, fmt.Errorf("%w: %q", ErrSnapshotVersion, s.Version)
	}
	b := treeBuilder{seen: map[string]struct{}{}}
	nodes, err := b.nodes(s.Nodes)
	if err != nil {
		return nil, nil, err
	}
	tree := domain.Tree(nodes).Normalize()
	if err := tree.Validate(); err != nil {
		return nil, nil, err
	}
	return tree, b.repairs, nil
}

type treeBuilder struct {
	seen    map[string]struct{}
	repairs []string
}

func (b *treeBuilder) nodes(in []SnapshotNode) ([]domain.Node, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]domain.Node, 0, len(in))
	for _, sn := range in {
		node, err := domain.NewNode(domain.NodeInput{
			ID:       sn.ID,
			Type:     domain.NodeType(sn.Type),
			Content:  sn.Content,
			Color:    sn.Color,
			IsLeaf:   sn.IsLeaf || (len(sn.Tasks) > 0 && len(sn.Children) == 0),
			Expanded: sn.Expanded,
			ImageURL: sn.ImageURL,
		})
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", sn.ID, err)
		}
		if _, dup := b.seen[node.ID]; dup {
			return nil, fmt.Errorf("node %q: duplicate id: %w", node.ID, domain.ErrInvalidID)
		}
		b.seen[node.ID] = struct{}{}

		if node.Children, err = b.nodes(sn.Children); err != nil {
			return nil, err
		}
		if node.IsLeaf {
			if node.Tasks, err = b.tasks(sn.Tasks); err != nil {
				return nil, fmt.Errorf("node %q: %w", node.ID, err)
			}
			node.Links = b.links(node, sn.Links)
		} else {
			for _, st := range sn.Tasks {
				b.repairs = append(b.repairs, "task "+st.ID)
			}
		}
		out = append(out, node)
	}
	return out, nil
}

func (b *treeBuilder) tasks(in []SnapshotTask) ([]domain.Task, error) {
	out := make([]domain.Task, 0, len(in))
	for _, st := range in {
		raw := domain.Task{
			ID:       st.ID,
			Content:  st.Content,
			StartDay: st.StartDay,
			Duration: st.Duration,
			Color:    st.Color,
			Progress: st.Progress,
			Author:   st.Author,
			Row:      st.Row,
		}.Normalize()
		task, err := domain.NewTask(domain.TaskInput(raw))
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", st.ID, err)
		}
		if _, dup := b.seen[task.ID]; dup {
			return nil, fmt.Errorf("task %q: duplicate id: %w", task.ID, domain.ErrInvalidID)
		}
		b.seen[task.ID] = struct{}{}
		out = append(out, task)
	}
	return out, nil
}

// links keeps the well-formed links whose endpoints both live in node.
func (b *treeBuilder) links(node domain.Node, in []SnapshotLink) []domain.TaskLink {
	var out []domain.TaskLink
	for _, sl := range in {
		link, err := domain.NewTaskLink(domain.TaskLinkInput{
			ID:           sl.ID,
			SourceTaskID: sl.Source,
			TargetTaskID: sl.Target,
			SourcePoint:  domain.LinkPoint(strings.ToLower(strings.TrimSpace(sl.SourcePoint))),
			TargetPoint:  domain.LinkPoint(strings.ToLower(strings.TrimSpace(sl.TargetPoint))),
			Color:        sl.Color,
		})
		_, okSrc := node.TaskByID(link.SourceTaskID)
		_, okDst := node.TaskByID(link.TargetTaskID)
		_, dup := b.seen[link.ID]
		if err != nil || !okSrc || !okDst || dup {
			b.repairs = append(b.repairs, "link "+sl.ID)
			continue
		}
		b.seen[link.ID] = struct{}{}
		out = append(out, link)
	}
	return out
}

// EncodeSnapshot serializes s as JSON or YAML.
func EncodeSnapshot(s Snapshot, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json snapshot: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("encode yaml snapshot: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml snapshot: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// DecodeSnapshot parses a snapshot envelope or a bare list of root nodes.
func DecodeSnapshot(data []byte, format Format) (Snapshot, error) {
	var (
		s     Snapshot
		nodes []SnapshotNode
	)
	switch format {
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &nodes); err != nil {
				return Snapshot{}, fmt.Errorf("decode json nodes: %w", err)
			}
			return Snapshot{Nodes: nodes}, nil
		}
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Snapshot{}, fmt.Errorf("decode json snapshot: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &s); err != nil {
			if listErr := yaml.Unmarshal(data, &nodes); listErr != nil {
				return Snapshot{}, fmt.Errorf("decode yaml snapshot: %w", err)
			}
			return Snapshot{Nodes: nodes}, nil
		}
	default:
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return s, nil
}

// EncodeTree writes tree as a versioned snapshot.
func EncodeTree(tree domain.Tree, format Format, now time.Time) ([]byte, error) {
	return EncodeSnapshot(NewSnapshot("", "", tree, now), format)
}

// DecodeTree parses and repairs a tree. Repairs are silently applied.
func DecodeTree(data []byte, format Format) (domain.Tree, error) {
	s, err := DecodeSnapshot(data, format)
	if err != nil {
		return nil, err
	}
	tree, _, err := s.Tree()
	return tree, err
}
