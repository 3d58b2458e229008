package domain

import "strings"

// LinkPoint identifies which anchor of a task a link attaches to.
type LinkPoint string

// LinkPoint values.
const (
	LinkPointStart LinkPoint = "start"
	LinkPointEnd   LinkPoint = "end"
)

// TaskLink is a directed dependency drawn between two task anchors of the same node.
type TaskLink struct {
	ID           string
	SourceTaskID string
	TargetTaskID string
	SourcePoint  LinkPoint
	TargetPoint  LinkPoint
	Color        string
}

type TaskLinkInput struct {
	ID           string
	SourceTaskID string
	TargetTaskID string
	SourcePoint  LinkPoint
	TargetPoint  LinkPoint
	Color        string
}

func NewTaskLink(in TaskLinkInput) (TaskLink, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.SourceTaskID = strings.TrimSpace(in.SourceTaskID)
	in.TargetTaskID = strings.TrimSpace(in.TargetTaskID)
	in.Color = strings.TrimSpace(in.Color)
	if in.ID == "" || in.SourceTaskID == "" || in.TargetTaskID == "" {
		return TaskLink{}, ErrInvalidID
	}
	if in.SourceTaskID == in.TargetTaskID {
		return TaskLink{}, ErrSelfLink
	}
	if in.SourcePoint == "" {
		in.SourcePoint = LinkPointEnd
	}
	if in.TargetPoint == "" {
		in.TargetPoint = LinkPointStart
	}
	if !IsValidLinkPoint(in.SourcePoint) || !IsValidLinkPoint(in.TargetPoint) {
		return TaskLink{}, ErrInvalidLinkPoint
	}
	return TaskLink{
		ID:           in.ID,
		SourceTaskID: in.SourceTaskID,
		TargetTaskID: in.TargetTaskID,
		SourcePoint:  in.SourcePoint,
		TargetPoint:  in.TargetPoint,
		Color:        in.Color,
	}, nil
}

func IsValidLinkPoint(p LinkPoint) bool {
	return p == LinkPointStart || p == LinkPointEnd
}

// Touches reports whether the link references the task id at either end.
func (l TaskLink) Touches(taskID string) bool {
	return l.SourceTaskID == taskID || l.TargetTaskID == taskID
}

// SameEndpoints reports whether two links connect the same anchors.
func (l TaskLink) SameEndpoints(other TaskLink) bool {
	return l.SourceTaskID == other.SourceTaskID &&
		l.TargetTaskID == other.TargetTaskID &&
		l.SourcePoint == other.SourcePoint &&
		l.TargetPoint == other.TargetPoint
}
