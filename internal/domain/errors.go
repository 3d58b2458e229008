package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidContent   = errors.New("invalid content")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidNodeType  = errors.New("invalid node type")
	ErrInvalidStartDay  = errors.New("invalid start day")
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrInvalidRow       = errors.New("invalid row")
	ErrInvalidProgress  = errors.New("invalid progress")
	ErrInvalidLinkPoint = errors.New("invalid link point")
	ErrInvalidPosition  = errors.New("invalid position")
	ErrSelfLink         = errors.New("link source and target are the same task")
	ErrCrossNodeLink    = errors.New("link endpoints live in different nodes")
	ErrDuplicateLink    = errors.New("link already exists")
	ErrNodeNotFound     = errors.New("node not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrLinkNotFound     = errors.New("link not found")
	ErrNotLeaf          = errors.New("node does not hold tasks")
	ErrLeafTarget       = errors.New("cannot nest a node inside a task group")
	ErrCyclicMove       = errors.New("cannot move a node into itself or its descendants")
)
