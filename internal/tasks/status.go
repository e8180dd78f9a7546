// Package tasks implements the task lifecycle: status transitions, the
// start/end stamping around them and the elapsed hours recorded on completion.
package tasks

import (
	"errors"
	"fmt"
	"strings"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

const (
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

var (
	ErrUnknownStatus  = errors.New("unknown task status")
	ErrTerminalStatus = errors.New("task is already done")
	ErrNoTransition   = errors.New("task already has this status")
	ErrForbidden      = errors.New("task is not assigned to you")
	ErrStatusChanged  = errors.New("task status was changed by another request")
)

// transitions lists the allowed target statuses per source status. done has
// no entry.
var transitions = map[Status][]Status{
	StatusTodo:       {StatusInProgress, StatusDone},
	StatusInProgress: {StatusDone, StatusTodo},
}

// ParseStatus accepts the stored form, case-insensitive.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusTodo, StatusInProgress, StatusDone:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// CanTransition reports whether a task may move from one status to another.
func CanTransition(from, to Status) error {
	if from == StatusDone {
		return ErrTerminalStatus
	}
	if from == to {
		return fmt.Errorf("%w: %s", ErrNoTransition, to)
	}
	allowed, ok := transitions[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	for _, st := range allowed {
		if st == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
}

// Actor is the authenticated user performing a change.
type Actor struct {
	UserID int32
	Role   string
}

// CanAccess reports whether the actor may read or change a task assigned to
// assigneeID. Managers see everything.
func (a Actor) CanAccess(assigneeID int32) bool {
	return a.Role == RoleManager || a.UserID == assigneeID
}
