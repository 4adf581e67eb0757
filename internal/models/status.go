package models

import "fmt"

// Status is the folder-membership state of a message. The storage and wire
// representation stays as the individual boolean flags, but every transition
// goes through this type so the flag combinations can't drift into invalid
// states (e.g. is_deleted without is_in_trash).
type Status int

const (
	// StatusActive means the message sits in the inbox (or sent folder).
	StatusActive Status = iota
	// StatusArchived means the message was removed from the inbox.
	StatusArchived
	// StatusTrashed means the message was soft-deleted and can be restored.
	StatusTrashed
	// StatusDeleted means the message was permanently deleted. Terminal.
	StatusDeleted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusArchived:
		return "archived"
	case StatusTrashed:
		return "trashed"
	case StatusDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// StatusOf derives the folder-membership status from a message's flags.
// Trash takes precedence over archive, which takes precedence over
// active/sent; starred and important are cross-cutting flags, not folders.
func StatusOf(e *Email) Status {
	switch {
	case e.IsDeleted:
		return StatusDeleted
	case e.IsInTrash:
		return StatusTrashed
	case e.IsArchived:
		return StatusArchived
	default:
		return StatusActive
	}
}

// CanTransition reports whether moving from one status to another is valid.
// Hard delete is only reachable through trash, restore is only valid from
// trash, and a deleted message never comes back.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusActive:
		return to == StatusArchived || to == StatusTrashed
	case StatusArchived:
		return to == StatusActive || to == StatusTrashed
	case StatusTrashed:
		return to == StatusActive || to == StatusDeleted
	case StatusDeleted:
		return false
	default:
		return false
	}
}
