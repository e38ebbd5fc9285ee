package scheduler

import (
	"errors"
	"fmt"
)

// EventType classifies events.
type EventType string

const (
	EventTypeExam               EventType = "exam"
	EventTypeTest               EventType = "test"
	EventTypeGeneric            EventType = "generic"
	EventTypeClass              EventType = "class"
	EventTypeOther              EventType = "other"
	EventTypeSpecialReservation EventType = "special_reservation"
)

// EventTypes lists every known event type.
var EventTypes = []EventType{
	EventTypeExam,
	EventTypeTest,
	EventTypeGeneric,
	EventTypeClass,
	EventTypeOther,
	EventTypeSpecialReservation,
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// EventStatus tracks the approval state of an event.
type EventStatus string

const (
	EventStatusPending  EventStatus = "pending"
	EventStatusAccepted EventStatus = "accepted"
	EventStatusRejected EventStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPending, EventStatusAccepted, EventStatusRejected:
		return true
	}
	return false
}

// Role is the organisational role of the acting user.
type Role string

const (
	RoleStudent  Role = "student"
	RoleEmployee Role = "employee"
)

var (
	// ErrForbidden is the generic authorization failure.
	ErrForbidden = errors.New("scheduler: forbidden")
	// ErrNotAuthor is returned when a non-author mutates an existing event.
	ErrNotAuthor = fmt.Errorf("%w: not the event author", ErrForbidden)
	// ErrInsufficientPrivilege is returned when the role may not use the requested type or status.
	ErrInsufficientPrivilege = fmt.Errorf("%w: insufficient privilege", ErrForbidden)
)

// AuthorizationRequest describes one create or update attempt.
type AuthorizationRequest struct {
	Role        Role
	Type        EventType
	Status      EventStatus
	EventExists bool
	IsAuthor    bool
	CanManage   bool
}

// Policy decides which roles may create which event types and statuses.
type Policy struct {
	StudentTypes  []EventType
	EmployeeTypes []EventType
}

// DefaultPolicy allows students generic events and employees generic, exam and test events.
func DefaultPolicy() Policy {
	return Policy{
		StudentTypes:  []EventType{EventTypeGeneric},
		EmployeeTypes: []EventType{EventTypeGeneric, EventTypeExam, EventTypeTest},
	}
}

// Authorize evaluates the rules in order; the first failure wins.
func (p Policy) Authorize(req AuthorizationRequest) error {
	if req.CanManage {
		return nil
	}
	if req.EventExists && !req.IsAuthor {
		return ErrNotAuthor
	}

	switch req.Role {
	case RoleStudent:
		if !containsType(p.StudentTypes, req.Type) || req.Status != EventStatusPending {
			return ErrInsufficientPrivilege
		}
		return nil
	case RoleEmployee:
		if !containsType(p.EmployeeTypes, req.Type) {
			return ErrInsufficientPrivilege
		}
		if req.Type == EventTypeGeneric {
			if req.Status != EventStatusPending {
				return ErrInsufficientPrivilege
			}
			return nil
		}
		if req.Status != EventStatusPending && req.Status != EventStatusAccepted {
			return ErrInsufficientPrivilege
		}
		return nil
	default:
		return ErrInsufficientPrivilege
	}
}

// MayDelete reports whether a principal may remove an event.
func (p Policy) MayDelete(isAuthor, canManage bool) error {
	if canManage || isAuthor {
		return nil
	}
	return ErrNotAuthor
}

func containsType(types []EventType, t EventType) bool {
	for _, allowed := range types {
		if allowed == t {
			return true
		}
	}
	return false
}
