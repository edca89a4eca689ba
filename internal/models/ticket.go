package models

import "time"

const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusWaiting    = "WAITING"
	StatusResolved   = "RESOLVED"
	StatusClosed     = "CLOSED"
)

const (
	PriorityLow      = "LOW"
	PriorityMedium   = "MEDIUM"
	PriorityHigh     = "HIGH"
	PriorityCritical = "CRITICAL"
)

// Unassigned is the assignedTo placeholder for fresh tickets.
const Unassigned = "UNASSIGNED"

func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusWaiting, StatusResolved, StatusClosed:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type Ticket struct {
	ID             string     `json:"ticketId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	Resolution     string     `json:"resolution,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	CreatedBy      string     `json:"createdBy"`
	CreatedByEmail string     `json:"createdByEmail,omitempty"`
	AssignedTo     string     `json:"assignedTo"`
	AssignedToName string     `json:"assignedToName,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
}

type Comment struct {
	ID             string    `json:"commentId"`
	TicketID       string    `json:"ticketId"`
	Content        string    `json:"content"`
	Attachments    []string  `json:"attachments,omitempty"`
	IsInternal     bool      `json:"isInternal"`
	CreatedBy      string    `json:"createdBy"`
	CreatedByEmail string    `json:"createdByEmail,omitempty"`
	CreatedByName  string    `json:"createdByName,omitempty"`
	CreatedByRole  string    `json:"createdByRole,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
