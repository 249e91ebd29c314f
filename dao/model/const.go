// Constants mapped to database columns.
// Gin rejects zero values for fields tagged `required`, so every enum starts
// at iota + 1 to keep the zero value out of the legal range.
package model

// Role of the actor on the platform, carried in the JWT.
type Role uint8

const (
	RoleGuest Role = iota + 1
	RoleUser
	RoleAdmin
)

// WorkItemType distinguishes the three kinds of work items.
// Subtasks are the only kind allowed to have a parent work item.
type WorkItemType uint8

const (
	WorkItemTask WorkItemType = iota + 1
	WorkItemBug
	WorkItemSubtask
)

// Priority of an epic or work item, 1 is highest.
type Priority uint8

const (
	PriorityHighest Priority = iota + 1
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityLowest
)

// CounterKind scopes a project key counter.
type CounterKind uint8

const (
	CounterEpic CounterKind = iota + 1
	CounterWorkItem
)

// Verbs recorded in the activity trail.
const (
	VerbStatusMoved    = "status_moved"
	VerbParentChanged  = "parent_changed"
	VerbColumnsOrdered = "columns_reordered"
)
