// Package domain defines the work-item hierarchy and supporting entities:
// projects, features, tasks, dependencies, sections, and templates.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Priority ranks features and tasks.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// DependencyType classifies the relationship a Dependency records between
// two tasks.
type DependencyType string

const (
	DepBlocks      DependencyType = "BLOCKS"
	DepIsBlockedBy DependencyType = "IS_BLOCKED_BY"
	DepRelatesTo   DependencyType = "RELATES_TO"
)

// EntityType identifies what kind of thing a Section or Template section
// attaches to.
type EntityType string

const (
	EntityProject  EntityType = "PROJECT"
	EntityFeature  EntityType = "FEATURE"
	EntityTask     EntityType = "TASK"
	EntityTemplate EntityType = "TEMPLATE"
)

// ContentFormat describes how a Section's content should be interpreted.
type ContentFormat string

const (
	FormatMarkdown ContentFormat = "MARKDOWN"
	FormatPlain    ContentFormat = "PLAIN_TEXT"
	FormatJSON     ContentFormat = "JSON"
	FormatCode     ContentFormat = "CODE"
)

// Project is the top level of the work-item hierarchy.
type Project struct {
	ID          uuid.UUID
	Name        string
	Description string
	Summary     string
	Status      string // internal (UPPER_SNAKE) form; see status.Normalize
	Tags        []string
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// Feature groups related tasks, optionally under a project.
type Feature struct {
	ID                 uuid.UUID
	Name               string
	Description        string
	Summary            string
	Status             string
	Priority           Priority
	ProjectID          *uuid.UUID
	RequiresVerification bool
	Tags               []string
	CreatedAt          time.Time
	ModifiedAt         time.Time
}

// Task is the leaf of the work-item hierarchy.
type Task struct {
	ID                   uuid.UUID
	Title                string
	Description          string
	Summary              string
	Status               string
	Priority             Priority
	Complexity           int // 1..10
	ProjectID            *uuid.UUID
	FeatureID            *uuid.UUID
	RequiresVerification bool
	Tags                 []string
	CreatedAt            time.Time
	ModifiedAt           time.Time
}

// Dependency records a directed relationship between two tasks.
type Dependency struct {
	ID          uuid.UUID
	FromTaskID  uuid.UUID
	ToTaskID    uuid.UUID
	Type        DependencyType
	UnblockAt   *string // role name override; nil means "terminal" (the default)
	CreatedAt   time.Time
}

// Section is a titled block of content attached to a container or template.
type Section struct {
	ID                uuid.UUID
	EntityType        EntityType
	EntityID          uuid.UUID
	Title             string
	UsageDescription  string
	Content           string
	ContentFormat     ContentFormat
	Ordinal           int
	Tags              []string
	CreatedAt         time.Time
	ModifiedAt        time.Time
}

// Template describes a reusable set of section definitions that can be
// applied to a newly created entity.
type Template struct {
	ID               uuid.UUID
	Name             string
	Description      string
	TargetEntityType EntityType
	IsBuiltIn        bool
	IsProtected      bool
	IsEnabled        bool
	Tags             []string
	CreatedAt        time.Time
	ModifiedAt       time.Time
}

// TemplateSection is a section definition belonging to a Template.
type TemplateSection struct {
	ID               uuid.UUID
	TemplateID       uuid.UUID
	Title            string
	UsageDescription string
	ContentSample    string
	ContentFormat    ContentFormat
	Ordinal          int
	IsRequired       bool
	Tags             []string
}

// FeatureTaskCounts rolls up a feature's tasks by terminal-status bucket.
type FeatureTaskCounts struct {
	Total     int
	Completed int
	Cancelled int
	Deferred  int
	Pending   int
	InProgress int
}

// ProjectFeatureCounts rolls up a project's features.
type ProjectFeatureCounts struct {
	Total     int
	Completed int
}
