package entity

import (
	"strings"
	"time"
)

// Status is the asset lifecycle status. It is the only status-like field
// governed by the QC state machine.
type Status string

const (
	StatusDraft         Status = "Draft"
	StatusPendingReview Status = "Pending QC Review"
	StatusApproved      Status = "QC Approved"
	StatusRejected      Status = "QC Rejected"
	StatusRework        Status = "Rework Required"
	StatusPublished     Status = "Published"
	StatusArchived      Status = "Archived"
)

// WorkflowStage is caller-set production metadata. The workflow writes a
// matching stage on some transitions but never reads it.
type WorkflowStage string

const (
	WorkflowStageAdd        WorkflowStage = "Add"
	WorkflowStageInProgress WorkflowStage = "In Progress"
	WorkflowStageSentToQC   WorkflowStage = "Sent to QC"
	WorkflowStagePublished  WorkflowStage = "Published"
	WorkflowStageInRework   WorkflowStage = "In Rework"
	WorkflowStageMoved      WorkflowStage = "Moved to CW/GD/WD"
)

// QCStatus is the QC outcome marker. Pass and Fail only arrive through
// imported records; the workflow writes the other four.
type QCStatus string

const (
	QCStatusPending  QCStatus = "QC Pending"
	QCStatusRework   QCStatus = "Rework"
	QCStatusApproved QCStatus = "Approved"
	QCStatusReject   QCStatus = "Reject"
	QCStatusPass     QCStatus = "Pass"
	QCStatusFail     QCStatus = "Fail"
)

// Static service link types
const (
	LinkTypeService    = "service"
	LinkTypeSubService = "sub_service"
)

// MaxNameLength is the maximum length of an asset name
const MaxNameLength = 255

// ChecklistItem is a single scored line of a QC checklist
type ChecklistItem struct {
	ItemName string `json:"item_name"`
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
	Result   string `json:"result"`
}

// StaticServiceLink ties an asset to a service or sub-service at upload time
type StaticServiceLink struct {
	ServiceID    *int64 `json:"service_id,omitempty"`
	SubServiceID *int64 `json:"sub_service_id,omitempty"`
	Type         string `json:"type"`
}

// Asset is a piece of marketing collateral tracked through QC review
type Asset struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	ContentType string `json:"content_type"`
	Repository  string `json:"repository"`
	FileURL     string `json:"file_url,omitempty"`
	FileKey     string `json:"file_key,omitempty"`

	Status        Status        `json:"status"`
	WorkflowStage WorkflowStage `json:"workflow_stage"`
	QCStatus      QCStatus      `json:"qc_status"`

	QCReviewerID     *int64          `json:"qc_reviewer_id,omitempty"`
	QCReviewedAt     *time.Time      `json:"qc_reviewed_at,omitempty"`
	QCScore          *int            `json:"qc_score,omitempty"`
	QCRemarks        string          `json:"qc_remarks"`
	QCChecklistItems []ChecklistItem `json:"qc_checklist_items"`
	ReworkCount      int             `json:"rework_count"`
	LinkingActive    bool            `json:"linking_active"`

	SubmittedBy *int64     `json:"submitted_by,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedBy   *int64     `json:"created_by,omitempty"`
	DesignedBy  *int64     `json:"designed_by,omitempty"`
	PublishedBy *int64     `json:"published_by,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	VerifiedBy  *int64     `json:"verified_by,omitempty"`

	StaticServiceLinks []StaticServiceLink `json:"static_service_links"`

	// Advisory AI scores, 0-100
	SEOScore          *int `json:"seo_score,omitempty"`
	GrammarScore      *int `json:"grammar_score,omitempty"`
	AIPlagiarismScore *int `json:"ai_plagiarism_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version is bumped by every successful save and guards concurrent writers
	Version int64 `json:"-"`
}

// IsEditable returns true if asset metadata can still be changed
func (a *Asset) IsEditable() bool {
	return a.Status == StatusDraft || a.Status == StatusRework
}

// Validate validates caller-supplied asset fields
func (a *Asset) Validate() error {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return ErrNameRequired
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if err := validateScore("seo_score", a.SEOScore); err != nil {
		return err
	}
	if err := validateScore("grammar_score", a.GrammarScore); err != nil {
		return err
	}
	if err := validateScore("ai_plagiarism_score", a.AIPlagiarismScore); err != nil {
		return err
	}
	if a.WorkflowStage != "" && !IsValidWorkflowStage(a.WorkflowStage) {
		return ErrInvalidWorkflowStage
	}
	for _, l := range a.StaticServiceLinks {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that exactly one target id matches the link type
func (l StaticServiceLink) Validate() error {
	switch l.Type {
	case LinkTypeService:
		if l.ServiceID == nil || l.SubServiceID != nil {
			return ErrInvalidServiceLink
		}
	case LinkTypeSubService:
		if l.SubServiceID == nil || l.ServiceID != nil {
			return ErrInvalidServiceLink
		}
	default:
		return ErrInvalidServiceLink
	}
	return nil
}

// Normalize replaces nil collections so they encode as empty JSON arrays
func (a *Asset) Normalize() {
	if a.QCChecklistItems == nil {
		a.QCChecklistItems = []ChecklistItem{}
	}
	if a.StaticServiceLinks == nil {
		a.StaticServiceLinks = []StaticServiceLink{}
	}
}

// IsValidStatus checks if a status is a known lifecycle status
func IsValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusPendingReview, StatusApproved, StatusRejected,
		StatusRework, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// IsValidWorkflowStage checks if a workflow stage is known
func IsValidWorkflowStage(s WorkflowStage) bool {
	switch s {
	case WorkflowStageAdd, WorkflowStageInProgress, WorkflowStageSentToQC,
		WorkflowStagePublished, WorkflowStageInRework, WorkflowStageMoved:
		return true
	}
	return false
}

// IsValidQCStatus checks if a QC status marker is known
func IsValidQCStatus(s QCStatus) bool {
	switch s {
	case QCStatusPending, QCStatusRework, QCStatusApproved,
		QCStatusReject, QCStatusPass, QCStatusFail:
		return true
	}
	return false
}

func validateScore(field string, score *int) error {
	if score == nil {
		return nil
	}
	if *score < 0 || *score > 100 {
		return ScoreOutOfRange(field)
	}
	return nil
}
