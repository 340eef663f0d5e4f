package entity

import (
	"errors"
	"fmt"
)

// ErrAssetNotFound is returned when no asset exists for an id
var ErrAssetNotFound = errors.New("asset not found")

// ErrConcurrentUpdate is returned when another request changed the asset
// between read and write without moving its status
var ErrConcurrentUpdate = errors.New("asset was modified by another request, reload and retry")

// ValidationError reports caller-supplied data that violates a precondition
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InvalidStateTransitionError reports a transition attempted from a status
// that does not list it as a valid source
type InvalidStateTransitionError struct {
	Current   Status
	Attempted Transition
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s asset in status %q", e.Attempted, e.Current)
}

// Validation errors
var (
	ErrNameRequired         = &ValidationError{Field: "name", Message: "asset name is required"}
	ErrNameTooLong          = &ValidationError{Field: "name", Message: "asset name exceeds maximum length of 255 characters"}
	ErrInvalidWorkflowStage = &ValidationError{Field: "workflow_stage", Message: "invalid workflow stage"}
	ErrInvalidServiceLink   = &ValidationError{Field: "static_service_links", Message: "static service link must reference exactly one service or sub-service matching its type"}

	ErrSEOScoreRequired     = &ValidationError{Field: "seo_score", Message: "SEO score is required before submission"}
	ErrGrammarScoreRequired = &ValidationError{Field: "grammar_score", Message: "Grammar score is required before submission"}

	ErrQCScoreRequired       = &ValidationError{Field: "qc_score", Message: "QC score is required for approval"}
	ErrRejectRemarksRequired = &ValidationError{Field: "qc_remarks", Message: "Remarks are required for rejection"}
	ErrReworkRemarksRequired = &ValidationError{Field: "qc_remarks", Message: "Remarks are required for rework request"}
	ErrInvalidChecklistItem  = &ValidationError{Field: "qc_checklist_items", Message: "checklist item needs a name and 0 <= score <= max_score"}
)

// ScoreOutOfRange builds the validation error for a 0-100 score field
func ScoreOutOfRange(field string) *ValidationError {
	return &ValidationError{Field: field, Message: field + " must be between 0 and 100"}
}
