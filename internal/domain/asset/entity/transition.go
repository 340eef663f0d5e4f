package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transition names an operation that moves an asset between statuses
type Transition string

const (
	TransitionSubmit  Transition = "submit"
	TransitionApprove Transition = "approve"
	TransitionReject  Transition = "reject"
	TransitionRework  Transition = "rework"
	TransitionPublish Transition = "publish"
	TransitionArchive Transition = "archive"

	// TransitionUpdate is not a status change; it shares the source check so
	// metadata edits outside Draft/Rework report the same error.
	TransitionUpdate Transition = "update"
)

type edge struct {
	from []Status
	to   Status
}

var stateMachine = map[Transition]edge{
	TransitionSubmit:  {from: []Status{StatusDraft, StatusRework}, to: StatusPendingReview},
	TransitionApprove: {from: []Status{StatusPendingReview}, to: StatusApproved},
	TransitionReject:  {from: []Status{StatusPendingReview}, to: StatusRejected},
	TransitionRework:  {from: []Status{StatusPendingReview}, to: StatusRework},
	TransitionPublish: {from: []Status{StatusApproved}, to: StatusPublished},
	TransitionArchive: {from: []Status{StatusDraft, StatusApproved, StatusRejected, StatusPublished}, to: StatusArchived},
	TransitionUpdate:  {from: []Status{StatusDraft, StatusRework}},
}

// NextStatus returns the status reached by applying t to current
func NextStatus(current Status, t Transition) (Status, error) {
	e, ok := stateMachine[t]
	if !ok {
		return "", &InvalidStateTransitionError{Current: current, Attempted: t}
	}
	for _, s := range e.from {
		if s == current {
			if e.to == "" {
				return current, nil
			}
			return e.to, nil
		}
	}
	return "", &InvalidStateTransitionError{Current: current, Attempted: t}
}

// Review carries a reviewer's decision input
type Review struct {
	ReviewerID *int64
	Remarks    string
	Score      *int
	Checklist  []ChecklistItem
}

// Submit moves a draft or reworked asset into the review queue
func (a *Asset) Submit(submittedBy *int64, now time.Time) error {
	next, err := NextStatus(a.Status, TransitionSubmit)
	if err != nil {
		return err
	}
	if a.SEOScore == nil {
		return ErrSEOScoreRequired
	}
	if a.GrammarScore == nil {
		return ErrGrammarScoreRequired
	}
	if err := validateScore("seo_score", a.SEOScore); err != nil {
		return err
	}
	if err := validateScore("grammar_score", a.GrammarScore); err != nil {
		return err
	}

	a.Status = next
	a.QCStatus = QCStatusPending
	a.WorkflowStage = WorkflowStageSentToQC
	a.SubmittedBy = submittedBy
	a.SubmittedAt = &now
	return nil
}

// Approve records a passing review
func (a *Asset) Approve(r Review, now time.Time) error {
	next, err := NextStatus(a.Status, TransitionApprove)
	if err != nil {
		return err
	}
	score, err := r.resolveScore()
	if err != nil {
		return err
	}
	if score == nil {
		return ErrQCScoreRequired
	}

	a.applyReview(r, score, now)
	a.Status = next
	a.QCStatus = QCStatusApproved
	a.LinkingActive = true
	return nil
}

// Reject records a failing review; remarks are mandatory
func (a *Asset) Reject(r Review, now time.Time) error {
	next, err := NextStatus(a.Status, TransitionReject)
	if err != nil {
		return err
	}
	if strings.TrimSpace(r.Remarks) == "" {
		return ErrRejectRemarksRequired
	}
	score, err := r.resolveScore()
	if err != nil {
		return err
	}

	a.applyReview(r, score, now)
	a.Status = next
	a.QCStatus = QCStatusReject
	return nil
}

// RequestRework sends the asset back to its submitter and bumps rework_count
func (a *Asset) RequestRework(r Review, now time.Time) error {
	next, err := NextStatus(a.Status, TransitionRework)
	if err != nil {
		return err
	}
	if strings.TrimSpace(r.Remarks) == "" {
		return ErrReworkRemarksRequired
	}
	score, err := r.resolveScore()
	if err != nil {
		return err
	}

	a.applyReview(r, score, now)
	a.Status = next
	a.QCStatus = QCStatusRework
	a.WorkflowStage = WorkflowStageInRework
	a.ReworkCount++
	return nil
}

// Publish marks an approved asset as published
func (a *Asset) Publish(publishedBy *int64, now time.Time) error {
	next, err := NextStatus(a.Status, TransitionPublish)
	if err != nil {
		return err
	}
	a.Status = next
	a.WorkflowStage = WorkflowStagePublished
	a.PublishedBy = publishedBy
	a.PublishedAt = &now
	return nil
}

// Archive retires the asset. Archived is terminal.
func (a *Asset) Archive() error {
	next, err := NextStatus(a.Status, TransitionArchive)
	if err != nil {
		return err
	}
	a.Status = next
	return nil
}

func (a *Asset) applyReview(r Review, score *int, now time.Time) {
	a.QCScore = score
	a.QCRemarks = strings.TrimSpace(r.Remarks)
	a.QCReviewerID = r.ReviewerID
	a.QCReviewedAt = &now
	if r.Checklist != nil {
		a.QCChecklistItems = r.Checklist
	}
}

// resolveScore validates the explicit score, or derives one from the checklist
func (r Review) resolveScore() (*int, error) {
	for _, item := range r.Checklist {
		if strings.TrimSpace(item.ItemName) == "" || item.Score < 0 || item.MaxScore < 0 || item.Score > item.MaxScore {
			return nil, ErrInvalidChecklistItem
		}
	}
	if r.Score != nil {
		if err := validateScore("qc_score", r.Score); err != nil {
			return nil, err
		}
		return r.Score, nil
	}
	return ChecklistScore(r.Checklist), nil
}

// ChecklistScore converts checklist points to a 0-100 score. Returns nil when
// the checklist carries no points.
func ChecklistScore(items []ChecklistItem) *int {
	var earned, possible int64
	for _, item := range items {
		earned += int64(item.Score)
		possible += int64(item.MaxScore)
	}
	if possible == 0 {
		return nil
	}
	pct := decimal.NewFromInt(earned * 100).Div(decimal.NewFromInt(possible)).Round(0)
	score := int(pct.IntPart())
	return &score
}
