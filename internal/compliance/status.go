// Package compliance computes submission compliance for facilities and
// programs, and resolves the date windows used by summary reports.
//
// Everything here is pure: callers pass in the already-loaded submissions,
// programs, facilities and users together with a clock, and every call
// recomputes its result from scratch.
package compliance

import (
	"errors"
	"strings"
)

// Status is the compliance state of a facility/program pairing, or of a facility overall.
type Status string

const (
	StatusPending             Status = "Pending"
	StatusRejected            Status = "Rejected"
	StatusPendingConfirmation Status = "Pending Confirmation"
	StatusSubmitted           Status = "Submitted"
	StatusOverdue             Status = "Overdue"

	// Facility-level only.
	StatusNoUser        Status = "No User"
	StatusNotApplicable Status = "Not Applicable"
)

// ReviewState is the canonical review state of a single submission.
type ReviewState string

const (
	ReviewPending  ReviewState = "pending"
	ReviewApproved ReviewState = "approved"
	ReviewRejected ReviewState = "rejected"
)

// ReviewAction is a reviewer or uploader action on a submission.
type ReviewAction string

const (
	ActionApprove  ReviewAction = "approve"
	ActionReject   ReviewAction = "reject"
	ActionResubmit ReviewAction = "resubmit"
)

var (
	// ErrInvalidTransition is returned when an action does not apply to the current review state.
	ErrInvalidTransition = errors.New("invalid review transition")
	// ErrUnknownAction is returned for unrecognised review actions.
	ErrUnknownAction = errors.New("unknown review action")
)

// NormalizeReview maps either stored status vocabulary onto a ReviewState.
//
// Newer records use pending/approved/rejected. Older records use
// "Pending Confirmation", "Submitted", "Rejected" or "Overdue" together with
// a confirmed flag; for those only rejection and confirmation matter.
func NormalizeReview(rawStatus string, confirmed bool) ReviewState {
	switch strings.ToLower(strings.TrimSpace(rawStatus)) {
	case "rejected":
		return ReviewRejected
	case "approved":
		return ReviewApproved
	}
	if confirmed {
		return ReviewApproved
	}
	return ReviewPending
}

// StoredStatus returns the status string written for a review state.
func (s ReviewState) StoredStatus() string {
	return string(s)
}

// ParseReviewAction validates a raw action string.
func ParseReviewAction(raw string) (ReviewAction, error) {
	switch ReviewAction(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionApprove:
		return ActionApprove, nil
	case ActionReject:
		return ActionReject, nil
	case ActionResubmit:
		return ActionResubmit, nil
	default:
		return "", ErrUnknownAction
	}
}

// NextReviewState applies action to current. A pending submission can be
// approved or rejected; a rejected one can be resubmitted in place, which
// returns it to pending. Approved submissions are final.
func NextReviewState(current ReviewState, action ReviewAction) (ReviewState, error) {
	switch action {
	case ActionApprove:
		if current == ReviewPending {
			return ReviewApproved, nil
		}
	case ActionReject:
		if current == ReviewPending {
			return ReviewRejected, nil
		}
	case ActionResubmit:
		if current == ReviewRejected {
			return ReviewPending, nil
		}
	default:
		return current, ErrUnknownAction
	}
	return current, ErrInvalidTransition
}
