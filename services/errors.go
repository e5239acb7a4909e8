package services

import "errors"

// Sentinel errors for the workflow engine. Services wrap these with
// fmt.Errorf("%w: ...") so callers can test the kind with errors.Is while
// still receiving a human-readable message.
var (
	// ErrInvalidTransition: the event is not legal from the submission's
	// current status, or a suggestion is not in a respondable state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrForbidden: the actor lacks the role or scoped assignment the
	// operation requires.
	ErrForbidden = errors.New("forbidden")

	// ErrUnresolvedSuggestions: resubmit blocked by pending suggestions.
	ErrUnresolvedSuggestions = errors.New("unresolved suggestions")

	// ErrPolicyNotFound: no active incentive policy covers the
	// (category, sub_type) pair at the requested time.
	ErrPolicyNotFound = errors.New("incentive policy not found")

	// ErrConflict: a concurrent transition won the compare-and-swap race;
	// the caller should re-fetch and retry.
	ErrConflict = errors.New("conflict")

	// ErrNotFound: the referenced submission, suggestion, or record is
	// absent.
	ErrNotFound = errors.New("not found")

	// ErrValidation: malformed or incomplete input.
	ErrValidation = errors.New("validation error")
)
