// Package apperror defines the error taxonomy shared by the lifecycle engine,
// the store and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so the HTTP layer can pick a status code.
type Kind int

const (
	// KindInternal is an unexpected store or infrastructure failure
	KindInternal Kind = iota
	// KindNotFound means a referenced job, application or user does not resolve
	KindNotFound
	// KindForbidden means the actor lacks the role or ownership for the action
	KindForbidden
	// KindConflict means a precondition on the current state is violated
	KindConflict
	// KindInvalidInput means a field is malformed or missing
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// Rule names the precondition that failed.
type Rule string

// Rules reported by the engine and the store.
const (
	RuleNone                    Rule = ""
	RuleWrongRole               Rule = "wrong_role"
	RuleNotOwner                Rule = "not_owner"
	RuleRegistrationIncomplete  Rule = "registration_incomplete"
	RuleJobInactive             Rule = "job_inactive"
	RuleDeadlinePassed          Rule = "deadline_passed"
	RuleJobFull                 Rule = "job_full"
	RuleMaxApplicantsReached    Rule = "max_applicants_reached"
	RuleActiveApplicationLimit  Rule = "active_application_limit"
	RuleAlreadyAccepted         Rule = "already_accepted"
	RuleDuplicateApplication    Rule = "duplicate_application"
	RuleInvalidTransition       Rule = "invalid_transition"
	RulePositionsBelowAccepted  Rule = "positions_below_accepted"
	RuleMaxApplicantsBelowCount Rule = "max_applicants_below_count"
	RuleDeadlineShrink          Rule = "deadline_shrink"
	RuleNotEligibleToRate       Rule = "not_eligible_to_rate"
	RuleAlreadyRated            Rule = "already_rated"
	RuleDuplicateEmail          Rule = "duplicate_email"
	RuleUserTypeFixed           Rule = "user_type_fixed"
	RuleValidation              Rule = "validation"
	RuleDuplicate               Rule = "duplicate"
)

// Error is the structured error every engine operation returns.
type Error struct {
	Kind    Kind
	Rule    Rule
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, and by rule when the target names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Rule == RuleNone || t.Rule == e.Rule
}

// Sentinels usable with errors.Is to match on kind only.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrInternal     = &Error{Kind: KindInternal}
)

// NotFound builds a KindNotFound error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Forbidden builds a KindForbidden error for the given rule.
func Forbidden(rule Rule, message string) *Error {
	return &Error{Kind: KindForbidden, Rule: rule, Message: message}
}

// Conflict builds a KindConflict error for the given rule.
func Conflict(rule Rule, message string) *Error {
	return &Error{Kind: KindConflict, Rule: rule, Message: message}
}

// Invalid builds a KindInvalidInput error.
func Invalid(message string) *Error {
	return &Error{Kind: KindInvalidInput, Rule: RuleValidation, Message: message}
}

// Invalidf is Invalid with formatting.
func Invalidf(format string, args ...any) *Error {
	return Invalid(fmt.Sprintf(format, args...))
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// RuleOf returns the rule carried by err, if any.
func RuleOf(err error) Rule {
	var e *Error
	if errors.As(err, &e) {
		return e.Rule
	}
	return RuleNone
}

// HTTPStatus maps err to the status code the API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to a client. Internal details
// never leave the process.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal server error"
}
