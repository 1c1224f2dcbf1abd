package apperr

import (
	"errors"
	"strings"
)

// Remedy is the action a user should take after a failure.
type Remedy int

const (
	RemedyNone Remedy = iota
	RemedyReauthenticate
	RemedyFixPermissions
	RemedyRetry
	RemedyFixInput
)

func (r Remedy) String() string {
	switch r {
	case RemedyReauthenticate:
		return "reauthenticate"
	case RemedyFixPermissions:
		return "fix_permissions"
	case RemedyRetry:
		return "retry"
	case RemedyFixInput:
		return "fix_input"
	default:
		return "none"
	}
}

// RemedyFor returns the suggested action for a kind.
func RemedyFor(k Kind) Remedy {
	switch k {
	case KindAuth:
		return RemedyReauthenticate
	case KindPermission:
		return RemedyFixPermissions
	case KindValidation:
		return RemedyFixInput
	case KindTransport, KindUnknown, KindNotFound:
		return RemedyRetry
	default:
		return RemedyNone
	}
}

// ActionLabel is the short label of the button or key hint offering the remedy.
func ActionLabel(k Kind) string {
	switch k {
	case KindAuth:
		return "Set token again"
	case KindPermission:
		return "Check token scopes"
	case KindValidation:
		return "Edit"
	default:
		return "Retry"
	}
}

// Suggestion is a one-sentence hint on how to recover.
func Suggestion(k Kind) string {
	switch k {
	case KindAuth:
		return "Check that your GitHub personal access token is correct and has not expired."
	case KindPermission:
		return "Your token lacks a required scope. Generate a new token and grant the repo-write scope (full repository access)."
	case KindValidation:
		return "Fix the highlighted input and try again."
	case KindNotFound:
		return "The note or repository may have been deleted or renamed. Reload and try again."
	default:
		return "Try again later, or check your network connection."
	}
}

// Message returns a friendly description of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	raw := err.Error()
	var ae *Error
	if errors.As(err, &ae) {
		raw = ae.Err.Error()
	}
	lower := strings.ToLower(raw)
	switch KindOf(err) {
	case KindAuth:
		return "Authentication failed, check that your GitHub token is valid"
	case KindPermission:
		return "Permission denied, the token cannot write to this repository"
	case KindTransport:
		if strings.Contains(lower, "rate limit") {
			return "GitHub API rate limit exceeded, try again later"
		}
		return "Network request failed, check your connection and retry"
	case KindValidation:
		return raw
	case KindNotFound:
		return "Not found"
	default:
		return raw
	}
}
