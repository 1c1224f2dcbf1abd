package apperr

import "strings"

// Kind is the coarse category of a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuth
	KindPermission
	KindTransport
	KindValidation
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindPermission:
		return "permission"
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// The remote service reports failures only as prose, so classification is
// substring matching over the lowercased message. Order matters: GitHub's
// "Resource not accessible by personal access token" mentions a token but
// is a scope problem, so permission keywords are checked before auth ones.
// Rate limiting arrives as a 403 and is checked before both.
var (
	rateLimitKeywords = []string{
		"rate limit",
		"secondary rate",
		"abuse detection",
	}
	permissionKeywords = []string{
		"resource not accessible",
		"not accessible by personal access token",
		"permission",
		"forbidden",
		"access denied",
		"insufficient privileges",
	}
	authKeywords = []string{
		"github token not set",
		"invalid github token",
		"bad credentials",
		"unauthorized",
		"authentication",
		"token",
		"auth",
	}
	transportKeywords = []string{
		"network",
		"timeout",
		"timed out",
		"connection refused",
		"connection reset",
		"no such host",
		"fetch",
		"eof",
	}
	notFoundKeywords = []string{
		"not found",
		"404",
	}
)

// Classify maps a remote error message to a Kind.
func Classify(msg string) Kind {
	lower := strings.ToLower(msg)
	switch {
	case containsAny(lower, rateLimitKeywords):
		return KindTransport
	case containsAny(lower, permissionKeywords):
		return KindPermission
	case containsAny(lower, authKeywords):
		return KindAuth
	case containsAny(lower, transportKeywords):
		return KindTransport
	case containsAny(lower, notFoundKeywords):
		return KindNotFound
	default:
		return KindUnknown
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
