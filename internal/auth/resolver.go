package auth

import (
	"net/http"
	"strings"
)

// SessionCookieName carries the same token as the Authorization header for
// browser clients.
const SessionCookieName = "withstudy_session"

type Status int

const (
	Unauthenticated Status = iota
	Authenticated
	Malformed
)

func (s Status) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Malformed:
		return "malformed"
	default:
		return "unauthenticated"
	}
}

// Result is the outcome of resolving a request's identity. StudentID is set
// only when Status is Authenticated; Err explains a Malformed result.
type Result struct {
	Status    Status
	StudentID uint64
	Err       error
}

type Resolver struct {
	secret string
}

func NewResolver(secret string) *Resolver {
	return &Resolver{secret: secret}
}

// Resolve looks for a bearer token first, then the session cookie. It never
// touches the database.
func (r *Resolver) Resolve(req *http.Request) Result {
	token, present, wellFormed := bearerToken(req)
	if !present {
		if c, err := req.Cookie(SessionCookieName); err == nil && strings.TrimSpace(c.Value) != "" {
			token, present, wellFormed = strings.TrimSpace(c.Value), true, true
		}
	}
	if !present {
		return Result{Status: Unauthenticated}
	}
	if !wellFormed {
		return Result{Status: Malformed, Err: ErrInvalidToken}
	}
	id, err := ParseJWT(token, r.secret)
	if err != nil {
		return Result{Status: Malformed, Err: err}
	}
	return Result{Status: Authenticated, StudentID: id}
}

func bearerToken(req *http.Request) (token string, present, wellFormed bool) {
	h := strings.TrimSpace(req.Header.Get("Authorization"))
	if h == "" {
		return "", false, false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true, false
	}
	token = strings.TrimSpace(parts[1])
	return token, true, token != ""
}
