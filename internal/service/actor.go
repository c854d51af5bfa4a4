package service

import (
	"net/url"
	"slices"
	"strings"

	"leadflow/internal/model"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of an engine operation. It is always passed
// explicitly; the engine never reads identity from ambient state.
type Actor struct {
	UserID      uuid.UUID
	Role        string
	CategoryIDs []uuid.UUID
}

// HasCategory reports whether the category is assigned to the actor
func (a Actor) HasCategory(categoryID uuid.UUID) bool {
	return slices.Contains(a.CategoryIDs, categoryID)
}

// NormalizeTarget canonicalizes a domain or profile URL so cooldown and
// visibility checks compare like with like.
func NormalizeTarget(target string) string {
	t := strings.ToLower(strings.TrimSpace(target))
	return strings.TrimRight(t, "/")
}

// PlatformFor derives the outreach platform from a normalized target
func PlatformFor(target string) string {
	host := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = u.Host
	} else if i := strings.IndexByte(target, '/'); i >= 0 {
		host = target[:i]
	}
	if host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com") {
		return model.PlatformLinkedIn
	}
	return model.PlatformWebsite
}
