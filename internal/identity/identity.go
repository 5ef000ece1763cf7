// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identity derives stable result identities from a result's source
// link and fetch category.
package identity

import (
	"net/url"
	"strings"

	"github.com/pdiddy/perspective-engine/pkg/types"
)

// UnknownLink is the link recorded for results that arrive without a usable
// link. All such results of one category share this bucket.
const UnknownLink = "unknown:"

// Resolve returns the identity of a raw result. It is pure and total: two
// results with the same link and category resolve to the same ID regardless of
// engine, batch, or position.
func Resolve(r types.RawResult) types.ResultID {
	return New(r.Link, r.Category)
}

// New builds a ResultID from a link and a fetch category.
func New(link, category string) types.ResultID {
	return types.ResultID{
		Link:     NormalizeLink(link),
		Category: normalizeCategory(category),
	}
}

// NormalizeLink trims the link and lower-cases the scheme and host of absolute
// URLs. Path, query and fragment are kept as-is. A blank link becomes
// UnknownLink.
func NormalizeLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return UnknownLink
	}

	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return link
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "/" && u.RawQuery == "" && u.Fragment == "" {
		u.Path = ""
	}
	return u.String()
}

// IsUnknown reports whether id belongs to the unknown-link bucket.
func IsUnknown(id types.ResultID) bool {
	return id.Link == UnknownLink
}

func normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return types.CategoryUnknown
	}
	return category
}
