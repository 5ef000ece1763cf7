// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package view derives what is displayed from a store snapshot: the
// perspective-filtered, credibility-ranked list and its overview statistics.
// Everything here is a pure function of its inputs.
package view

import (
	"slices"
	"strings"

	"github.com/pdiddy/perspective-engine/pkg/types"
)

// mainstreamTypes are source-type labels that place a result in the
// mainstream perspective regardless of the query variant that fetched it.
var mainstreamTypes = map[string]bool{
	"government":            true,
	"academic_institution":  true,
	"research_publication":  true,
	"news_media_mainstream": true,
	"mainstream":            true,
}

// fringeTypes are source-type labels that place a result in the fringe
// perspective.
var fringeTypes = map[string]bool{
	"social_media_platform":             true,
	"social_media_platform_video":       true,
	"social_media_channel_creator":      true,
	"social_blogging_platform":          true,
	"social_blogging_platform_user_pub": true,
	"alternative":                       true,
}

// PerspectiveOf returns the perspective a result belongs to. The source-type
// label decides when it is in either set; otherwise the fetch category does;
// otherwise the result is neutral.
func PerspectiveOf(r types.SearchResult) types.Perspective {
	st := strings.ToLower(r.SourceType)
	switch {
	case mainstreamTypes[st]:
		return types.PerspectiveMainstream
	case fringeTypes[st]:
		return types.PerspectiveFringe
	}
	switch strings.ToLower(r.Category) {
	case types.CategoryMainstream:
		return types.PerspectiveMainstream
	case types.CategoryFringe, "alternative":
		return types.PerspectiveFringe
	}
	return types.PerspectiveNeutral
}

// Matches reports whether r passes filter.
func Matches(r types.SearchResult, filter types.Perspective) bool {
	switch filter {
	case types.PerspectiveAll, types.PerspectiveBalanced, "":
		return true
	default:
		return PerspectiveOf(r) == filter
	}
}

// Project filters results by perspective and orders them by descending
// credibility score. Results without a valid score come last. Equal scores
// keep their input order. The input slice is not modified.
func Project(results []types.SearchResult, filter types.Perspective) []types.SearchResult {
	out := make([]types.SearchResult, 0, len(results))
	for _, r := range results {
		if Matches(r, filter) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b types.SearchResult) int {
		return rank(b) - rank(a)
	})
	return out
}

// rank orders valid scores above everything else.
func rank(r types.SearchResult) int {
	if !r.HasScore() {
		return -1
	}
	return r.Score
}
