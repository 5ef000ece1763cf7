// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Verdict is the closed set of fact-check outcomes.
type Verdict string

const (
	VerdictPending        Verdict = "pending"
	VerdictChecking       Verdict = "checking"
	VerdictVerified       Verdict = "verified"
	VerdictFalse          Verdict = "false"
	VerdictDisputed       Verdict = "disputed"
	VerdictDisputedFalse  Verdict = "disputed_false"
	VerdictPartiallyTrue  Verdict = "partially_true"
	VerdictLacksConsensus Verdict = "lacks_consensus"
	VerdictUnverifiable   Verdict = "unverifiable"
	VerdictError          Verdict = "error"
)

// IsTerminal reports whether v is an outcome rather than a waiting state.
// Error counts as terminal.
func (v Verdict) IsTerminal() bool {
	switch v {
	case VerdictPending, VerdictChecking, "":
		return false
	default:
		return true
	}
}

// IsDisputed reports whether v says the claim does not hold.
func (v Verdict) IsDisputed() bool {
	return v == VerdictFalse || v == VerdictDisputed || v == VerdictDisputedFalse
}

// verdictAliases maps provider wording onto the closed verdict set.
var verdictAliases = map[string]Verdict{
	"pending":          VerdictPending,
	"checking":         VerdictChecking,
	"verified":         VerdictVerified,
	"true":             VerdictVerified,
	"accurate":         VerdictVerified,
	"false":            VerdictFalse,
	"disputed":         VerdictDisputed,
	"disputed_false":   VerdictDisputedFalse,
	"misleading":       VerdictDisputed,
	"partially_true":   VerdictPartiallyTrue,
	"mostly_true":      VerdictPartiallyTrue,
	"half_true":        VerdictPartiallyTrue,
	"lacks_consensus":  VerdictLacksConsensus,
	"uncertain":        VerdictLacksConsensus,
	"needs_context":    VerdictLacksConsensus,
	"unverifiable":     VerdictUnverifiable,
	"unproven":         VerdictUnverifiable,
	"error":            VerdictError,
	"error_processing": VerdictError,
}

// ParseVerdict normalizes a provider verdict string. Case, surrounding space,
// hyphens and inner spaces are ignored. Anything outside the known wording
// becomes VerdictUnverifiable.
func ParseVerdict(s string) Verdict {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if v, ok := verdictAliases[key]; ok {
		return v
	}
	return VerdictUnverifiable
}
