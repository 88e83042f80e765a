package rules

import "pkmn_guesser/internal/domain"

// Matches reports whether a candidate satisfies the question's criteria.
// Type questions match when any candidate type is in criteria; structural
// questions match on the number of types ("single" = 1, "dual" = 2).
func Matches(c domain.Candidate, criteria []string, isType bool) bool {
	if isType {
		for _, t := range criteria {
			if c.HasType(t) {
				return true
			}
		}
		return false
	}

	if len(criteria) == 0 {
		return false
	}
	switch criteria[0] {
	case domain.CriteriaSingle:
		return len(c.Types) == 1
	case domain.CriteriaDual:
		return len(c.Types) == 2
	}
	return false
}

// ComputeEliminations returns the ids ruled out by an answered question:
// a "yes" eliminates every candidate that does not match, a "no" eliminates
// every candidate that does. Pure and deterministic: both clients compute
// the same set for the same list, which is what lets the asker apply it
// authoritatively without re-validation.
func ComputeEliminations(candidates []domain.Candidate, criteria []string, isType, responseYes bool) []int {
	var out []int
	for _, c := range candidates {
		match := Matches(c, criteria, isType)
		if responseYes && !match {
			out = append(out, c.ID)
		}
		if !responseYes && match {
			out = append(out, c.ID)
		}
	}
	return out
}

// Union merges new ids into an elimination set, deduplicated, preserving
// the order of the existing set. Elimination sets only ever grow within a
// match.
func Union(existing, added []int) []int {
	seen := make(map[int]struct{}, len(existing)+len(added))
	out := make([]int, 0, len(existing)+len(added))
	for _, id := range existing {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range added {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
