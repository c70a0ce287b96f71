// Package filterop implements the boolean predicate combinators used by
// index queries.
//
// Filters produce per-row acceptance vectors. String filters OR their
// selectors within one column; vectors from multiple columns are AND-joined.
// An empty selector list is a wildcard, never a reject-all.
package filterop

import "strings"

// StringFilter reports, for each value, whether it contains sub as a
// substring.
func StringFilter(sub string, values []string) []bool {
	accepted := make([]bool, len(values))
	for i, v := range values {
		accepted[i] = strings.Contains(v, sub)
	}
	return accepted
}

// MultiStringFilter accepts a row when any selector is a substring of the
// row's value. With no selectors every row is accepted.
func MultiStringFilter(selectors, values []string) []bool {
	accepted := make([]bool, len(values))
	if len(selectors) == 0 {
		for i := range accepted {
			accepted[i] = true
		}
		return accepted
	}
	for _, sel := range selectors {
		for i, hit := range StringFilter(sel, values) {
			if hit {
				accepted[i] = true
			}
		}
	}
	return accepted
}

// JoinBools AND-combines acceptance vectors element-wise. All vectors must
// have equal length; the zero-vector case returns nil.
func JoinBools(vectors ...[]bool) []bool {
	if len(vectors) == 0 {
		return nil
	}
	joined := make([]bool, len(vectors[0]))
	copy(joined, vectors[0])
	for _, vec := range vectors[1:] {
		for i := range joined {
			joined[i] = joined[i] && vec[i]
		}
	}
	return joined
}

// EnumMembershipFilter AND-combines set membership with a running acceptance
// vector. A row passes when its value is one of the selected values. An
// empty selection is a pass-through, not a reject-all.
func EnumMembershipFilter[E ~string](selected []E, values []E, running []bool) []bool {
	if len(selected) == 0 {
		return running
	}
	members := make(map[E]struct{}, len(selected))
	for _, s := range selected {
		members[s] = struct{}{}
	}
	accepted := make([]bool, len(values))
	for i, v := range values {
		_, ok := members[v]
		accepted[i] = ok && running[i]
	}
	return accepted
}

// Any reports whether at least one element of the vector is true. Queries
// use this to short-circuit once nothing can match.
func Any(vector []bool) bool {
	for _, v := range vector {
		if v {
			return true
		}
	}
	return false
}
