package depexpr

import "errors"

// Candidate is anything that can satisfy a clause.
type Candidate interface {
	PackageID() string
	PackageVersion() string
	ProvidesRelation() Relation
}

// Evaluate returns the first candidate that satisfies any alternative of the
// group. Alternatives are tried in order; for each alternative the candidates
// returned by lookup are tried in the order given.
//
// A malformed version never aborts evaluation: the offending candidate simply
// does not match, and the comparison errors are joined into err so the caller
// can report them. ok is false when nothing matched.
func Evaluate[C Candidate](g Group, lookup func(name string) []C) (match C, ok bool, err error) {
	var errs []error
	for _, clause := range g {
		for _, cand := range lookup(clause.Name) {
			matched, merr := clause.Matches(cand.PackageID(), cand.PackageVersion(), cand.ProvidesRelation())
			if matched {
				return cand, true, nil
			}
			if merr != nil {
				errs = append(errs, merr)
			}
		}
	}
	return match, false, errors.Join(errs...)
}

// MatchesAny reports whether the candidate satisfies any clause in the
// relation. It is used for Conflicts and Replaces, where every clause stands
// on its own.
func MatchesAny(rel Relation, cand Candidate) (Clause, bool, error) {
	var errs []error
	for _, clause := range rel.Clauses() {
		matched, err := clause.Matches(cand.PackageID(), cand.PackageVersion(), cand.ProvidesRelation())
		if matched {
			return clause, true, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return Clause{}, false, errors.Join(errs...)
}
