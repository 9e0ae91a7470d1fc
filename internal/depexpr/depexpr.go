// Package depexpr parses and evaluates Debian relationship fields.
//
// A relationship field such as Depends is a comma separated list of groups
// that must all hold (AND). Each group is a '|' separated list of
// alternatives (OR), and each alternative is a clause naming a package with an
// optional version restriction:
//
//	libc6 (>= 2.31), mobilesubstrate | ellekit, firmware (>= 2:14.0)
package depexpr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danieljhkim/debplan/internal/debver"
)

// ErrSyntax is returned for relationship strings that cannot be parsed.
var ErrSyntax = errors.New("invalid relationship")

// Op is a version relation operator.
type Op int

const (
	OpNone Op = iota
	OpLess
	OpLessEqual
	OpEqual
	OpGreaterEqual
	OpGreater
)

// String returns the Debian spelling of the operator.
func (o Op) String() string {
	switch o {
	case OpLess:
		return "<<"
	case OpLessEqual:
		return "<="
	case OpEqual:
		return "="
	case OpGreaterEqual:
		return ">="
	case OpGreater:
		return ">>"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Op) UnmarshalText(text []byte) error {
	op, err := ParseOp(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// ParseOp parses an operator. The obsolete forms "<" and ">" mean "<=" and
// ">=" as they do for dpkg.
func ParseOp(s string) (Op, error) {
	switch s {
	case "":
		return OpNone, nil
	case "<<":
		return OpLess, nil
	case "<=", "<":
		return OpLessEqual, nil
	case "=":
		return OpEqual, nil
	case ">=", ">":
		return OpGreaterEqual, nil
	case ">>":
		return OpGreater, nil
	}
	return OpNone, fmt.Errorf("%w: unknown operator %q", ErrSyntax, s)
}

// Clause is a single alternative: a package name and an optional version
// restriction.
type Clause struct {
	Name    string `json:"name" yaml:"name"`
	Op      Op     `json:"op,omitempty" yaml:"op,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// String formats the clause as "name op version".
func (c Clause) String() string {
	if c.Op == OpNone {
		return c.Name
	}
	return c.Name + " " + c.Op.String() + " " + c.Version
}

// Versioned reports whether the clause restricts the version.
func (c Clause) Versioned() bool {
	return c.Op != OpNone
}

// SatisfiedBy reports whether version meets the clause's version restriction.
// It ignores the package name.
func (c Clause) SatisfiedBy(version string) (bool, error) {
	if c.Op == OpNone {
		return true, nil
	}
	cmp, err := debver.Compare(version, c.Version)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case OpLess:
		return cmp < 0, nil
	case OpLessEqual:
		return cmp <= 0, nil
	case OpEqual:
		return cmp == 0, nil
	case OpGreaterEqual:
		return cmp >= 0, nil
	case OpGreater:
		return cmp > 0, nil
	}
	return false, nil
}

// Matches reports whether a package with the given id, version and provides
// field satisfies the clause.
//
// A provided name satisfies the clause by name. When the provide carries an
// exact version ("foo (= 1.2)") that version is also checked against the
// clause.
func (c Clause) Matches(id, version string, provides Relation) (bool, error) {
	var errs []error
	if id == c.Name {
		ok, err := c.SatisfiedBy(version)
		if ok {
			return true, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	for _, group := range provides {
		for _, p := range group {
			if p.Name != c.Name {
				continue
			}
			if !c.Versioned() || p.Op != OpEqual {
				return true, nil
			}
			ok, err := c.SatisfiedBy(p.Version)
			if ok {
				return true, nil
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
	}
	return false, errors.Join(errs...)
}

// Group is a list of alternatives, any of which satisfies the group.
type Group []Clause

// String formats the group with " | " between alternatives.
func (g Group) String() string {
	parts := make([]string, len(g))
	for i, c := range g {
		parts[i] = c.String()
	}
	return strings.Join(parts, " | ")
}

// Names returns the package names mentioned by the group.
func (g Group) Names() []string {
	names := make([]string, len(g))
	for i, c := range g {
		names[i] = c.Name
	}
	return names
}

// Relation is a list of groups that must all be satisfied.
type Relation []Group

// String formats the relation as a Debian control field.
func (r Relation) String() string {
	parts := make([]string, len(r))
	for i, g := range r {
		alts := make([]string, len(g))
		for j, c := range g {
			if c.Op == OpNone {
				alts[j] = c.Name
			} else {
				alts[j] = fmt.Sprintf("%s (%s %s)", c.Name, c.Op, c.Version)
			}
		}
		parts[i] = strings.Join(alts, " | ")
	}
	return strings.Join(parts, ", ")
}

// Clauses flattens the relation into its clauses.
func (r Relation) Clauses() []Clause {
	var out []Clause
	for _, g := range r {
		out = append(out, g...)
	}
	return out
}

// ParseRelation parses a full relationship field. An empty string yields an
// empty relation.
func ParseRelation(s string) (Relation, error) {
	var rel Relation
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		g, err := ParseGroup(part)
		if err != nil {
			return nil, err
		}
		rel = append(rel, g)
	}
	return rel, nil
}

// ParseGroup parses a '|' separated list of alternatives.
func ParseGroup(s string) (Group, error) {
	var g Group
	for _, alt := range strings.Split(s, "|") {
		c, err := ParseClause(alt)
		if err != nil {
			return nil, err
		}
		g = append(g, c)
	}
	if len(g) == 0 {
		return nil, fmt.Errorf("%w: empty group", ErrSyntax)
	}
	return g, nil
}

// ParseClause parses a single alternative such as "libc6 (>= 2.31)".
// Architecture qualifiers ("foo:any") and restriction lists ("[arm64]",
// "<!nocheck>") are dropped.
func ParseClause(s string) (Clause, error) {
	s = stripBracketed(strings.TrimSpace(s), '[', ']')
	s = stripProfiles(s)
	s = strings.TrimSpace(s)

	var c Clause
	name := s
	if i := strings.IndexByte(s, '('); i >= 0 {
		j := strings.IndexByte(s, ')')
		if j < i || strings.TrimSpace(s[j+1:]) != "" {
			return c, fmt.Errorf("%w: unbalanced parentheses in %q", ErrSyntax, s)
		}
		name = strings.TrimSpace(s[:i])
		op, version, err := parseRestriction(s[i+1 : j])
		if err != nil {
			return c, err
		}
		c.Op = op
		c.Version = version
	}

	if k := strings.IndexByte(name, ':'); k >= 0 {
		name = name[:k]
	}
	if name == "" || strings.ContainsAny(name, " \t") {
		return c, fmt.Errorf("%w: bad package name in %q", ErrSyntax, s)
	}
	c.Name = name
	return c, nil
}

func parseRestriction(s string) (Op, string, error) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && strings.IndexByte("<=>", s[end]) >= 0 {
		end++
	}
	op, err := ParseOp(s[:end])
	if err != nil {
		return OpNone, "", err
	}
	version := strings.TrimSpace(s[end:])
	if op == OpNone || version == "" {
		return OpNone, "", fmt.Errorf("%w: incomplete version restriction %q", ErrSyntax, s)
	}
	return op, version, nil
}

// stripProfiles removes build profile lists like "<!nocheck>" and "<stage1>".
// A '<' followed by '!' or a letter opens a profile; anything else is an
// operator.
func stripProfiles(s string) string {
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '<' || (s[i+1] != '!' && !isLetter(s[i+1])) {
			continue
		}
		j := strings.IndexByte(s[i:], '>')
		if j < 0 {
			return s
		}
		s = s[:i] + s[i+j+1:]
		i--
	}
	return s
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// stripBracketed removes every open...close span from s.
func stripBracketed(s string, open, close byte) string {
	for {
		i := strings.IndexByte(s, open)
		if i < 0 {
			return s
		}
		j := strings.IndexByte(s[i:], close)
		if j < 0 {
			return s
		}
		s = s[:i] + s[i+j+1:]
	}
}
