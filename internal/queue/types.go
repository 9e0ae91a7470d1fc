// Package queue holds the per-type package queues of one transaction, the
// issues raised while resolving them, and the back-links that tie pulled-in
// packages to the packages that required them.
//
// Store is purely bookkeeping. Deciding what to queue is the resolver's job.
// A Store is not safe for concurrent use.
package queue

import (
	"fmt"
	"strings"
)

// Type identifies a queue.
type Type int

const (
	Install Type = iota
	Remove
	Reinstall
	Upgrade
	Downgrade
	Essential
	Dependency
	Conflict
)

// All lists every queue type in execution order: removals, then user
// installs, then pulled-in packages. Conflict entries are never executed
// and come last.
var All = []Type{Remove, Install, Reinstall, Upgrade, Downgrade, Dependency, Essential, Conflict}

func (t Type) String() string {
	switch t {
	case Install:
		return "install"
	case Remove:
		return "remove"
	case Reinstall:
		return "reinstall"
	case Upgrade:
		return "upgrade"
	case Downgrade:
		return "downgrade"
	case Essential:
		return "essential"
	case Dependency:
		return "dependency"
	case Conflict:
		return "conflict"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// DisplayName returns the heading shown for the queue.
func (t Type) DisplayName() string {
	switch t {
	case Install:
		return "Install"
	case Remove:
		return "Remove"
	case Reinstall:
		return "Reinstall"
	case Upgrade:
		return "Upgrade"
	case Downgrade:
		return "Downgrade"
	case Essential:
		return "Essential Dependencies"
	case Dependency:
		return "Dependencies"
	case Conflict:
		return "Conflicts"
	}
	return ""
}

// IsUserFacing reports whether the queue holds explicit user selections.
func (t Type) IsUserFacing() bool {
	switch t {
	case Install, Remove, Reinstall, Upgrade, Downgrade:
		return true
	}
	return false
}

// Installs reports whether entries of the queue end up installed.
func (t Type) Installs() bool {
	switch t {
	case Install, Reinstall, Upgrade, Downgrade, Dependency, Essential:
		return true
	}
	return false
}

// Pulled reports whether the queue holds packages pulled in by resolution.
func (t Type) Pulled() bool {
	return t == Dependency || t == Essential
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseType parses a queue name as produced by String.
func ParseType(s string) (Type, error) {
	for _, t := range All {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown queue type %q", s)
}

// IssueKind classifies an Issue.
type IssueKind int

const (
	UnresolvedDependency IssueKind = iota
	UnresolvableConflict
	EssentialRemovalAttempted
	MalformedVersion
)

func (k IssueKind) String() string {
	switch k {
	case UnresolvedDependency:
		return "unresolved-dependency"
	case UnresolvableConflict:
		return "unresolvable-conflict"
	case EssentialRemovalAttempted:
		return "essential-removal"
	case MalformedVersion:
		return "malformed-version"
	}
	return fmt.Sprintf("IssueKind(%d)", int(k))
}

func (k IssueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *IssueKind) UnmarshalText(text []byte) error {
	for _, c := range []IssueKind{UnresolvedDependency, UnresolvableConflict, EssentialRemovalAttempted, MalformedVersion} {
		if string(text) == c.String() {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown issue kind %q", text)
}

// Issue is a problem found while resolving a queued package. Related names
// the other package involved, if any; the issue goes away with either one.
type Issue struct {
	PackageID string    `json:"packageID"`
	Kind      IssueKind `json:"kind"`
	Reason    string    `json:"reason"`
	Related   string    `json:"related,omitempty"`
}

func (i Issue) String() string {
	return i.PackageID + ": " + i.Reason
}
