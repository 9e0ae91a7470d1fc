// Package debver parses and orders Debian package versions.
//
// A version has the form [epoch:]upstream[-revision]. Epochs compare
// numerically; upstream and revision strings compare segment by segment the
// way dpkg does: non-digit runs by character weight (where '~' sorts before
// everything, even the end of the string, and letters sort before other
// symbols), digit runs by numeric value.
package debver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned for version strings that dpkg would refuse.
var ErrMalformed = errors.New("malformed version")

// Version is a parsed Debian version.
type Version struct {
	Epoch    int
	Upstream string
	Revision string
}

// Parse parses a Debian version string.
func Parse(s string) (Version, error) {
	var v Version

	s = strings.TrimSpace(s)
	if s == "" {
		return v, fmt.Errorf("%w: empty version", ErrMalformed)
	}
	if strings.ContainsAny(s, " \t") {
		return v, fmt.Errorf("%w: %q contains whitespace", ErrMalformed, s)
	}

	rest := s
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		epoch, err := strconv.Atoi(rest[:i])
		if err != nil || epoch < 0 {
			return v, fmt.Errorf("%w: %q has a bad epoch", ErrMalformed, s)
		}
		v.Epoch = epoch
		rest = rest[i+1:]
	}

	if i := strings.LastIndexByte(rest, '-'); i >= 0 {
		v.Revision = rest[i+1:]
		rest = rest[:i]
		if v.Revision == "" {
			return v, fmt.Errorf("%w: %q has an empty revision", ErrMalformed, s)
		}
	}
	v.Upstream = rest

	if v.Upstream == "" {
		return v, fmt.Errorf("%w: %q has an empty upstream version", ErrMalformed, s)
	}
	if !isDigit(v.Upstream[0]) {
		return v, fmt.Errorf("%w: %q must start with a digit", ErrMalformed, s)
	}
	for i := 0; i < len(v.Upstream); i++ {
		if c := v.Upstream[i]; !isAlnum(c) && !strings.ContainsRune(".+~-:", rune(c)) {
			return v, fmt.Errorf("%w: %q has invalid character %q", ErrMalformed, s, c)
		}
	}
	for i := 0; i < len(v.Revision); i++ {
		if c := v.Revision[i]; !isAlnum(c) && !strings.ContainsRune(".+~", rune(c)) {
			return v, fmt.Errorf("%w: %q has invalid character %q in revision", ErrMalformed, s, c)
		}
	}

	return v, nil
}

// MustParse is like Parse but panics on error. It is meant for tests and
// constant tables.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical form of the version.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch > 0 {
		b.WriteString(strconv.Itoa(v.Epoch))
		b.WriteByte(':')
	}
	b.WriteString(v.Upstream)
	if v.Revision != "" {
		b.WriteByte('-')
		b.WriteString(v.Revision)
	}
	return b.String()
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to
// or after w.
func (v Version) Compare(w Version) int {
	if v.Epoch != w.Epoch {
		if v.Epoch < w.Epoch {
			return -1
		}
		return 1
	}
	if c := sign(verrevcmp(v.Upstream, w.Upstream)); c != 0 {
		return c
	}
	return sign(verrevcmp(v.Revision, w.Revision))
}

// Compare parses both strings and compares them.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// Less reports whether a sorts before b. Malformed versions sort before
// well-formed ones and among themselves by plain string order, so that sorting
// never fails.
func Less(a, b string) bool {
	c, err := Compare(a, b)
	if err == nil {
		return c < 0
	}
	_, errA := Parse(a)
	_, errB := Parse(b)
	switch {
	case errA != nil && errB == nil:
		return true
	case errA == nil && errB != nil:
		return false
	default:
		return a < b
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// verrevcmp compares two upstream or revision strings with dpkg semantics.
func verrevcmp(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		firstDiff := 0

		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			var ac, bc byte
			if i < len(a) {
				ac = a[i]
			}
			if j < len(b) {
				bc = b[j]
			}
			if ao, bo := order(ac), order(bc); ao != bo {
				return ao - bo
			}
			i++
			j++
		}

		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}

		for i < len(a) && j < len(b) && isDigit(a[i]) && isDigit(b[j]) {
			if firstDiff == 0 {
				firstDiff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}

		if i < len(a) && isDigit(a[i]) {
			return 1
		}
		if j < len(b) && isDigit(b[j]) {
			return -1
		}
		if firstDiff != 0 {
			return firstDiff
		}
	}
	return 0
}

// order returns the sorting weight of a non-digit character.
// digits and end of string: 0, letters: ASCII value, '~': -1, others: ASCII value + 256.
func order(c byte) int {
	switch {
	case isDigit(c):
		return 0
	case isAlpha(c):
		return int(c)
	case c == '~':
		return -1
	case c == 0:
		return 0
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isDigit(c) || isAlpha(c)
}
