package table

import (
	"fmt"
	"strings"
)

// Specifier is a parsed stream specifier.
type Specifier struct {
	Type   string
	Text   bool
	Binary bool
	Target string
}

// Stdio reports whether the target is stdin or stdout.
func (s Specifier) Stdio() bool {
	return s.Target == "-"
}

func (s Specifier) String() string {
	opts := s.Type
	if s.Text {
		opts += ",t"
	}
	if s.Binary {
		opts += ",b"
	}
	return opts + ":" + s.Target
}

// ParseSpecifier parses "<type>[,<opt>...]:<target>". Only the "ark" type is
// supported, with options "t" (text) and "b" (binary).
func ParseSpecifier(spec string) (Specifier, error) {
	head, target, ok := strings.Cut(spec, ":")
	if !ok || target == "" {
		return Specifier{}, fmt.Errorf("%w: %q", ErrBadSpecifier, spec)
	}

	parts := strings.Split(head, ",")
	s := Specifier{Type: parts[0], Target: target}
	if s.Type != "ark" {
		return Specifier{}, fmt.Errorf("%w: unsupported type %q in %q", ErrBadSpecifier, s.Type, spec)
	}

	for _, opt := range parts[1:] {
		switch opt {
		case "t":
			s.Text = true
		case "b":
			s.Binary = true
		default:
			return Specifier{}, fmt.Errorf("%w: unknown option %q in %q", ErrBadSpecifier, opt, spec)
		}
	}
	if s.Text && s.Binary {
		return Specifier{}, fmt.Errorf("%w: both t and b given in %q", ErrBadSpecifier, spec)
	}

	return s, nil
}
