package dti

import (
	"fmt"
	"strconv"
	"strings"
)

// Unspecified marks a version component that matches any value.
const Unspecified = -1

// Root is the segment prepended to type paths that do not start with "/".
const Root = "catharsys"

// Wildcard segments match any segment at the same position.
const (
	WildcardAny    = "*"
	WildcardSingle = "?"
)

// FormatError is returned for DTI strings that cannot be parsed.
type FormatError struct {
	DTI    string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid DTI %q: %s", e.DTI, e.Reason)
}

// Version is the (major, minor) part of a DTI.
type Version struct {
	Major int
	Minor int
}

// AnyVersion matches every version.
var AnyVersion = Version{Major: Unspecified, Minor: Unspecified}

func (v Version) String() string {
	return formatComponent(v.Major) + "." + formatComponent(v.Minor)
}

// DTI is a parsed Data Type Info string.
type DTI struct {
	// Type is the type path, including the implicit root segment.
	Type []string

	// Version is the type version.
	Version Version
}

// String serializes the DTI as "/seg1/seg2:major.minor".
func (d DTI) String() string {
	return "/" + strings.Join(d.Type, "/") + ":" + d.Version.String()
}

// Append returns a copy of d with the given segments added to its type path.
func (d DTI) Append(segments ...string) DTI {
	typ := make([]string, 0, len(d.Type)+len(segments))
	typ = append(typ, d.Type...)
	typ = append(typ, segments...)

	return DTI{Type: typ, Version: d.Version}
}

// Split parses a DTI string into its type path and version. A missing
// version yields AnyVersion, a single version component v yields (v, 0).
func Split(s string) (DTI, error) {
	typ := s
	version := AnyVersion

	if idx := strings.Index(s, ":"); idx >= 0 {
		typ = s[:idx]

		v, err := parseVersion(s, s[idx+1:])
		if err != nil {
			return DTI{}, err
		}
		version = v
	}

	if typ == "" {
		return DTI{}, &FormatError{DTI: s, Reason: "no type given"}
	}

	segments := strings.Split(typ, "/")
	if segments[0] == "" {
		segments = segments[1:]
	} else {
		segments = append([]string{Root}, segments...)
	}

	for _, seg := range segments {
		if seg == "" {
			return DTI{}, &FormatError{DTI: s, Reason: "empty type element"}
		}
	}

	return DTI{Type: segments, Version: version}, nil
}

// Join appends segments to the type path of s and serializes the result.
func Join(s string, segments ...string) (string, error) {
	d, err := Split(s)
	if err != nil {
		return "", err
	}

	for _, seg := range segments {
		if seg == "" || strings.ContainsAny(seg, "/:") {
			return "", &FormatError{DTI: s, Reason: fmt.Sprintf("cannot join element %q", seg)}
		}
	}

	return d.Append(segments...).String(), nil
}

func parseVersion(dti, s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Version{}, &FormatError{DTI: dti, Reason: "version has more than two components"}
	}

	values := make([]int, 0, 2)
	for _, part := range parts {
		if part == WildcardAny {
			values = append(values, Unspecified)
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, &FormatError{DTI: dti, Reason: fmt.Sprintf("invalid version component %q", part)}
		}
		values = append(values, n)
	}

	if len(values) == 1 {
		values = append(values, 0)
	}

	return Version{Major: values[0], Minor: values[1]}, nil
}

func formatComponent(v int) string {
	if v < 0 {
		return WildcardAny
	}

	return strconv.Itoa(v)
}
