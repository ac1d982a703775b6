package ir

import (
	"fmt"
	"strings"
)

// Capability is a package export the placeholder claims to provide.
type Capability struct {
	Package    string `json:"package"`
	MinVersion string `json:"min_version"`
}

// String renders the capability as "package/version".
func (c Capability) String() string {
	return c.Package + "/" + c.MinVersion
}

// Export renders the capability as one Export-Package clause.
//
// Example: org.apache.commons.lang;version="2.6.0"
func (c Capability) Export() string {
	return fmt.Sprintf("%s;version=%q", c.Package, c.MinVersion)
}

// ExportSet is the ordered, append-only set of capabilities declared by the
// placeholder during one session.
//
// Insertion order is preserved because it is the serialization order of the
// Export-Package header. The zero value is an empty set ready to use.
type ExportSet struct {
	caps []Capability
}

// NewExportSet creates a set holding caps in order. Duplicates are dropped.
func NewExportSet(caps ...Capability) *ExportSet {
	s := &ExportSet{}
	for _, c := range caps {
		if !s.Contains(c) {
			s.caps = append(s.caps, c)
		}
	}
	return s
}

// Contains reports whether c has already been declared.
func (s *ExportSet) Contains(c Capability) bool {
	for _, existing := range s.caps {
		if existing == c {
			return true
		}
	}
	return false
}

// Append adds c to the end of the set and returns the new length.
// Callers deduplicate first; appending a duplicate is a programming error.
func (s *ExportSet) Append(c Capability) int {
	if s.Contains(c) {
		panic(fmt.Sprintf("ir: capability %s already declared", c))
	}
	s.caps = append(s.caps, c)
	return len(s.caps)
}

// Len returns the number of declared capabilities.
func (s *ExportSet) Len() int {
	return len(s.caps)
}

// Capabilities returns a copy of the declared capabilities in order.
func (s *ExportSet) Capabilities() []Capability {
	return append([]Capability{}, s.caps...)
}

// Declaration renders the Export-Package header value: every capability's
// Export() joined by commas. Empty when nothing has been declared.
func (s *ExportSet) Declaration() string {
	parts := make([]string, len(s.caps))
	for i, c := range s.caps {
		parts[i] = c.Export()
	}
	return strings.Join(parts, ",")
}
