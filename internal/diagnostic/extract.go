// Package diagnostic extracts the missing package capability from the
// free-form failure text of a feature install.
//
// A failed install reports its unresolved requirements as a chain of nested
// causes, normally on one line (formatted here for clarity):
//
//	Unable to resolve root:
//	  missing requirement [root] osgi.identity;
//	    osgi.identity=test-io; type=karaf.feature; version="[2.19.11,2.19.11]";
//	    filter:="(&(osgi.identity=test-io)(type=karaf.feature)(version>=2.19.11)(version<=2.19.11))"
//	[caused by: Unable to resolve test-io/2.19.11:
//	  missing requirement [test-io/2.19.11] osgi.identity;
//	    osgi.identity=platform-io-impl; type=osgi.bundle; version="[2.19.11,2.19.11]";
//	    resolution:=mandatory
//	[caused by: Unable to resolve platform-io-impl/2.19.11:
//	  missing requirement [platform-io-impl/2.19.11] osgi.wiring.package;
//	    filter:="(&(osgi.wiring.package=org.apache.commons.lang)(version>=2.6.0)(!(version>=3.0.0)))"]]
//
// Causes are linearized outermost first, so the innermost requirement is the
// last one in the text. The filter pattern only matches package-wiring
// clauses, never identity clauses, so the first match is the innermost
// missing package.
package diagnostic

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Lambeaux/steadfast/internal/ir"
)

// packageFilter matches one missing package requirement.
//
// Example match:
//
//	filter:="(&(osgi.wiring.package=org.apache.commons.lang)(version>=2.6.0)(!(version>=3.0.0)))"
//
// Keep in alignment with split.
var packageFilter = regexp.MustCompile(
	`filter:="\(&` +
		`\(osgi\.wiring\.package=[a-zA-Z]+(\.[a-zA-Z0-9_]+)+\)` +
		`\(version>=[0-9]+(\.[0-9]+)+\)` +
		`\(!\(version>=[0-9]+(\.[0-9]+)+\)\)` +
		`\)"`)

const (
	packageKey = "osgi.wiring.package="
	versionKey = "version>="
)

// Extract returns the capability named by the innermost missing package
// clause in message.
//
// Returns an EXTRACTION_FAILURE *ir.Error if the message has no such clause.
// Panics if a clause matches the pattern but cannot be split, which means the
// pattern and the splitter have drifted apart.
func Extract(message string) (ir.Capability, error) {
	clause := packageFilter.FindString(norm.NFC.String(message))
	if clause == "" {
		return ir.Capability{}, ir.NewExtractionError(ir.FailureMessage(message))
	}
	return split(clause), nil
}

// ExtractAll returns every missing package clause in message in text order,
// outermost cause first. Duplicates are kept.
func ExtractAll(message string) []ir.Capability {
	clauses := packageFilter.FindAllString(norm.NFC.String(message), -1)
	caps := make([]ir.Capability, 0, len(clauses))
	for _, clause := range clauses {
		caps = append(caps, split(clause))
	}
	return caps
}

// split cuts a matched clause into package name and minimum version.
func split(clause string) ir.Capability {
	pkg := valueAfter(clause, packageKey)
	version := valueAfter(clause, versionKey)
	if pkg == "" || version == "" {
		panic(fmt.Sprintf("diagnostic: filter clause %q does not split into package and version", clause))
	}
	return ir.Capability{Package: pkg, MinVersion: version}
}

// valueAfter returns the text after the first key up to the next ')'.
func valueAfter(clause, key string) string {
	_, rest, found := strings.Cut(clause, key)
	if !found {
		return ""
	}
	value, _, found := strings.Cut(rest, ")")
	if !found {
		return ""
	}
	return value
}
