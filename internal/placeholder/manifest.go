package placeholder

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Lambeaux/steadfast/internal/ir"
)

// Manifest attribute names written by tryinstall.
const (
	ManifestVersionKey = "Manifest-Version"
	ExportPackageKey   = "Export-Package"
	LastModifiedKey    = "Fti-LastModified"
)

// maxLineBytes is the longest manifest line allowed by the JAR format,
// excluding the line terminator.
const maxLineBytes = 72

// Attribute is one manifest header.
type Attribute struct {
	Key   string
	Value string
}

// Attributes is an ordered list of manifest headers. Keys compare case
// insensitively, as in the JAR format.
type Attributes []Attribute

// Get returns the value for key.
func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if strings.EqualFold(attr.Key, key) {
			return attr.Value, true
		}
	}
	return "", false
}

// Without returns a copy of a with key removed.
func (a Attributes) Without(key string) Attributes {
	out := make(Attributes, 0, len(a))
	for _, attr := range a {
		if !strings.EqualFold(attr.Key, key) {
			out = append(out, attr)
		}
	}
	return out
}

// BaseOptions are the identity fields of the placeholder manifest.
// Everything environment-specific (the JDK version in particular) is passed
// in rather than read from the process.
type BaseOptions struct {
	BuildJDK     string
	BuiltBy      string
	Name         string
	SymbolicName string
	Description  string
}

// DefaultBaseOptions describes the dependency provider bundle.
func DefaultBaseOptions() BaseOptions {
	return BaseOptions{
		BuildJDK:     "unknown",
		BuiltBy:      ir.ToolName,
		Name:         "Dependency Provider",
		SymbolicName: "dependency-provider",
		Description:  "Pretends to provide dependencies",
	}
}

// DefaultBase returns the fixed attribute set every placeholder manifest
// starts from.
func DefaultBase(opts BaseOptions) Attributes {
	return Attributes{
		{ManifestVersionKey, "1.0"},
		{"Build-Jdk", opts.BuildJDK},
		{"Built-By", opts.BuiltBy},
		{"Created-By", opts.BuiltBy},
		{"Bundle-Name", opts.Name},
		{"Bundle-SymbolicName", opts.SymbolicName},
		{"Bundle-Description", opts.Description},
		{"Bundle-ManifestVersion", "2"},
		{"Bundle-Version", "0"},
	}
}

// ComposeManifest builds the full attribute list: base, then extra, then a
// fresh Fti-LastModified stamp in Unix milliseconds.
//
// Returns a MANIFEST_CONFLICT *ir.Error if an extra key repeats a base key,
// another extra key, or the last-modified key.
func ComposeManifest(base, extra Attributes, now time.Time) (Attributes, error) {
	if _, ok := base.Get(LastModifiedKey); ok {
		return nil, ir.NewManifestConflictError(LastModifiedKey)
	}

	all := make(Attributes, 0, len(base)+len(extra)+1)
	all = append(all, base...)
	for _, attr := range extra {
		if _, ok := all.Get(attr.Key); ok || strings.EqualFold(attr.Key, LastModifiedKey) {
			return nil, ir.NewManifestConflictError(attr.Key)
		}
		all = append(all, attr)
	}
	all = append(all, Attribute{LastModifiedKey, strconv.FormatInt(now.UnixMilli(), 10)})
	return all, nil
}

// ExportAttributes returns the attributes that declare exports: a single
// Export-Package header, or nothing for an empty set.
func ExportAttributes(exports *ir.ExportSet) Attributes {
	if exports == nil || exports.Len() == 0 {
		return nil
	}
	return Attributes{{ExportPackageKey, exports.Declaration()}}
}

// Marshal renders a in the JAR manifest format: one "Key: Value" line per
// attribute, CRLF terminated, wrapped at 72 bytes with single-space
// continuation lines, followed by the blank line that ends the main section.
func (a Attributes) Marshal() []byte {
	var b bytes.Buffer
	for _, attr := range a {
		writeHeader(&b, attr.Key, attr.Value)
	}
	b.WriteString("\r\n")
	return b.Bytes()
}

func writeHeader(b *bytes.Buffer, key, value string) {
	line := key + ": " + value
	limit := maxLineBytes
	for len(line) > limit {
		cut := limit
		// never split a UTF-8 sequence
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		if cut == 0 {
			// no rune start in reach: the bytes are not UTF-8, split at the limit
			cut = limit
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		limit = maxLineBytes - 1
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

// ParseManifest reads the main section of a manifest.
func ParseManifest(data []byte) (Attributes, error) {
	var (
		attrs   Attributes
		current *Attribute
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, " ") {
			if current == nil {
				return nil, fmt.Errorf("parse manifest: continuation line before any header")
			}
			current.Value += line[1:]
			continue
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, fmt.Errorf("parse manifest: malformed header %q", line)
		}
		attrs = append(attrs, Attribute{Key: key, Value: value})
		current = &attrs[len(attrs)-1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return attrs, nil
}

// ParseExports reads an Export-Package value written by tryinstall back into
// capabilities. Only the pkg;version="v" form is understood.
func ParseExports(value string) ([]ir.Capability, error) {
	if value == "" {
		return nil, nil
	}
	var caps []ir.Capability
	for _, clause := range strings.Split(value, ",") {
		pkg, version, ok := strings.Cut(clause, `;version=`)
		if !ok {
			return nil, fmt.Errorf("parse exports: clause %q has no version", clause)
		}
		unquoted, err := strconv.Unquote(version)
		if err != nil {
			return nil, fmt.Errorf("parse exports: clause %q: %w", clause, err)
		}
		caps = append(caps, ir.Capability{Package: pkg, MinVersion: unquoted})
	}
	return caps, nil
}
