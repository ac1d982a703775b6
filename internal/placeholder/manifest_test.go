package placeholder

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lambeaux/steadfast/internal/ir"
	"github.com/Lambeaux/steadfast/internal/testutil"
)

func testBase() Attributes {
	opts := DefaultBaseOptions()
	opts.BuildJDK = "17.0.9"
	return DefaultBase(opts)
}

func TestDefaultBase(t *testing.T) {
	base := testBase()

	keys := make([]string, len(base))
	for i, a := range base {
		keys[i] = a.Key
	}
	assert.Equal(t, []string{
		"Manifest-Version", "Build-Jdk", "Built-By", "Created-By", "Bundle-Name",
		"Bundle-SymbolicName", "Bundle-Description", "Bundle-ManifestVersion", "Bundle-Version",
	}, keys)

	v, ok := base.Get("bundle-version")
	require.True(t, ok)
	assert.Equal(t, "0", v)
	v, _ = base.Get("Build-Jdk")
	assert.Equal(t, "17.0.9", v)
}

func TestComposeManifestAppendsLastModified(t *testing.T) {
	attrs, err := ComposeManifest(testBase(), Attributes{{ExportPackageKey, `a.b;version="1.0"`}}, testutil.Epoch)
	require.NoError(t, err)

	require.Len(t, attrs, len(testBase())+2)
	assert.Equal(t, Attribute{ExportPackageKey, `a.b;version="1.0"`}, attrs[len(attrs)-2])
	assert.Equal(t, Attribute{LastModifiedKey, "1709294400000"}, attrs[len(attrs)-1])
}

func TestComposeManifestConflicts(t *testing.T) {
	tests := []struct {
		name  string
		base  Attributes
		extra Attributes
		key   string
	}{
		{"base key", testBase(), Attributes{{"Bundle-Version", "1"}}, "Bundle-Version"},
		{"case insensitive", testBase(), Attributes{{"bundle-symbolicname", "x"}}, "bundle-symbolicname"},
		{"last modified in extra", testBase(), Attributes{{LastModifiedKey, "1"}}, LastModifiedKey},
		{"last modified in base", append(testBase(), Attribute{LastModifiedKey, "1"}), nil, LastModifiedKey},
		{"duplicate extra", testBase(), Attributes{{"X-A", "1"}, {"X-A", "2"}}, "X-A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComposeManifest(tt.base, tt.extra, testutil.Epoch)
			require.Error(t, err)
			assert.True(t, ir.IsCode(err, ir.ErrCodeManifestConflict))
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestExportAttributes(t *testing.T) {
	assert.Nil(t, ExportAttributes(nil))
	assert.Nil(t, ExportAttributes(&ir.ExportSet{}))

	set := ir.NewExportSet(ir.Capability{Package: "a.b", MinVersion: "1.0"})
	assert.Equal(t, Attributes{{ExportPackageKey, `a.b;version="1.0"`}}, ExportAttributes(set))
}

func TestMarshalWrapsLongLines(t *testing.T) {
	value := strings.Repeat("x", 200)
	out := string(Attributes{{"K", value}}.Marshal())

	lines := strings.Split(strings.TrimSuffix(out, "\r\n\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Len(t, lines[0], 72)
	assert.Len(t, lines[1], 72)
	assert.True(t, strings.HasPrefix(lines[1], " "))
	assert.True(t, strings.HasPrefix(lines[2], " "))
	assert.Equal(t, "K: "+value, lines[0]+lines[1][1:]+lines[2][1:])
}

func TestMarshalDoesNotSplitRunes(t *testing.T) {
	value := strings.Repeat("é", 60)
	out := Attributes{{"K", value}}.Marshal()

	parsed, err := ParseManifest(out)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, value, parsed[0].Value)
}

func TestMarshalInvalidUTF8(t *testing.T) {
	value := strings.Repeat("\x80", 100)
	out := string(Attributes{{"Build-Jdk", value}}.Marshal())

	lines := strings.Split(strings.TrimSuffix(out, "\r\n\r\n"), "\r\n")
	joined := lines[0]
	for _, l := range lines[1:] {
		assert.LessOrEqual(t, len(l), 72)
		require.True(t, strings.HasPrefix(l, " "))
		joined += l[1:]
	}
	assert.Equal(t, "Build-Jdk: "+value, joined)
}

func TestParseManifestRoundTrip(t *testing.T) {
	set := ir.NewExportSet(
		ir.Capability{Package: "org.apache.commons.lang", MinVersion: "2.6.0"},
		ir.Capability{Package: "javax.inject", MinVersion: "1.0.0"},
		ir.Capability{Package: "org.slf4j", MinVersion: "1.7.1"},
	)
	attrs, err := ComposeManifest(testBase(), ExportAttributes(set), testutil.Epoch)
	require.NoError(t, err)

	parsed, err := ParseManifest(attrs.Marshal())
	require.NoError(t, err)
	assert.Equal(t, attrs, parsed)

	exportValue, ok := parsed.Get(ExportPackageKey)
	require.True(t, ok)
	caps, err := ParseExports(exportValue)
	require.NoError(t, err)
	assert.Equal(t, set.Capabilities(), caps)
}

func TestParseManifestErrors(t *testing.T) {
	_, err := ParseManifest([]byte(" continuation\r\n"))
	assert.Error(t, err)

	_, err = ParseManifest([]byte("no separator\r\n"))
	assert.Error(t, err)
}

func TestParseExports(t *testing.T) {
	caps, err := ParseExports("")
	require.NoError(t, err)
	assert.Empty(t, caps)

	_, err = ParseExports("a.b")
	assert.Error(t, err)

	_, err = ParseExports(`a.b;version=1.0`)
	assert.Error(t, err)
}

func TestManifestGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	empty, err := ComposeManifest(testBase(), ExportAttributes(&ir.ExportSet{}), testutil.Epoch)
	require.NoError(t, err)
	g.Assert(t, "empty_exports", empty.Marshal())

	set := ir.NewExportSet(
		ir.Capability{Package: "org.apache.commons.lang", MinVersion: "2.6.0"},
		ir.Capability{Package: "javax.inject", MinVersion: "1.0.0"},
		ir.Capability{Package: "org.slf4j", MinVersion: "1.7.1"},
	)
	three, err := ComposeManifest(testBase(), ExportAttributes(set), testutil.Epoch)
	require.NoError(t, err)
	g.Assert(t, "three_exports", three.Marshal())
}
