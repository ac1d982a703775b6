package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/three_missing_packages.yaml")
	require.NoError(t, err)

	assert.Equal(t, "three_missing_packages", s.Name)
	assert.Equal(t, "test-io/2.19.11", s.Feature)
	require.Len(t, s.Features, 1)
	assert.Equal(t, "platform-io-impl", s.Features[0].Bundle)
	require.Len(t, s.Features[0].Requires, 3)
	assert.Equal(t, "javax.inject", s.Features[0].Requires[1].Package)
	assert.Equal(t, 1, s.Runtime.Lag)
	assert.Equal(t, OutcomeSuccess, s.Expect.Outcome)
	assert.Len(t, s.Assertions, 3)
}

func TestLoadScenarios_SortedByPath(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"reload_stall",
		"three_missing_packages",
		"unknown_feature",
		"unsatisfiable_repeat",
	}, names)
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: d
feature: f
expect:
  outcome: success
assertion: []
`)
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"missing name", "description: d\nfeature: f\nexpect: {outcome: success}\n", "name is required"},
		{"missing description", "name: n\nfeature: f\nexpect: {outcome: success}\n", "description is required"},
		{"missing feature", "name: n\ndescription: d\nexpect: {outcome: success}\n", "feature is required"},
		{"bad outcome", "name: n\ndescription: d\nfeature: f\nexpect: {outcome: maybe}\n", "expect.outcome"},
		{
			"features and messages",
			"name: n\ndescription: d\nfeature: f\nfeatures: [{name: f, version: '1'}]\nmessages: [x]\nexpect: {outcome: success}\n",
			"mutually exclusive",
		},
		{
			"incomplete requirement",
			"name: n\ndescription: d\nfeature: f\nfeatures: [{name: f, version: '1', requires: [{package: p}]}]\nexpect: {outcome: success}\n",
			"requires[0]",
		},
		{"transient stall", "name: n\ndescription: d\nfeature: f\nruntime: {stall: [STARTING]}\nexpect: {outcome: success}\n", "runtime.stall[0]"},
		{"step without lifecycle", "name: n\ndescription: d\nfeature: f\nexpect: {outcome: success, step: start}\n", "expect.step"},
		{
			"assertion without command",
			"name: n\ndescription: d\nfeature: f\nexpect: {outcome: success}\nassertions: [{type: trace_contains}]\n",
			"command is required",
		},
		{
			"unknown assertion",
			"name: n\ndescription: d\nfeature: f\nexpect: {outcome: success}\nassertions: [{type: final_state}]\n",
			"unknown assertion type",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
