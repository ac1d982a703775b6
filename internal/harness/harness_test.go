package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lambeaux/steadfast/internal/ir"
	"github.com/Lambeaux/steadfast/internal/simulator"
	"github.com/Lambeaux/steadfast/internal/testutil"
)

func TestRun_ScriptedSuccess(t *testing.T) {
	scenario := &Scenario{
		Name:        "immediate",
		Description: "Installs on the first attempt",
		Feature:     "test-io",
		Expect:      Expect{Outcome: OutcomeSuccess, Attempts: 1},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, []string{"install 1", "start 1"}, result.Commands())
	require.NotNil(t, result.Session)
	assert.Equal(t, "test-session-default", result.Session.ID)
	assert.True(t, result.Session.Succeeded)
}

func TestRun_SampleFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "sample",
		Description: "The canonical nested failure",
		Feature:     "test-io",
		Messages:    []string{testutil.SampleFailure},
		SessionID:   "session-sample",
		Expect: Expect{
			Outcome:  OutcomeSuccess,
			Attempts: 2,
			Exports:  []string{"org.apache.commons.lang/2.6.0"},
		},
		Assertions: []Assertion{
			{Type: AssertTraceOrder, Commands: []string{"install 1", "stop 1", "update 1", "start 1"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, "session-sample", result.Session.ID)
	require.Len(t, result.Session.Attempts, 2)
	assert.Equal(t, testutil.SampleFailure, result.Session.Attempts[0].Message)
	assert.NotEmpty(t, result.Session.Fingerprint)
}

func TestRun_ReportsUnmetExpectations(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong",
		Description: "Expects the wrong things",
		Feature:     "test-io",
		Messages:    []string{testutil.NonPackageFailure},
		Expect: Expect{
			Outcome:  OutcomeSuccess,
			Attempts: 3,
			Exports:  []string{"a/1"},
		},
		Assertions: []Assertion{
			{Type: AssertTraceContains, Command: "update 1"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, string(ir.ErrCodeExtractionFailure), result.Outcome)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "outcome: expected success, got EXTRACTION_FAILURE")
	assert.Contains(t, result.Errors[1], "attempts: expected 3, got 1")
	assert.Contains(t, result.Errors[2], "exports")
	assert.Contains(t, result.Errors[3], "trace_contains")
}

func TestRun_CatalogFeature(t *testing.T) {
	scenario := &Scenario{
		Name:        "catalog",
		Description: "Resolves against the simulated catalog",
		Feature:     "test-io/2.19.11",
		Features: []simulator.Feature{{
			Name:    "test-io",
			Version: "2.19.11",
			Bundle:  "platform-io-impl",
			Requires: []simulator.Requirement{
				{Package: "javax.inject", Min: "1.0.0", Max: "2.0.0"},
			},
		}},
		Runtime: RuntimeSpec{Lag: 2},
		Expect:  Expect{Outcome: OutcomeSuccess, Attempts: 2, Exports: []string{"javax.inject/1.0.0"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_InitializeStall(t *testing.T) {
	scenario := &Scenario{
		Name:        "init_stall",
		Description: "The placeholder never becomes active",
		Feature:     "test-io",
		Runtime:     RuntimeSpec{Stall: []string{"active"}},
		Wait:        WaitSpec{MaxAttempts: 2},
		Expect:      Expect{Outcome: string(ir.ErrCodeLifecycleFailure), Step: "install"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.Empty(t, result.Session.Attempts)
	assert.Equal(t, []string{"install 1", "start 1"}, result.Commands())
}

func TestRunWithGolden_Scenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}
