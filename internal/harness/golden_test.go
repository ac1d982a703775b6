package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lambeaux/steadfast/internal/ir"
)

func TestTraceSnapshot_Canonical(t *testing.T) {
	r := NewResult()
	r.Outcome = OutcomeSuccess
	r.Session = &ir.Session{
		ID:      "s-1",
		Exports: []ir.Capability{{Package: "a", MinVersion: "1"}},
	}
	r.AddCommandTrace("install 1")
	r.AddAttemptTrace(ir.Attempt{Seq: 1, Result: ir.ResultSucceeded})

	data, err := NewTraceSnapshot("snap", r).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"exports":["a/1"],"outcome":"success","scenario_name":"snap","session_id":"s-1",`+
			`"trace":[{"command":"install 1","type":"command"},{"result":"succeeded","seq":1,"type":"attempt"}]}`,
		string(data))
}

func TestTraceSnapshot_IncludesLifecycleStep(t *testing.T) {
	r := NewResult()
	r.Outcome = string(ir.ErrCodeLifecycleFailure)
	r.Err = ir.NewLifecycleError("update", "stalled", nil)

	s := NewTraceSnapshot("stall", r)
	assert.Equal(t, "update", s.Step)
	assert.Equal(t, []string{}, s.Exports)

	data, err := s.MarshalCanonical()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"step":"update"`)
}
