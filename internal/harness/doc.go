// Package harness runs resolve sessions against the simulated container from
// YAML scenarios and checks the outcome.
//
// # Scenario Format
//
//	name: three_missing_packages
//	description: "Each missing package is provided in turn"
//	feature: test-io/2.19.11
//	features:
//	  - name: test-io
//	    version: 2.19.11
//	    bundle: platform-io-impl
//	    requires:
//	      - { package: org.apache.commons.lang, min: 2.6.0, max: 3.0.0 }
//	runtime:
//	  lag: 1
//	  stall: [RESOLVED]
//	wait:
//	  max_attempts: 5
//	expect:
//	  outcome: success
//	  attempts: 2
//	  exports: [org.apache.commons.lang/2.6.0]
//	assertions:
//	  - type: trace_count
//	    command: update 1
//	    count: 1
//
// Either features (a simulated feature catalog resolved against the live
// exports) or messages (scripted installer failures, "" meaning success) drive
// the installer, not both.
//
// # Assertion Types
//
//   - trace_contains: a runtime command was issued
//   - trace_order: runtime commands were issued in this order
//   - trace_count: a runtime command was issued exactly N times
//
// # Deterministic Testing
//
// Scenarios run with a fixed session id, a frozen session clock, a stepping
// manifest clock and no real sleeping, so the trace of install attempts and
// runtime commands is identical across runs and suits golden comparison.
package harness
