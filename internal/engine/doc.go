// Package engine implements the resolve loop.
//
// A session installs one feature, and on failure reads the missing package
// out of the installer's diagnostic, declares it on the placeholder module and
// tries again. The loop is a small state machine:
//
//	ATTEMPTING -> DONE        install succeeded
//	ATTEMPTING -> DIAGNOSING  install failed
//	DIAGNOSING -> PATCHING    a new capability was extracted
//	DIAGNOSING -> DONE        nothing extractable, or the capability repeats
//	PATCHING   -> ATTEMPTING  the placeholder was rewritten and reloaded
//	PATCHING   -> DONE        the rewrite or reload failed
//
// Termination: every PATCHING step grows the export set by one capability
// the set did not hold, and a repeat ends the session, so a session makes at
// most one more install attempt than the number of distinct capabilities the
// installer can name.
//
// The loop is single-threaded. Cancelling the context interrupts lifecycle
// waits; it does not abort an install call already in flight.
package engine
