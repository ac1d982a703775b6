// Package ir provides the shared value types of a tryinstall resolve session.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Capability is a comparable value; equality is by package and version
//   - ExportSet only grows, and preserves insertion order
//   - Every terminal session failure is an *Error carrying an ErrorCode
package ir
