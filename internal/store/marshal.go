package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Lambeaux/steadfast/internal/ir"
)

// timeLayout keeps stored timestamps sortable as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// marshalExports converts a capability list to canonical JSON TEXT and its
// fingerprint.
func marshalExports(caps []ir.Capability) (string, string, error) {
	if caps == nil {
		caps = []ir.Capability{}
	}
	data, err := ir.MarshalCanonical(caps)
	if err != nil {
		return "", "", fmt.Errorf("marshal exports: %w", err)
	}
	fp, err := ir.ExportsFingerprint(caps)
	if err != nil {
		return "", "", err
	}
	return string(data), fp, nil
}

func unmarshalExports(s string) ([]ir.Capability, error) {
	caps := []ir.Capability{}
	if err := json.Unmarshal([]byte(s), &caps); err != nil {
		return nil, fmt.Errorf("unmarshal exports: %w", err)
	}
	return caps, nil
}

// marshalCapability returns NULL for attempts that extracted nothing.
func marshalCapability(c *ir.Capability) (sql.NullString, error) {
	if c == nil {
		return sql.NullString{}, nil
	}
	data, err := ir.MarshalCanonical(*c)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal capability: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalCapability(s sql.NullString) (*ir.Capability, error) {
	if !s.Valid {
		return nil, nil
	}
	var c ir.Capability
	if err := json.Unmarshal([]byte(s.String), &c); err != nil {
		return nil, fmt.Errorf("unmarshal capability: %w", err)
	}
	return &c, nil
}
