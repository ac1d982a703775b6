package ir

// Version constants for the tool and its persisted formats.
const (
	// ToolName is stamped into the placeholder manifest (Built-By, Created-By).
	ToolName = "feature-try-install"

	// ToolVersion is the tryinstall release version.
	ToolVersion = "0.1.0"

	// HistoryVersion is the session history schema version.
	HistoryVersion = "1"
)
