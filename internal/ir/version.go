package ir

// Version constants for the artifact schema and compiler.
const (
	// IRVersion is the artifact schema version.
	IRVersion = "1"

	// CompilerVersion is the POC compiler version.
	CompilerVersion = "0.1.0"
)
