// Package ir provides the governance artifact types produced by the POC compiler.
//
// This package contains type definitions, canonical JSON and content digests
// only. All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - cost ceilings are int64 minor units
//   - Artifact slices on a CompilationResult are never nil, so JSON renders [] not null
//   - All JSON tags use snake_case
//   - Closed sets (Principal, MeasurementUnit, Verdict) are int enums with explicit name tables
package ir
