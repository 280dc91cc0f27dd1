// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no overdub-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns a parsed Result
//   - Duration: executes ffprobe and returns a positive duration or an error
package ffprobe
