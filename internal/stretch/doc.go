// Package stretch retimes audio files to a target duration.
//
// The Adjuster probes the input's duration, derives the speed multiplier
// needed to hit the target, clamps it to the active backend's accepted
// range, and decomposes out-of-range values into a chain of in-range
// primitive applications. Two backends exist: ffmpeg's atempo filter
// (speed-based, single invocation with a chained filter) and the
// rubberband CLI (ratio-based, one invocation per stage). Backends are
// tried in configured order; the first success wins.
package stretch
