// Package separate splits audio files into vocal and accompaniment
// stems using demucs, with spleeter as a fallback backend.
package separate
