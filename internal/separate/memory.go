package separate

import (
	"strings"

	"golang.org/x/sys/unix"
)

const (
	gib = 1 << 30

	// htdemucs refuses segments longer than its training window.
	htdemucsMaxSegment = 7.8
)

// availableMemoryBytes reports free system RAM. Separation cost grows
// with segment length, so the segment is sized to what the machine can
// actually hold.
func availableMemoryBytes() (uint64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}
	return uint64(info.Freeram) * uint64(info.Unit), nil
}

func segmentForMemory(free uint64) float64 {
	switch {
	case free >= 6*gib:
		return 10
	case free >= 4*gib:
		return 8
	case free >= 2*gib:
		return 4
	default:
		return 2
	}
}

// SegmentSize picks the demucs segment length in seconds for the given
// model. A positive override wins; otherwise the size follows free RAM.
// Either way the htdemucs family is capped at its model limit.
func SegmentSize(model string, override float64) float64 {
	segment := override
	if segment <= 0 {
		free, err := availableMemoryBytes()
		if err != nil {
			segment = 2
		} else {
			segment = segmentForMemory(free)
		}
	}
	if strings.HasPrefix(model, "htdemucs") && segment > htdemucsMaxSegment {
		segment = htdemucsMaxSegment
	}
	return segment
}
