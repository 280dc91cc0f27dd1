package separate

import "testing"

func TestSegmentForMemory(t *testing.T) {
	cases := []struct {
		free uint64
		want float64
	}{
		{8 * gib, 10},
		{6 * gib, 10},
		{5 * gib, 8},
		{4 * gib, 8},
		{3 * gib, 4},
		{2 * gib, 4},
		{1 * gib, 2},
		{0, 2},
	}
	for _, tc := range cases {
		if got := segmentForMemory(tc.free); got != tc.want {
			t.Errorf("segmentForMemory(%d) = %v, want %v", tc.free, got, tc.want)
		}
	}
}

func TestSegmentSizeOverride(t *testing.T) {
	if got := SegmentSize("mdx_extra", 12); got != 12 {
		t.Fatalf("override ignored: %v", got)
	}
}

func TestSegmentSizeHtdemucsCap(t *testing.T) {
	if got := SegmentSize("htdemucs", 10); got != htdemucsMaxSegment {
		t.Fatalf("expected htdemucs cap, got %v", got)
	}
	if got := SegmentSize("htdemucs_ft", 9); got != htdemucsMaxSegment {
		t.Fatalf("expected cap for htdemucs variants, got %v", got)
	}
	if got := SegmentSize("htdemucs", 4); got != 4 {
		t.Fatalf("segment under the cap must pass through, got %v", got)
	}
}
