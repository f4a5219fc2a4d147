package vkframe

import (
	"time"

	"github.com/loov/hrtime"
)

// FrameStats summarizes the frames rendered by a Graphics. Durations
// cover RenderBegin through RenderEnd, including the fence wait.
type FrameStats struct {
	Frames      uint64
	Skipped     uint64
	Recreations uint64

	Last  time.Duration
	Min   time.Duration
	Max   time.Duration
	Total time.Duration
}

// Average returns the mean frame time.
func (s FrameStats) Average() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Frames)
}

// FPS returns the frame rate implied by the mean frame time.
func (s FrameStats) FPS() float64 {
	avg := s.Average()
	if avg <= 0 {
		return 0
	}
	return float64(time.Second) / float64(avg)
}

type frameTimer struct {
	start time.Duration
	stats FrameStats
}

func (t *frameTimer) begin() {
	t.start = hrtime.Now()
}

func (t *frameTimer) end() {
	d := hrtime.Since(t.start)
	s := &t.stats
	s.Frames++
	s.Last = d
	s.Total += d
	if s.Min == 0 || d < s.Min {
		s.Min = d
	}
	if d > s.Max {
		s.Max = d
	}
}

func (t *frameTimer) skip() {
	t.stats.Skipped++
}

func (t *frameTimer) recreated() {
	t.stats.Recreations++
}
