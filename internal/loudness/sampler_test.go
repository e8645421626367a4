package loudness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"timeback/internal/services"
)

type volumeRunner struct {
	mu       sync.Mutex
	inFlight atomic.Int32
	peak     int32
	fail     string
	calls    int
}

func (r *volumeRunner) Run(_ context.Context, _ string, args []string) ([]byte, []byte, error) {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	r.mu.Lock()
	r.calls++
	if n > r.peak {
		r.peak = n
	}
	r.mu.Unlock()
	time.Sleep(5 * time.Millisecond)

	start := "0.000"
	if idx := slices.Index(args, "-ss"); idx >= 0 {
		start = args[idx+1]
	}
	if start == r.fail {
		return nil, []byte("Invalid data found when processing input"), errors.New("exit status 1")
	}
	var seconds float64
	fmt.Sscanf(start, "%f", &seconds)
	stderr := fmt.Sprintf("[Parsed_volumedetect_0 @ 0x1] n_samples: 1440000\n[Parsed_volumedetect_0 @ 0x1] mean_volume: %.1f dB\n[Parsed_volumedetect_0 @ 0x1] max_volume: %.1f dB\n", -30-seconds/30, -6-seconds/30)
	return nil, []byte(stderr), nil
}

func TestSampleChunksBoundedAndOrdered(t *testing.T) {
	runner := &volumeRunner{}
	sampler := NewSampler("ffmpeg", WithRunner(runner))
	stats, err := sampler.SampleChunks(context.Background(), "talk.mp4", 300.5)
	if err != nil {
		t.Fatalf("SampleChunks returned error: %v", err)
	}
	if len(stats) != 10 {
		t.Fatalf("expected 10 chunks (tail folded), got %d", len(stats))
	}
	for i, chunk := range stats {
		if chunk.Start != float64(i)*30 {
			t.Fatalf("chunk %d out of order: start %v", i, chunk.Start)
		}
		if want := -6 - float64(i); chunk.MaxVolumeDB != want {
			t.Fatalf("chunk %d: max %v want %v", i, chunk.MaxVolumeDB, want)
		}
	}
	if last := stats[len(stats)-1]; last.Duration != 30.5 {
		t.Fatalf("expected tail folded into last chunk, got duration %v", last.Duration)
	}
	if runner.peak > DefaultConcurrency {
		t.Fatalf("expected at most %d concurrent analyses, saw %d", DefaultConcurrency, runner.peak)
	}
}

func TestSampleChunksDecodeFailureIsAnalysisError(t *testing.T) {
	runner := &volumeRunner{fail: "60.000"}
	sampler := NewSampler("ffmpeg", WithRunner(runner))
	_, err := sampler.SampleChunks(context.Background(), "broken.mp4", 120)
	if !errors.Is(err, services.ErrAnalysis) {
		t.Fatalf("expected ErrAnalysis, got %v", err)
	}
}

func TestSampleChunksUnknownDuration(t *testing.T) {
	sampler := NewSampler("", WithRunner(&volumeRunner{}))
	if _, err := sampler.SampleChunks(context.Background(), "x", 0); !errors.Is(err, services.ErrAnalysis) {
		t.Fatalf("expected ErrAnalysis for zero duration, got %v", err)
	}
}

type staticRunner struct {
	stderr string
	args   []string
}

func (r *staticRunner) Run(_ context.Context, _ string, args []string) ([]byte, []byte, error) {
	r.args = args
	return nil, []byte(r.stderr), nil
}

func TestSampleWindowUsesOverallSection(t *testing.T) {
	runner := &staticRunner{stderr: `[Parsed_astats_0 @ 0x1] Channel: 1
[Parsed_astats_0 @ 0x1] Peak level dB: -1.000000
[Parsed_astats_0 @ 0x1] RMS level dB: -40.000000
[Parsed_astats_0 @ 0x1] Overall
[Parsed_astats_0 @ 0x1] Peak level dB: -3.500000
[Parsed_astats_0 @ 0x1] RMS level dB: -21.500000
`}
	sampler := NewSampler("ffmpeg", WithRunner(runner))
	stats, err := sampler.SampleWindow(context.Background(), "talk.mp4", 45, 0)
	if err != nil {
		t.Fatalf("SampleWindow returned error: %v", err)
	}
	if stats.PeakLevelDB != -3.5 || stats.RMSLevelDB != -21.5 || stats.DynamicRangeDB != 18 {
		t.Fatalf("unexpected window stats %+v", stats)
	}
	idx := slices.Index(runner.args, "-t")
	if idx < 0 || runner.args[idx+1] != "45.000" {
		t.Fatalf("expected window clamped to track duration, got %q", runner.args)
	}
}

func TestSampleWindowWithoutStats(t *testing.T) {
	sampler := NewSampler("ffmpeg", WithRunner(&staticRunner{stderr: "nothing useful"}))
	if _, err := sampler.SampleWindow(context.Background(), "x", 100, 60); !errors.Is(err, services.ErrAnalysis) {
		t.Fatalf("expected ErrAnalysis, got %v", err)
	}
}

func TestSampleWindowDigitalSilence(t *testing.T) {
	runner := &staticRunner{stderr: `[Parsed_astats_0 @ 0x1] Overall
[Parsed_astats_0 @ 0x1] Peak level dB: -inf
[Parsed_astats_0 @ 0x1] RMS level dB: -inf
`}
	stats, err := NewSampler("ffmpeg", WithRunner(runner)).SampleWindow(context.Background(), "intro.mp4", 600, 60)
	if err != nil {
		t.Fatalf("a silent but decodable window must not fail: %v", err)
	}
	if !stats.Silent || stats.PeakLevelDB != 0 || stats.RMSLevelDB != 0 || stats.DynamicRangeDB != 0 {
		t.Fatalf("expected a silent window, got %+v", stats)
	}
	if _, ok := ParseAStats("Peak level dB: -3.0\nRMS level dB: -20.0\n"); !ok {
		t.Fatal("expected finite levels to parse")
	}
}

func TestParseVolumeDetectRejectsInfinity(t *testing.T) {
	if _, ok := ParseVolumeDetect("mean_volume: -inf dB\nmax_volume: -inf dB"); ok {
		t.Fatal("expected -inf to be rejected")
	}
	stats, ok := ParseVolumeDetect("mean_volume: -25.0 dB\nmax_volume: -3.0 dB")
	if !ok || stats.MeanVolumeDB != -25 || stats.MaxVolumeDB != -3 {
		t.Fatalf("unexpected parse %+v %v", stats, ok)
	}
}

func TestChunkWindows(t *testing.T) {
	windows := chunkWindows(65, 30)
	if len(windows) != 3 || windows[2] != [2]float64{60, 5} {
		t.Fatalf("unexpected windows %v", windows)
	}
	if chunkWindows(0, 30) != nil {
		t.Fatal("expected nil for empty track")
	}
}
