package silence

import (
	"math"
	"math/rand"
	"testing"

	"timeback/internal/loudness"
)

func chunksOf(maxDB, meanDB float64, n int) []loudness.ChunkStats {
	out := make([]loudness.ChunkStats, n)
	for i := range out {
		out[i] = loudness.ChunkStats{Start: float64(i) * 30, Duration: 30, MaxVolumeDB: maxDB, MeanVolumeDB: meanDB}
	}
	return out
}

func TestClassifyNoise(t *testing.T) {
	cases := map[float64]NoiseClass{
		8:    NoiseNoisy,
		9.99: NoiseNoisy,
		10:   NoiseModerate,
		14.9: NoiseModerate,
		15:   NoiseClean,
		30:   NoiseClean,
	}
	for dr, want := range cases {
		if got := ClassifyNoise(dr); got != want {
			t.Fatalf("ClassifyNoise(%v) = %s, want %s", dr, got, want)
		}
	}
}

func TestEstimateThresholdCleanNarration(t *testing.T) {
	window := loudness.WindowStats{PeakLevelDB: -3, RMSLevelDB: -25, DynamicRangeDB: 22}
	est := EstimateThreshold(chunksOf(-5, -28, 5), window)
	if est.NoiseClass != NoiseClean {
		t.Fatalf("expected clean class, got %s", est.NoiseClass)
	}
	// (-40*0.35 + -40*0.35 + -40*0.20 + -17*0.10) / 1.0
	if math.Abs(est.ThresholdDB-(-37.7)) > 1e-9 {
		t.Fatalf("unexpected threshold %v", est.ThresholdDB)
	}
	if len(est.Candidates) != 4 {
		t.Fatalf("expected aggressive candidate for clean audio, got %+v", est.Candidates)
	}
}

func TestEstimateThresholdMedianResistsOutliers(t *testing.T) {
	chunks := chunksOf(-6, -28, 5)
	chunks[2].MaxVolumeDB = 0
	chunks[2].MeanVolumeDB = -5
	window := loudness.WindowStats{PeakLevelDB: -3, RMSLevelDB: -26, DynamicRangeDB: 23}
	withOutlier := EstimateThreshold(chunks, window)
	without := EstimateThreshold(chunksOf(-6, -28, 5), window)
	if withOutlier.ThresholdDB != without.ThresholdDB {
		t.Fatalf("outlier chunk moved threshold: %v vs %v", withOutlier.ThresholdDB, without.ThresholdDB)
	}
}

func TestEstimateThresholdNoisyUpperBoundIsHigher(t *testing.T) {
	chunks := chunksOf(0, 0, 3)
	noisy := EstimateThreshold(chunks, loudness.WindowStats{PeakLevelDB: 0, RMSLevelDB: -8, DynamicRangeDB: 8})
	clean := EstimateThreshold(chunks, loudness.WindowStats{PeakLevelDB: 0, RMSLevelDB: -8, DynamicRangeDB: 20})
	if noisy.NoiseClass != NoiseNoisy || clean.NoiseClass != NoiseClean {
		t.Fatalf("unexpected classes %s %s", noisy.NoiseClass, clean.NoiseClass)
	}
	if !(noisy.MaxDB > clean.MaxDB) {
		t.Fatalf("noisy upper bound %v should exceed clean upper bound %v", noisy.MaxDB, clean.MaxDB)
	}
	// Raw noisy estimate is -15.95 dB, just above the noisy cap.
	if noisy.ThresholdDB != MaxNoisyThresholdDB || !noisy.Clamped {
		t.Fatalf("expected noisy threshold clamped to %v, got %+v", MaxNoisyThresholdDB, noisy)
	}
	if clean.ThresholdDB > MaxThresholdDB {
		t.Fatalf("clean threshold %v above clean cap", clean.ThresholdDB)
	}
}

func TestEstimateThresholdAlwaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		n := rng.Intn(8)
		chunks := make([]loudness.ChunkStats, n)
		for j := range chunks {
			chunks[j] = loudness.ChunkStats{MaxVolumeDB: -rng.Float64() * 90, MeanVolumeDB: -rng.Float64() * 90}
		}
		peak := -rng.Float64() * 60
		rms := peak - rng.Float64()*40
		window := loudness.WindowStats{PeakLevelDB: peak, RMSLevelDB: rms, DynamicRangeDB: peak - rms}
		est := EstimateThreshold(chunks, window)
		if est.ThresholdDB < est.MinDB || est.ThresholdDB > est.MaxDB {
			t.Fatalf("threshold %v outside [%v, %v] for %+v", est.ThresholdDB, est.MinDB, est.MaxDB, window)
		}
		again := EstimateThreshold(chunks, window)
		if again.ThresholdDB != est.ThresholdDB {
			t.Fatalf("non-deterministic threshold: %v vs %v", est.ThresholdDB, again.ThresholdDB)
		}
	}
}

func TestEstimateThresholdFallback(t *testing.T) {
	est := EstimateThreshold(nil, loudness.WindowStats{DynamicRangeDB: 20})
	if !est.Fallback || est.ThresholdDB != FallbackThresholdDB {
		t.Fatalf("expected fallback threshold, got %+v", est)
	}
}

func TestEstimateThresholdSilentWindowUsesChunkMedians(t *testing.T) {
	est := EstimateThreshold(chunksOf(-5, -28, 5), loudness.WindowStats{Silent: true})
	if est.Fallback {
		t.Fatalf("measurable chunks must not fall back, got %+v", est)
	}
	if est.NoiseClass != NoiseClean || est.Window.DynamicRangeDB != 23 || !est.Window.Silent {
		t.Fatalf("expected class from chunk medians, got %+v", est)
	}
	// (-40*0.35 + -40*0.35 + -43*0.20 + -17*0.10) / 1.0
	if math.Abs(est.ThresholdDB-(-38.3)) > 1e-9 {
		t.Fatalf("unexpected threshold %v", est.ThresholdDB)
	}

	empty := EstimateThreshold(nil, loudness.WindowStats{Silent: true})
	if !empty.Fallback || empty.ThresholdDB != FallbackThresholdDB || empty.NoiseClass != NoiseClean {
		t.Fatalf("expected fallback for a silent window without chunks, got %+v", empty)
	}
}
