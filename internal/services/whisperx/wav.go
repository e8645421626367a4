package whisperx

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// WAVInfo describes an extracted WAV file.
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// InspectWAV reads the header of a PCM WAV file.
func InspectWAV(path string) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return WAVInfo{}, fmt.Errorf("%s: not a valid wav file", path)
	}
	dur, err := dec.Duration()
	if err != nil {
		return WAVInfo{}, fmt.Errorf("%s: read duration: %w", path, err)
	}
	return WAVInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Duration:   dur,
	}, nil
}

func checkExtracted(info WAVInfo) error {
	switch {
	case info.SampleRate != SampleRate:
		return fmt.Errorf("sample rate %d, want %d", info.SampleRate, SampleRate)
	case info.Channels != Channels:
		return fmt.Errorf("%d channels, want %d", info.Channels, Channels)
	case info.Duration <= 0:
		return fmt.Errorf("no audio samples")
	}
	return nil
}
