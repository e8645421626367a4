package ffprobe

import (
	"context"
	"errors"
	"testing"
)

type stubRunner struct {
	stdout string
	err    error
	args   []string
}

func (s *stubRunner) Run(_ context.Context, _ string, args []string) ([]byte, []byte, error) {
	s.args = args
	return []byte(s.stdout), nil, s.err
}

func TestInspectWithParsesStreams(t *testing.T) {
	runner := &stubRunner{stdout: `{
		"streams": [
			{"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080},
			{"index": 1, "codec_type": "audio", "codec_name": "aac", "channels": 2, "sample_rate": "48000"}
		],
		"format": {"filename": "talk.mp4", "duration": "612.48"}
	}`}
	result, err := InspectWith(context.Background(), runner, "", "talk.mp4")
	if err != nil {
		t.Fatalf("InspectWith returned error: %v", err)
	}
	if !result.HasVideo() || !result.HasAudio() {
		t.Fatalf("expected video and audio, got %+v", result.Streams)
	}
	if result.DurationSeconds() != 612.48 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
	if runner.args[len(runner.args)-1] != "talk.mp4" {
		t.Fatalf("expected path as last argument, got %q", runner.args)
	}
}

func TestHasVideoIgnoresCoverArt(t *testing.T) {
	result := Result{Streams: []Stream{
		{CodecType: "audio"},
		{CodecType: "video", Disposition: map[string]int{"attached_pic": 1}},
	}}
	if result.HasVideo() {
		t.Fatal("cover art should not count as video")
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{{Duration: "10.5"}, {Duration: "12.25"}, {Duration: "N/A"}},
		Format:  Format{Duration: ""},
	}
	if result.DurationSeconds() != 12.25 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
}

func TestInspectWithErrors(t *testing.T) {
	if _, err := InspectWith(context.Background(), &stubRunner{}, "", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := InspectWith(context.Background(), &stubRunner{err: errors.New("boom")}, "", "x"); err == nil {
		t.Fatal("expected runner error to propagate")
	}
	if _, err := InspectWith(context.Background(), &stubRunner{stdout: "not json"}, "", "x"); err == nil {
		t.Fatal("expected parse error")
	}
}
