// Package loudness samples the audio track of a media file with ffmpeg
// analysis filters.
//
// SampleChunks runs volumedetect over consecutive ~30 s chunks, at most three
// ffmpeg processes at a time. SampleWindow runs astats over the opening
// minute to get peak, RMS, and dynamic range. The results are immutable
// values consumed by the silence threshold estimator.
package loudness
