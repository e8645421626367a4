// Package render turns a keep-segment list into a cut media file.
//
// Segments stay structured until FilterGraph, which is the only place they are
// serialized into ffmpeg's trim/concat filter syntax. Encodes run through the
// process supervisor and hold a file lock on the output so two renders never
// write the same file.
package render
