// Package language normalizes language codes handed to the transcriber and
// the filler-word tables. Both accept ISO 639-1 codes; users may configure
// three-letter codes, English names, or regional tags.
package language
