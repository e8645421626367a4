package main

import (
	"encoding/json"
	"fmt"
	"os"

	"timeback/internal/segments"
)

// segmentPlan is the on-disk keep list exchanged between analysis and render.
type segmentPlan struct {
	Input    string                 `json:"input,omitempty"`
	Duration float64                `json:"duration,omitempty"`
	Keep     []segments.KeepSegment `json:"keep"`
}

func writeSegmentPlan(path string, plan segmentPlan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("encode segment plan: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write segment plan: %w", err)
	}
	return nil
}

// readSegmentPlan accepts either a segmentPlan object or a bare array of
// keep segments.
func readSegmentPlan(path string) (segmentPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return segmentPlan{}, fmt.Errorf("read segment plan: %w", err)
	}
	var plan segmentPlan
	if err := json.Unmarshal(data, &plan); err == nil && plan.Keep != nil {
		return plan, nil
	}
	var keep []segments.KeepSegment
	if err := json.Unmarshal(data, &keep); err != nil {
		return segmentPlan{}, fmt.Errorf("parse segment plan %s: %w", path, err)
	}
	return segmentPlan{Keep: keep}, nil
}
