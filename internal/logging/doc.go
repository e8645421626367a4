// Package logging assembles structured slog loggers and formatting helpers used
// across timeback.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so analysis code can tag log
// lines with job IDs, stages, and correlation IDs. Threshold choices, dual-pass
// escalations, and merge boosts are logged through DecisionAttrs so they can be
// grepped by decision_type.
package logging
