// Package llm provides an OpenRouter-compatible chat client used by the
// transcript cleanup detector.
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.Complete: send system/user prompts, receive plain text.
// Client.CompleteJSON: same, with response_format json_object.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries HTTP 408/429/5xx responses, empty completions and
// network timeouts with exponential backoff (base 1s, max 10s, 4 attempts by
// default). Retry-After is honoured up to the max delay. Context cancellation
// aborts retries immediately. Exhausted retries return an error marked
// services.ErrService so callers can degrade instead of failing the run.
package llm
