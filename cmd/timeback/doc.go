// Package main hosts the timeback CLI.
//
// The Cobra command tree resolves configuration, builds a structured logger
// and one process registry per invocation, then hands off to the pipeline,
// render, and deps packages. SIGINT and SIGTERM cancel the command context and
// terminate any encoder still running under the registry.
package main
