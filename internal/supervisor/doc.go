// Package supervisor runs external encoder processes with a timeout, graceful
// then forced termination, failure classification and bounded retries.
//
// Every child is started in its own process group and recorded in a Registry
// owned by the caller, so a shutdown path can terminate all in-flight encodes
// with Registry.TerminateAll.
package supervisor
