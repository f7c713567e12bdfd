// Package metrics defines the sinks that observe broadcast runs. A sink
// receives one DispatchEvent per message outcome and, when it implements
// ResolutionRecorder, one ResolutionEvent per channel lookup. Sinks are
// created by name from configuration and combined with NewMultiSink.
package metrics
