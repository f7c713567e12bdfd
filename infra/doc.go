// Package infra holds the adapters behind the core interfaces: the MQTT
// device bridge, metrics sinks, logging and error reporting.
package infra
