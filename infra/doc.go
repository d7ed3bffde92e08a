// Package infra holds the adapters behind the core interfaces: the SQLite
// repository, the weather feed and optimizer clients, the MQTT notifier and
// the metrics sinks.
package infra
