/*
Package observability turns interpreter lifecycle events into Prometheus metrics and
structured log lines.

Metrics.Hooks returns domain.LifecycleHooks for runtime.WithLifecycleHooks, and
Metrics.PersistFailed plugs into session.WithPersistFailureHook.
*/
package observability
