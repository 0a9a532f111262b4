/*
Package observability turns dispatcher lifecycle events into Prometheus metrics and
structured audit logs.

Both are exposed as domain.LifecycleHooks so they can be merged and handed to the
dispatcher with dispatch.WithHooks.
*/
package observability
