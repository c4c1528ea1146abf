/*
Package observability turns engine lifecycle hooks into metrics and logs.

Metrics registers Prometheus collectors for transitions, detections and
applied actions; LogHooks writes the same events as structured slog records.
Both plug into apc.WithLifecycleHooks and can be combined with
domain.LifecycleHooks.Merge.
*/
package observability
