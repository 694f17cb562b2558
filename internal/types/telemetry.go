package types

// Telemetry naming for CloudWatch.
//
// Successful publications are tracked under the public event type itself
// (e.g. "ALERT-INSERTED"); failed publications append FailedEventSuffix
// (e.g. "ALERT-INSERTED_FAILED"). The per-event properties map is attached
// as structured log fields alongside the metric datum.

// FailedEventSuffix is appended to the event type for failed publishes.
const FailedEventSuffix = "_FAILED"
