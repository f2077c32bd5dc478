// Package simulate drives the engine's Observe/Notify machinery
// (pkg/sdm's ObservationTable) on a clock of its own, the way a real
// CoAP transport would: it calls sdm.NotificationTick on an interval,
// drains every pending sdm.Notification with sdm.NotificationEmit, and
// fans each one out to subscribers. It exists so this module is
// runnable and testable end-to-end without a real CoAP stack wired in
// (the test suite uses it; cmd/sdmctl calls sdm.NotificationTick and
// sdm.NotificationEmit directly instead).
package simulate
