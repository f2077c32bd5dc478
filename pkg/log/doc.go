/*
Package log provides structured logging on top of zerolog.

A single package-level Logger is initialized once via Init and shared
by every package that needs to log. The SDM engine itself (pkg/sdm,
pkg/objects) takes no logger and makes no logging calls — it is a
pure, synchronous library per its concurrency model. Only the layers
that sit outside the engine use it: pkg/dispatch and pkg/simulate log,
using WithComponent/WithOp/WithPath to attach context, and cmd/sdmctl
calls Init.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	logger := log.WithComponent("dispatch")
	logger.Info().Str("op", "read").Msg("begin")
*/
package log
