// Package config loads the engine's tunables and device fixtures from
// YAML, the same apiVersion/kind/metadata/spec envelope cmd/warren's
// apply.go uses for its resources (WarrenResource), adapted to this
// module's two kinds: EngineConfig (registry/observation sizing) and
// Fixture (the Objects/Instances/Resources cmd/sdmctl's load
// subcommand builds a Registry from).
package config
