// Package app wires the application together: configuration, an isolated
// logger, the action registry, the pipeline model, the engine and the
// publisher. Each App instance is self-contained, so tests run many of them
// concurrently without shared globals.
package app
