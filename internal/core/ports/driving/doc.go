// Package driving provides interfaces for application entry points
// (primary/inbound ports): the sync orchestrator, tenant registry and
// search surface consumed by the CLI, HTTP API and scheduler.
package driving
