// Package core is the orchestration layer.  It composes a transport, a
// session and a stream thread into a complete operational mode and
// provides a builder that selects that mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  stream  →  session  →  streamthread  →  core  →  cmd (CLI)
package core

import "context"

// Mode represents a complete operational mode of streampump.  Each mode
// owns its full lifecycle from connection establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
