// Package transport opens the broker connection that a stream thread
// pumps.  Transports decide how bytes reach the broker (plain TCP or
// through an SSH gateway) and know nothing about the streams layered
// on top of the connection.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound network connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH client).  Stateless dialers return nil.
	Close() error
}
