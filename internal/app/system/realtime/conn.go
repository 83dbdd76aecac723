// internal/app/system/realtime/conn.go
package realtime

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// sendBuffer is the per-connection outbound queue depth. A receiver that
// falls this far behind has its events dropped rather than stalling the
// emitter (at-most-once delivery).
const sendBuffer = 64

// Conn is one live realtime connection. The hub owns the membership
// bookkeeping; the transport layer (the websocket handler) drains Send and
// writes each frame to the socket in order.
type Conn struct {
	ID     string
	UserID primitive.ObjectID

	send chan []byte

	// scopes is mutated only while holding the hub mutex.
	scopes map[string]struct{}
}

// Send returns the channel of marshaled envelopes queued for this
// connection. It is closed when the connection is released.
func (c *Conn) Send() <-chan []byte {
	return c.send
}
