package transport

import "fleetwatch/internal/domain"

// Ingestor is the push-mode entry point into the engine's ingestion
// gateway. Implementations must tolerate duplicate and out-of-order
// delivery; the gateway guarantees at-most-once application.
type Ingestor interface {
	IngestEvent(ev domain.Event) bool
}

// Controller exposes the simulation controls a transport may drive on
// behalf of a connected client.
type Controller interface {
	Play()
	Pause()
	SetSpeed(speed float64)
}
