package chathub

import "chesshive/backend/internal/models"

// Client is one live connection managed by the hub.
type Client interface {
	// GetConnID returns the identifier of this connection, unique per process.
	GetConnID() string
	// GetVerifiedUsername returns the username proven by the session token the
	// connection was opened with, or "" for anonymous connections.
	GetVerifiedUsername() string

	// GetSendChannel returns the channel the hub writes outgoing events to.
	// The hub never blocks on it.
	GetSendChannel() chan<- models.Envelope

	// Run starts the read and write pumps.
	Run()
	// Close closes the send channel. The hub calls it once, after the client
	// has been removed from every routing table.
	Close()
}
