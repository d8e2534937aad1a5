package config

import "time"

const (
	// History
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100

	// Directory
	DefaultDirectoryLimit = 200

	// Messages
	DefaultMaxMessageLength = 2000

	// WebSocket
	DefaultWriteWait      = 10 * time.Second
	DefaultPongWait       = 60 * time.Second
	DefaultMaxMessageSize = 32768
	DefaultSendBuffer     = 256

	// A rune sent as an escaped surrogate pair takes 12 bytes of JSON. The
	// overhead covers the envelope keys and two escaped usernames.
	MaxEncodedRuneBytes = 12
	EnvelopeOverhead    = 2048

	// Redis
	BroadcastChannel   = "chat:broadcast"
	HistoryCachePrefix = "chat:history"
	HistoryCacheTTL    = 5 * time.Minute

	// Kafka
	DefaultKafkaTopic = "chesshive.chat.messages"

	// Session
	SessionCookieName = "chesshive_session"
	SessionIssuer     = "chesshive-auth"
)
