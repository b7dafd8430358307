package config

const (
	// DefaultDatabasePath is the default path for the gateway database
	DefaultDatabasePath = "./prosa-kobo.db"

	// DefaultTokenSize is the random payload of a capability token in
	// bytes; 32 bytes is well past the 128-bit entropy floor.
	DefaultTokenSize = 32
)
