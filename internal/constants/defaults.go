package constants

// Default server configuration values
const (
	DefaultServerPort            = 8082
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
	ServerErrorChannelSize       = 1
)

// Default retry configuration values
const (
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
	DefaultMaxAttempts           = 5
	DefaultDatabaseRetryAttempts = 3
)

// Default gateway configuration values
const (
	DefaultSendTimeoutSec = 10
	DefaultReadLimitBytes = 64 * 1024
	DefaultEventBufferLen = 256
	DefaultTokenTTLSec    = 7 * 24 * 60 * 60
)

// Encryption salts (application-specific, not secret)
const (
	EncryptionSalt       = "chatgate-db-salt-v1"
	EncryptionLookupSalt = "chatgate-lookup-salt-v1"
)

// Canned notification contents for offline fallbacks
const (
	FriendRequestContent        = "You have a new friend request"
	FriendRequestUpdatedContent = "Your friend request has been updated"
)

// Friend request description bounds
const (
	FriendRequestDescriptionMin = 10
	FriendRequestDescriptionMax = 500
)
