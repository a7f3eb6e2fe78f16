package models

// Encryption parameters for at-rest message content
const (
	NonceSize  = 12
	KeySize    = 32
	Iterations = 100000
)
