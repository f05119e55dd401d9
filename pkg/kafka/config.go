package kafka

import "time"

// Config holds Kafka connection parameters.
type Config struct {
	Brokers  []string
	ClientID string

	// RequiredAcks is "all" (default), "one" or "none".
	RequiredAcks string
	BatchTimeout time.Duration

	// TLS enables TLS for broker connections.
	TLS bool

	SASLEnabled   bool
	SASLMechanism string // "PLAIN", "SCRAM-SHA-256" or "SCRAM-SHA-512"
	SASLUsername  string
	SASLPassword  string
}
