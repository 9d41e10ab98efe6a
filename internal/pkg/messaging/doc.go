// Package messaging provides a broker-agnostic publish/consume abstraction
// with Kafka and NATS implementations.
package messaging
