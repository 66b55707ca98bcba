// Package broker wraps RabbitMQ for the prepare-room queue.
//
// Connect retries forever with a fixed delay; once connected, a dropped
// connection is reported through Lost and is not recovered in-process.
// Subscribe acknowledges manually: success acks, handler errors and panics
// reject the delivery without requeueing it.
package broker
