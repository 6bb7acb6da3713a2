// Package messaging publishes engine events to external consumers. The AMQP
// publisher is the production path; the in-memory publisher backs tests and
// deployments without a broker.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"punchcoach-server/pkg/drill"
	"punchcoach-server/pkg/metrics"
)

// EventPublisher is a connectable drill event sink
type EventPublisher interface {
	drill.EventSink
	Connect() error
	Disconnect()
	IsConnected() bool
}

// AMQPConfig holds AMQP publisher configuration
type AMQPConfig struct {
	URL       string
	QueueName string
	Durable   bool
}

// AMQPPublisher publishes drill events to an AMQP queue. Publish never
// blocks a classification pass on broker trouble: failures are logged and
// counted, the event is dropped.
type AMQPPublisher struct {
	logger    *logrus.Entry
	config    AMQPConfig
	conn      *amqp.Connection
	channel   *amqp.Channel
	connected bool
	connMutex sync.RWMutex
	stopChan  chan struct{}
}

// NewAMQPPublisher creates a new AMQP publisher
func NewAMQPPublisher(logger *logrus.Logger, config AMQPConfig) *AMQPPublisher {
	config.Durable = true

	return &AMQPPublisher{
		logger:   logger.WithField("component", "amqp"),
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// Connect establishes a connection to the AMQP server
func (c *AMQPPublisher) Connect() error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.connected {
		return nil
	}

	if c.config.URL == "" || c.config.QueueName == "" {
		return fmt.Errorf("AMQP URL or queue name not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connChan := make(chan struct {
		conn *amqp.Connection
		err  error
	}, 1)

	go func() {
		conn, err := amqp.Dial(c.config.URL)
		select {
		case <-ctx.Done():
			if conn != nil {
				conn.Close()
			}
		case connChan <- struct {
			conn *amqp.Connection
			err  error
		}{conn, err}:
		}
	}()

	var conn *amqp.Connection
	select {
	case result := <-connChan:
		if result.err != nil {
			return fmt.Errorf("failed to connect to AMQP server: %w", result.err)
		}
		conn = result.conn
	case <-ctx.Done():
		return fmt.Errorf("connection to AMQP server timed out after 5 seconds")
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		c.config.QueueName,
		c.config.Durable, // Durable
		false,            // Delete when unused
		false,            // Exclusive
		false,            // No-wait
		nil,              // Arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare AMQP queue: %w", err)
	}

	c.conn = conn
	c.channel = channel
	c.connected = true
	c.stopChan = make(chan struct{})

	c.logger.WithFields(logrus.Fields{
		"url":   c.config.URL,
		"queue": c.config.QueueName,
	}).Info("Connected to AMQP server")

	go c.monitorConnection()

	return nil
}

// monitorConnection watches for dropped connections and reconnects with
// backoff until Disconnect is called.
func (c *AMQPPublisher) monitorConnection() {
	c.connMutex.RLock()
	closeChan := c.conn.NotifyClose(make(chan *amqp.Error, 1))
	stopChan := c.stopChan
	c.connMutex.RUnlock()

	select {
	case <-stopChan:
		return
	case amqpErr := <-closeChan:
		if amqpErr != nil {
			c.logger.WithError(amqpErr).Warn("AMQP connection lost, reconnecting")
		}
	}

	c.connMutex.Lock()
	c.connected = false
	c.connMutex.Unlock()

	backoff := time.Second
	for {
		select {
		case <-stopChan:
			return
		case <-time.After(backoff):
		}

		if err := c.Connect(); err == nil {
			return
		}

		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// Disconnect closes the AMQP connection
func (c *AMQPPublisher) Disconnect() {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if !c.connected {
		return
	}

	close(c.stopChan)

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}

	c.connected = false
	c.logger.Info("Disconnected from AMQP server")
}

// IsConnected returns the connection status
func (c *AMQPPublisher) IsConnected() bool {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()
	return c.connected
}

// Publish implements drill.EventSink by sending the event as a persistent
// JSON message to the configured queue.
func (c *AMQPPublisher) Publish(event drill.Event) {
	c.connMutex.RLock()
	connected := c.connected
	channel := c.channel
	c.connMutex.RUnlock()

	if !connected {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		c.logger.WithError(err).Error("Failed to marshal drill event")
		metrics.AMQPPublishErrors.Inc()
		return
	}

	err = channel.Publish(
		"",                 // exchange
		c.config.QueueName, // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.logger.WithError(err).WithField("event_type", event.Type).Error("Failed to publish drill event")
		metrics.AMQPPublishErrors.Inc()
		return
	}

	metrics.AMQPPublishedMessages.Inc()
}
