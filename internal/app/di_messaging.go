package app

import (
	"fmt"

	"github.com/allisson/storefront/internal/config"
	"github.com/allisson/storefront/internal/messaging"
)

// Publisher returns the message channel publisher selected by MESSAGING_DRIVER.
func (c *Container) Publisher() (messaging.Publisher, error) {
	c.publisherInit.Do(func() {
		c.publisher, c.initErrors["publisher"] = c.initPublisher()
	})
	return c.publisher, c.initErrors["publisher"]
}

// Subscriber returns the message channel subscriber selected by MESSAGING_DRIVER.
func (c *Container) Subscriber() (messaging.Subscriber, error) {
	c.subscriberInit.Do(func() {
		c.subscriber, c.initErrors["subscriber"] = c.initSubscriber()
	})
	return c.subscriber, c.initErrors["subscriber"]
}

func (c *Container) retryPolicy() messaging.RetryPolicy {
	return messaging.RetryPolicy{
		MaxAttempts: c.config.ConsumerMaxAttempts,
		Backoff:     c.config.ConsumerRetryBackoff,
	}
}

func (c *Container) kafkaConfig() messaging.KafkaConfig {
	return messaging.KafkaConfig{
		Brokers: c.config.GetKafkaBrokers(),
		Topic:   c.config.KafkaTopic,
		GroupID: c.config.KafkaGroupID,
		Retry:   c.retryPolicy(),
	}
}

func (c *Container) initPublisher() (messaging.Publisher, error) {
	switch c.config.MessagingDriver {
	case config.MessagingDriverKafka:
		if len(c.config.GetKafkaBrokers()) == 0 {
			return nil, fmt.Errorf("no kafka brokers configured")
		}
		return messaging.NewKafkaPublisher(c.kafkaConfig()), nil
	case config.MessagingDriverPubSub:
		publisher, err := messaging.OpenPubSubPublisher(c.ctx, c.config.PubSubTopicURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open topic %q: %w", c.config.PubSubTopicURL, err)
		}
		return publisher, nil
	default:
		return nil, fmt.Errorf("unsupported messaging driver: %s", c.config.MessagingDriver)
	}
}

func (c *Container) initSubscriber() (messaging.Subscriber, error) {
	switch c.config.MessagingDriver {
	case config.MessagingDriverKafka:
		if len(c.config.GetKafkaBrokers()) == 0 {
			return nil, fmt.Errorf("no kafka brokers configured")
		}
		return messaging.NewKafkaSubscriber(c.kafkaConfig(), c.Logger()), nil
	case config.MessagingDriverPubSub:
		subscriber, err := messaging.OpenPubSubSubscriber(
			c.ctx,
			c.config.PubSubSubscriptionURL,
			c.retryPolicy(),
			c.Logger(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open subscription %q: %w", c.config.PubSubSubscriptionURL, err)
		}
		return subscriber, nil
	default:
		return nil, fmt.Errorf("unsupported messaging driver: %s", c.config.MessagingDriver)
	}
}
