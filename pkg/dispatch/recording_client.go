package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// RecordingClient implements ProviderClient for local development and
// tests. It records every call in memory instead of hitting a provider,
// and can be scripted to fail specific addresses or whole multicast
// batches.
type RecordingClient struct {
	mu sync.Mutex

	limits        Limits
	failAddresses map[string]string
	failBatches   map[int]error
	batchIndex    int
	sendCount     int

	Sent          []RecordedSend
	TopicSends    []RecordedTopicSend
	Subscriptions []RecordedTopicChange
}

// RecordedSend is one address delivery attempt seen by the client.
type RecordedSend struct {
	Address string
	Message Message
	Batch   int
}

// RecordedTopicSend is one topic delivery attempt seen by the client.
type RecordedTopicSend struct {
	Topic   string
	Message Message
}

// RecordedTopicChange is one subscribe/unsubscribe call seen by the client.
type RecordedTopicChange struct {
	Topic     string
	Addresses []string
	Subscribe bool
}

// RecordingOption configures a RecordingClient.
type RecordingOption func(*RecordingClient)

// WithLimits overrides the client's batch limits.
func WithLimits(limits Limits) RecordingOption {
	return func(c *RecordingClient) {
		c.limits = limits
	}
}

// FailAddress scripts a per-address failure with the given error text.
func FailAddress(address, errText string) RecordingOption {
	return func(c *RecordingClient) {
		c.failAddresses[address] = errText
	}
}

// FailBatch scripts a transport-level failure for the nth multicast call
// (zero-based).
func FailBatch(n int, err error) RecordingOption {
	return func(c *RecordingClient) {
		c.failBatches[n] = err
	}
}

// NewRecordingClient creates an in-memory provider client.
func NewRecordingClient(opts ...RecordingOption) *RecordingClient {
	c := &RecordingClient{
		limits:        Limits{Send: 500, TopicManage: 1000},
		failAddresses: make(map[string]string),
		failBatches:   make(map[int]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RecordingClient) Limits() Limits { return c.limits }

func (c *RecordingClient) Send(ctx context.Context, address string, msg Message) (SendResult, error) {
	results, err := c.SendMulticast(ctx, []string{address}, msg)
	if err != nil {
		return SendResult{}, err
	}
	return results[address], nil
}

func (c *RecordingClient) SendMulticast(ctx context.Context, addresses []string, msg Message) (map[string]SendResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch := c.batchIndex
	c.batchIndex++

	if err, ok := c.failBatches[batch]; ok {
		return nil, err
	}

	results := make(map[string]SendResult, len(addresses))
	for _, address := range addresses {
		c.Sent = append(c.Sent, RecordedSend{Address: address, Message: msg, Batch: batch})
		if errText, ok := c.failAddresses[address]; ok {
			results[address] = SendResult{Success: false, Error: errText}
			continue
		}
		c.sendCount++
		results[address] = SendResult{Success: true, ExternalID: fmt.Sprintf("dev-%d", c.sendCount)}
	}
	return results, nil
}

func (c *RecordingClient) SendToTopic(ctx context.Context, topic string, msg Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.TopicSends = append(c.TopicSends, RecordedTopicSend{Topic: topic, Message: msg})
	c.sendCount++
	return fmt.Sprintf("dev-topic-%d", c.sendCount), nil
}

func (c *RecordingClient) SubscribeToTopic(ctx context.Context, addresses []string, topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Subscriptions = append(c.Subscriptions, RecordedTopicChange{Topic: topic, Addresses: addresses, Subscribe: true})
	return nil
}

func (c *RecordingClient) UnsubscribeFromTopic(ctx context.Context, addresses []string, topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Subscriptions = append(c.Subscriptions, RecordedTopicChange{Topic: topic, Addresses: addresses, Subscribe: false})
	return nil
}

func (c *RecordingClient) UnsubscribeFromAll(ctx context.Context, address string) error {
	return nil
}

// ValidateAddress accepts any non-blank address.
func (c *RecordingClient) ValidateAddress(ctx context.Context, address string) (bool, error) {
	return strings.TrimSpace(address) != "", nil
}

// Batches returns the number of multicast calls made so far.
func (c *RecordingClient) Batches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batchIndex
}
