package dispatch

import "context"

// Limits are a provider's documented per-call address ceilings. Send and
// topic-management calls have distinct ceilings.
type Limits struct {
	Send        int
	TopicManage int
}

// ProviderClient is the generic send/result contract every concrete
// provider (FCM, an SMS gateway, a WhatsApp bridge) adapts to. Provider
// wire formats stay behind this interface.
type ProviderClient interface {
	// Send delivers to a single address. A returned error means the call
	// failed at the transport level; per-address rejection is reported in
	// the result.
	Send(ctx context.Context, address string, msg Message) (SendResult, error)

	// SendMulticast delivers to up to Limits().Send addresses in one
	// provider call and returns a result per address. A returned error
	// means the whole call failed at the transport level.
	SendMulticast(ctx context.Context, addresses []string, msg Message) (map[string]SendResult, error)

	// SendToTopic delivers to a provider topic and returns the provider's
	// message id.
	SendToTopic(ctx context.Context, topic string, msg Message) (string, error)

	// SubscribeToTopic asserts the desired end state; subscribing an
	// already-subscribed address is not an error. At most
	// Limits().TopicManage addresses per call.
	SubscribeToTopic(ctx context.Context, addresses []string, topic string) error

	// UnsubscribeFromTopic removes addresses from a topic, idempotently.
	UnsubscribeFromTopic(ctx context.Context, addresses []string, topic string) error

	// UnsubscribeFromAll removes an address from every topic, e.g. when a
	// user unregisters.
	UnsubscribeFromAll(ctx context.Context, address string) error

	// ValidateAddress checks whether an address is still deliverable.
	ValidateAddress(ctx context.Context, address string) (bool, error)

	// Limits returns the provider's per-call ceilings.
	Limits() Limits
}
