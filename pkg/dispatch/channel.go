package dispatch

// Channel is the closed set of delivery channels. The explicit tag replaces
// per-channel duck typing: audience resolution and message building are
// selected by this value, never by probing for capabilities.
type Channel string

const (
	ChannelPush     Channel = "push"
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Valid reports whether the channel is one of the known variants.
func (c Channel) Valid() bool {
	switch c {
	case ChannelPush, ChannelEmail, ChannelSMS, ChannelWhatsApp:
		return true
	}
	return false
}

func (c Channel) String() string {
	return string(c)
}
