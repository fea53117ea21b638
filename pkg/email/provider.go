package email

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/dispatch"
)

// Provider adapts an EmailSender to the generic dispatch provider
// contract, making email a regular channel next to push and SMS.
type Provider struct {
	sender EmailSender
	limits dispatch.Limits
}

// NewProvider creates a dispatch provider over an email sender.
func NewProvider(sender EmailSender) (*Provider, error) {
	if sender == nil {
		return nil, fmt.Errorf("%w: sender is required", ErrInvalidConfig)
	}
	return &Provider{
		sender: sender,
		// Email has no true multicast API; batches just bound the
		// per-dispatch fan-out.
		limits: dispatch.Limits{Send: 50, TopicManage: 0},
	}, nil
}

func (p *Provider) Limits() dispatch.Limits { return p.limits }

func (p *Provider) Send(ctx context.Context, address string, msg dispatch.Message) (dispatch.SendResult, error) {
	err := p.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   address,
		Subject:  msg.Title,
		BodyHTML: renderBody(msg),
		Tag:      msg.AnalyticsLabel,
	})
	if err != nil {
		return dispatch.SendResult{Success: false, Error: err.Error()}, nil
	}
	return dispatch.SendResult{Success: true}, nil
}

// SendMulticast sends one email per address. Individual failures are
// reported per address; the call itself only fails on context
// cancellation.
func (p *Provider) SendMulticast(ctx context.Context, addresses []string, msg dispatch.Message) (map[string]dispatch.SendResult, error) {
	results := make(map[string]dispatch.SendResult, len(addresses))
	for _, address := range addresses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, _ := p.Send(ctx, address, msg)
		results[address] = res
	}
	return results, nil
}

// SendToTopic is not supported: email has no topic fan-out.
func (p *Provider) SendToTopic(ctx context.Context, topic string, msg dispatch.Message) (string, error) {
	return "", ErrTopicsUnsupported
}

func (p *Provider) SubscribeToTopic(ctx context.Context, addresses []string, topic string) error {
	return ErrTopicsUnsupported
}

func (p *Provider) UnsubscribeFromTopic(ctx context.Context, addresses []string, topic string) error {
	return ErrTopicsUnsupported
}

func (p *Provider) UnsubscribeFromAll(ctx context.Context, address string) error {
	return ErrTopicsUnsupported
}

func (p *Provider) ValidateAddress(ctx context.Context, address string) (bool, error) {
	return emailRegex.MatchString(address), nil
}

// renderBody turns a dispatch message into a minimal HTML email body.
// Rich layouts belong to the template layer upstream.
func renderBody(msg dispatch.Message) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	if msg.Title != "" {
		sb.WriteString("<h2>" + html.EscapeString(msg.Title) + "</h2>")
	}
	for _, line := range strings.Split(msg.Body, "\n") {
		sb.WriteString("<p>" + html.EscapeString(line) + "</p>")
	}
	if msg.ImageURL != "" {
		sb.WriteString(`<img src="` + html.EscapeString(msg.ImageURL) + `" alt=""/>`)
	}
	if msg.ActionURL != "" {
		sb.WriteString(`<p><a href="` + html.EscapeString(msg.ActionURL) + `">Open</a></p>`)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}
