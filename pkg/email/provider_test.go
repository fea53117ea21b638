package email_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/dispatch"
	"github.com/dmitrymomot/notifykit/pkg/email"
)

func TestProviderSend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	msg := dispatch.Message{Title: "Invoice ready", Body: "Your invoice is attached.", AnalyticsLabel: "billing"}

	t.Run("nil sender", func(t *testing.T) {
		t.Parallel()

		provider, err := email.NewProvider(nil)
		require.ErrorIs(t, err, email.ErrInvalidConfig)
		assert.Nil(t, provider)
	})

	t.Run("maps message to email params", func(t *testing.T) {
		t.Parallel()

		sender := &MockEmailSender{}
		sender.On("SendEmail", mock.Anything, mock.MatchedBy(func(p email.SendEmailParams) bool {
			return p.SendTo == "user@example.com" &&
				p.Subject == "Invoice ready" &&
				p.Tag == "billing"
		})).Return(nil)

		provider, err := email.NewProvider(sender)
		require.NoError(t, err)

		res, err := provider.Send(ctx, "user@example.com", msg)
		require.NoError(t, err)
		assert.True(t, res.Success)
		sender.AssertExpectations(t)
	})

	t.Run("multicast reports per address", func(t *testing.T) {
		t.Parallel()

		sender := &MockEmailSender{}
		sender.On("SendEmail", mock.Anything, mock.MatchedBy(func(p email.SendEmailParams) bool {
			return p.SendTo == "bad@example.com"
		})).Return(errors.New("bounced"))
		sender.On("SendEmail", mock.Anything, mock.Anything).Return(nil)

		provider, err := email.NewProvider(sender)
		require.NoError(t, err)

		results, err := provider.SendMulticast(ctx, []string{"ok@example.com", "bad@example.com"}, msg)
		require.NoError(t, err)
		assert.True(t, results["ok@example.com"].Success)
		assert.False(t, results["bad@example.com"].Success)
		assert.Contains(t, results["bad@example.com"].Error, "bounced")
	})

	t.Run("topics unsupported", func(t *testing.T) {
		t.Parallel()

		provider, err := email.NewProvider(&MockEmailSender{})
		require.NoError(t, err)

		_, err = provider.SendToTopic(ctx, "deals", msg)
		require.ErrorIs(t, err, email.ErrTopicsUnsupported)
		require.ErrorIs(t, provider.SubscribeToTopic(ctx, []string{"a@b.co"}, "deals"), email.ErrTopicsUnsupported)
	})

	t.Run("validates address format", func(t *testing.T) {
		t.Parallel()

		provider, err := email.NewProvider(&MockEmailSender{})
		require.NoError(t, err)

		ok, err := provider.ValidateAddress(ctx, "user@example.com")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = provider.ValidateAddress(ctx, "not-an-email")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
