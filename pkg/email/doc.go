// Package email provides a provider-agnostic interface for sending
// transactional emails with built-in support for Postmark, plus an
// adapter that plugs email in as a regular dispatch channel.
//
// The package follows a few principles:
//   - Zero-config defaults with explicit configuration
//   - Provider abstraction for easy vendor switching
//   - Modern error handling with sentinel errors
//
// # Architecture
//
// The package is built around the EmailSender interface, allowing
// different email providers to be swapped without changing application
// code. Currently supported:
//   - PostmarkClient for production email delivery with tracking
//   - DevSender for local development (saves emails to disk)
//
// All implementations validate email parameters before sending and
// provide consistent error handling across providers.
//
// # Usage
//
// Basic email sending with Postmark:
//
//	import "github.com/dmitrymomot/notifykit/pkg/email"
//
//	cfg := email.Config{
//	    PostmarkServerToken:  "your-server-token",
//	    PostmarkAccountToken: "your-account-token",
//	    SenderEmail:          "noreply@example.com",
//	    SupportEmail:         "support@example.com",
//	}
//
//	sender, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//	    // handle error
//	}
//
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "Welcome!",
//	    BodyHTML: "<h1>Hello</h1>",
//	    Tag:      "welcome",
//	})
//
// Wiring email as a dispatch channel:
//
//	provider, err := email.NewProvider(sender)
//	engine, err := dispatch.NewEngine(directory,
//	    dispatch.WithProvider(dispatch.ChannelEmail, provider),
//	)
//
// For local development, DevSender writes each email to disk as an HTML
// file with a JSON metadata sidecar instead of calling a provider.
package email
