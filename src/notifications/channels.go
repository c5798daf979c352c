package notifications

import (
	"context"
	"os"

	"farmstay/src/lib"
	awslib "farmstay/src/lib/aws"
)

// Message is one rendered notification ready for dispatch. Email
// channels use Subject/HTML/Text, SMS channels use Body.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
	Body    string
}

// Channel is one provider in a fallback chain. The orchestrator walks
// the chain in order and stops at the first success.
type Channel interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, msg *Message) lib.SendResult
}

type sesChannel struct{}

func (sesChannel) Name() string     { return "ses" }
func (sesChannel) Configured() bool { return awslib.SESConfigured() }
func (sesChannel) Send(ctx context.Context, msg *Message) lib.SendResult {
	return awslib.SESSendMessage(ctx, &lib.SendMailInput{
		From:     os.Getenv("SES_FROM_ADDRESS"),
		FromName: os.Getenv("EMAIL_FROM_NAME"),
		To:       []string{msg.To},
		ReplyTo:  msg.ReplyTo,
		Subject:  msg.Subject,
		HTML:     msg.HTML,
		Text:     msg.Text,
	})
}

type smtpChannel struct{}

func (smtpChannel) Name() string     { return "smtp" }
func (smtpChannel) Configured() bool { return lib.SMTPConfigured() }
func (smtpChannel) Send(_ context.Context, msg *Message) lib.SendResult {
	from := os.Getenv("SMTP_FROM_ADDRESS")
	if from == "" {
		from = os.Getenv("SES_FROM_ADDRESS")
	}
	return lib.SMTPSendMail(&lib.SendMailInput{
		From:     from,
		FromName: os.Getenv("EMAIL_FROM_NAME"),
		To:       []string{msg.To},
		ReplyTo:  msg.ReplyTo,
		Subject:  msg.Subject,
		HTML:     msg.HTML,
		Text:     msg.Text,
	})
}

type snsChannel struct{}

func (snsChannel) Name() string     { return "sns" }
func (snsChannel) Configured() bool { return awslib.SNSConfigured() }
func (snsChannel) Send(ctx context.Context, msg *Message) lib.SendResult {
	return awslib.SNSSendSMS(ctx, &lib.SendSMSInput{To: msg.To, Body: msg.Body})
}

// DefaultEmailChain is primary-then-fallback: the SES HTTP API first,
// the SMTP transport second.
func DefaultEmailChain() []Channel {
	return []Channel{sesChannel{}, smtpChannel{}}
}

// DefaultSMSChain is a single provider.
func DefaultSMSChain() []Channel {
	return []Channel{snsChannel{}}
}
