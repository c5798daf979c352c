package lib

import (
	"log"
	"os"
	"strconv"

	"github.com/wneessen/go-mail"
)

func SMTPConfigured() bool {
	return os.Getenv("SMTP_HOST") != ""
}

func GetSMTPClient() (*mail.Client, error) {
	host := os.Getenv("SMTP_HOST")
	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
		port = p
	}
	user := os.Getenv("SMTP_USERNAME")
	pass := os.Getenv("SMTP_PASSWORD")
	c, err := mail.NewClient(host, mail.WithPort(port), mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(user), mail.WithPassword(pass))
	if err != nil {
		log.Printf("Could not initialize smtp client: %s\n", err.Error())
		return nil, err
	}
	return c, nil
}

// SMTPSendMail delivers one message over the configured SMTP transport.
// One attempt, no retries.
func SMTPSendMail(input *SendMailInput) SendResult {
	if !SMTPConfigured() {
		return SendResult{Provider: "smtp", ErrorCode: ErrCodeNoEmailProvider, Error: "smtp transport not configured"}
	}
	c, err := GetSMTPClient()
	if err != nil {
		return SendResult{Provider: "smtp", ErrorCode: ErrCodeSendFailed, Error: err.Error()}
	}
	msg := mail.NewMsg()
	if err := msg.FromFormat(input.FromName, input.From); err != nil {
		log.Printf("Failed to set From address: %s\n", err.Error())
		return SendResult{Provider: "smtp", ErrorCode: ErrCodeSendFailed, Error: err.Error()}
	}
	if err := msg.To(input.To...); err != nil {
		log.Printf("Failed to set To address: %s\n", err.Error())
		return SendResult{Provider: "smtp", ErrorCode: ErrCodeSendFailed, Error: err.Error()}
	}
	if input.ReplyTo != "" {
		if err := msg.ReplyTo(input.ReplyTo); err != nil {
			log.Printf("Failed to set Reply-To address: %s\n", err.Error())
		}
	}
	msg.Subject(input.Subject)
	if input.HTML != "" {
		msg.SetBodyString(mail.TypeTextHTML, input.HTML)
		if input.Text != "" {
			msg.AddAlternativeString(mail.TypeTextPlain, input.Text)
		}
	} else {
		msg.SetBodyString(mail.TypeTextPlain, input.Text)
	}
	if err := c.DialAndSend(msg); err != nil {
		log.Printf("[smtp] Error sending email: %s\n", err.Error())
		return SendResult{Provider: "smtp", ErrorCode: ErrCodeSendFailed, Error: err.Error()}
	}
	return SendResult{Ok: true, Provider: "smtp", ProviderMessageID: msg.GetMessageID()}
}
