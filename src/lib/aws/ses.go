package aws

import (
	"context"
	"log"
	"os"

	"farmstay/src/lib"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

func SESConfigured() bool {
	return os.Getenv("SES_FROM_ADDRESS") != ""
}

func GetSESClient() *ses.Client {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Printf("Could not load default config: %s\n", err.Error())
		return nil
	}
	svc := ses.NewFromConfig(cfg)
	return svc
}

// SESSendMessage sends one email through SES. One attempt, no retries;
// any failure comes back as a result value, never an error.
func SESSendMessage(ctx context.Context, input *lib.SendMailInput) lib.SendResult {
	if !SESConfigured() {
		return lib.SendResult{Provider: "ses", ErrorCode: lib.ErrCodeNoEmailProvider, Error: "ses sender address not configured"}
	}
	c := GetSESClient()
	if c == nil {
		return lib.SendResult{Provider: "ses", ErrorCode: lib.ErrCodeSendFailed, Error: "could not initialize ses client"}
	}
	body := types.Body{}
	if input.HTML != "" {
		body.Html = &types.Content{Data: awssdk.String(input.HTML)}
	}
	if input.Text != "" {
		body.Text = &types.Content{Data: awssdk.String(input.Text)}
	}
	sesInput := &ses.SendEmailInput{
		Source:      awssdk.String(os.Getenv("SES_FROM_ADDRESS")),
		Destination: &types.Destination{ToAddresses: input.To},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(input.Subject)},
			Body:    &body,
		},
	}
	if input.ReplyTo != "" {
		sesInput.ReplyToAddresses = []string{input.ReplyTo}
	}
	out, err := c.SendEmail(ctx, sesInput)
	if err != nil {
		log.Printf("[ses] Error sending email: %s\n", err.Error())
		return lib.SendResult{Provider: "ses", ErrorCode: lib.ErrCodeSendFailed, Error: err.Error()}
	}
	return lib.SendResult{Ok: true, Provider: "ses", ProviderMessageID: awssdk.ToString(out.MessageId)}
}
