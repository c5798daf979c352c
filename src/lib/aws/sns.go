package aws

import (
	"context"
	"log"
	"os"
	"strings"

	"farmstay/src/lib"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

func SNSConfigured() bool {
	return os.Getenv("SMS_FROM_NUMBER") != ""
}

func GetSNSClient() *sns.Client {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Printf("Error loading default config: %s\n", err.Error())
		return nil
	}
	return sns.NewFromConfig(cfg)
}

// SNSSendSMS publishes one SMS to a phone number. The configured
// origination number must be in international format; a bad value fails
// fast before any network call. One attempt, no retries.
func SNSSendSMS(ctx context.Context, input *lib.SendSMSInput) lib.SendResult {
	from := os.Getenv("SMS_FROM_NUMBER")
	if from == "" {
		return lib.SendResult{Provider: "sns", ErrorCode: lib.ErrCodeNoSMSProvider, Error: "sms origination number not configured"}
	}
	if !strings.HasPrefix(from, "+") {
		return lib.SendResult{Provider: "sns", ErrorCode: lib.ErrCodeSMSFromInvalid, Error: "sms origination number must start with +"}
	}
	c := GetSNSClient()
	if c == nil {
		return lib.SendResult{Provider: "sns", ErrorCode: lib.ErrCodeSendFailed, Error: "could not initialize sns client"}
	}
	pub := &sns.PublishInput{
		PhoneNumber: awssdk.String(input.To),
		Message:     awssdk.String(input.Body),
	}
	if sender := os.Getenv("SMS_SENDER_ID"); sender != "" {
		pub.MessageAttributes = map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(sender),
			},
		}
	}
	out, err := c.Publish(ctx, pub)
	if err != nil {
		log.Printf("[sns] Error publishing SMS to %s: %s\n", input.To, err.Error())
		return lib.SendResult{Provider: "sns", ErrorCode: lib.ErrCodeSendFailed, Error: err.Error()}
	}
	return lib.SendResult{Ok: true, Provider: "sns", ProviderMessageID: awssdk.ToString(out.MessageId)}
}
