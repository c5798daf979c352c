package lib

// SendResult is the uniform outcome every provider adapter returns.
// Adapters never panic and never propagate provider errors as anything
// other than this value.
type SendResult struct {
	Ok                bool
	Provider          string
	ProviderMessageID string
	ErrorCode         string
	Error             string
}

// Error codes shared by the adapters.
const (
	ErrCodeNoEmailProvider = "NO_EMAIL_PROVIDER_CONFIGURED"
	ErrCodeNoSMSProvider   = "NO_SMS_PROVIDER_CONFIGURED"
	ErrCodeSMSFromInvalid  = "SMS_FROM_INVALID"
	ErrCodeSendFailed      = "SEND_FAILED"
)

type SendMailInput struct {
	From     string
	FromName string
	To       []string
	ReplyTo  string
	Subject  string
	HTML     string
	Text     string
}

type SendSMSInput struct {
	To   string
	Body string
}
