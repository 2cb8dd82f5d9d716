package elasticemail

// Recipient is an email address with an optional display name.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Body carries the message content; at least one of HTML or Text is required.
type Body struct {
	HTML string `json:"html,omitempty"`
	Text string `json:"text,omitempty"`
}

// Attachment is a base64 encoded file to attach.
type Attachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"` // base64
	ContentType string `json:"content_type"`
}

// EmailContent describes a transactional email.
type EmailContent struct {
	From        Recipient
	To          []Recipient
	CC          []Recipient
	BCC         []Recipient
	Subject     string
	Body        Body
	ReplyTo     *Recipient
	Attachments []Attachment
}

// TemplateContent describes an email rendered from a stored template.
type TemplateContent struct {
	From         Recipient
	To           []Recipient
	CC           []Recipient
	BCC          []Recipient
	TemplateName string
	TemplateData map[string]string
	ReplyTo      *Recipient
}

// SendResult identifies an accepted message.
type SendResult struct {
	TransactionID string `json:"transaction_id"`
	MessageID     string `json:"message_id"`
}

// Account is the Elastic Email account behind an API key.
type Account struct {
	Email           string
	PublicAccountID string
	IsSubAccount    bool
	Reputation      float64
}

// SMTPCredentials is the relay endpoint configuration for an account. The
// password is minted separately through GenerateSMTPCredential.
type SMTPCredentials struct {
	Username   string `json:"username"`
	Server     string `json:"server"`
	Port       int    `json:"port"`
	TLSEnabled bool   `json:"tls_enabled"`
}

// EmailStatusInfo is the delivery state of a sent message.
type EmailStatusInfo struct {
	Status        string `json:"status"`
	Date          string `json:"date"`
	Recipient     string `json:"recipient"`
	MessageID     string `json:"message_id"`
	TransactionID string `json:"transaction_id"`
}

// ActivityOptions filters the activity log query.
type ActivityOptions struct {
	Status string
	Limit  int
	Offset int
	From   string
	To     string
}

// Activity is one entry of the account's send log.
type Activity struct {
	TransactionID string `json:"transaction_id"`
	MessageID     string `json:"message_id"`
	To            string `json:"to"`
	From          string `json:"from"`
	Subject       string `json:"subject"`
	Status        string `json:"status"`
	Date          string `json:"date"`
	Channel       string `json:"channel"`
}
