package elasticemail

import (
	"context"
	"fmt"
)

// formatRecipient renders an address as "Name <email>" for the v4 API.
func formatRecipient(r Recipient) string {
	if r.Name != "" {
		return fmt.Sprintf("%s <%s>", r.Name, r.Email)
	}
	return r.Email
}

func formatRecipients(rs []Recipient) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = formatRecipient(r)
	}
	return out
}

// The v4 API uses PascalCase field names.
type sendPayload struct {
	Recipients payloadRecipients `json:"Recipients"`
	Content    payloadContent    `json:"Content"`
}

type payloadRecipients struct {
	To  []string `json:"To"`
	CC  []string `json:"CC,omitempty"`
	BCC []string `json:"BCC,omitempty"`
}

type payloadContent struct {
	From         string              `json:"From"`
	Subject      string              `json:"Subject,omitempty"`
	Body         []payloadBodyPart   `json:"Body,omitempty"`
	ReplyTo      string              `json:"ReplyTo,omitempty"`
	TemplateName string              `json:"TemplateName,omitempty"`
	Merge        map[string]string   `json:"Merge,omitempty"`
	Attachments  []payloadAttachment `json:"Attachments,omitempty"`
}

type payloadBodyPart struct {
	ContentType string `json:"ContentType"`
	Content     string `json:"Content"`
}

type payloadAttachment struct {
	BinaryContent string `json:"BinaryContent"`
	Name          string `json:"Name"`
	ContentType   string `json:"ContentType"`
}

type sendResponse struct {
	TransactionID string `json:"TransactionID"`
	MessageID     string `json:"MessageID"`
}

// SendEmail submits a transactional email and returns its transaction and
// message ids.
func (c *Client) SendEmail(ctx context.Context, content EmailContent) (*SendResult, error) {
	if content.From.Email == "" {
		return nil, &ValidationError{APIError{StatusCode: 400, Message: "From email is required"}}
	}
	if len(content.To) == 0 {
		return nil, &ValidationError{APIError{StatusCode: 400, Message: "At least one recipient is required"}}
	}
	if content.Subject == "" {
		return nil, &ValidationError{APIError{StatusCode: 400, Message: "Subject is required"}}
	}
	if content.Body.HTML == "" && content.Body.Text == "" {
		return nil, &ValidationError{APIError{StatusCode: 400, Message: "Email body (HTML or text) is required"}}
	}

	payload := sendPayload{
		Recipients: payloadRecipients{
			To:  formatRecipients(content.To),
			CC:  formatRecipients(content.CC),
			BCC: formatRecipients(content.BCC),
		},
		Content: payloadContent{
			From:    formatRecipient(content.From),
			Subject: content.Subject,
		},
	}

	// HTML takes precedence when both parts are present.
	if content.Body.HTML != "" {
		payload.Content.Body = []payloadBodyPart{{ContentType: "HTML", Content: content.Body.HTML}}
	} else {
		payload.Content.Body = []payloadBodyPart{{ContentType: "PlainText", Content: content.Body.Text}}
	}
	if content.ReplyTo != nil {
		payload.Content.ReplyTo = formatRecipient(*content.ReplyTo)
	}
	for _, att := range content.Attachments {
		payload.Content.Attachments = append(payload.Content.Attachments, payloadAttachment{
			BinaryContent: att.Content,
			Name:          att.Filename,
			ContentType:   att.ContentType,
		})
	}

	var resp sendResponse
	if err := c.post(ctx, "/emails/transactional", payload, &resp); err != nil {
		return nil, err
	}
	return &SendResult{TransactionID: resp.TransactionID, MessageID: resp.MessageID}, nil
}

// SendTemplate submits an email rendered from a stored template.
func (c *Client) SendTemplate(ctx context.Context, content TemplateContent) (*SendResult, error) {
	if content.From.Email == "" {
		return nil, &ValidationError{APIError{StatusCode: 400, Message: "From email is required"}}
	}
	if len(content.To) == 0 {
		return nil, &ValidationError{APIError{StatusCode: 400, Message: "At least one recipient is required"}}
	}
	if content.TemplateName == "" {
		return nil, &ValidationError{APIError{StatusCode: 400, Message: "Template name is required"}}
	}

	payload := sendPayload{
		Recipients: payloadRecipients{
			To:  formatRecipients(content.To),
			CC:  formatRecipients(content.CC),
			BCC: formatRecipients(content.BCC),
		},
		Content: payloadContent{
			From:         formatRecipient(content.From),
			TemplateName: content.TemplateName,
			Merge:        content.TemplateData,
		},
	}
	if content.ReplyTo != nil {
		payload.Content.ReplyTo = formatRecipient(*content.ReplyTo)
	}

	var resp sendResponse
	if err := c.post(ctx, "/emails/transactional", payload, &resp); err != nil {
		return nil, err
	}
	return &SendResult{TransactionID: resp.TransactionID, MessageID: resp.MessageID}, nil
}
