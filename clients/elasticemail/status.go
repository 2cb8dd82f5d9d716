package elasticemail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// The events endpoint is inconsistent about field names across event kinds,
// so decode loosely and pick the first populated variant.
type eventResponse struct {
	Status     string `json:"Status"`
	EventType  string `json:"EventType"`
	Date       string `json:"Date"`
	OccurredOn string `json:"OccurredOn"`
	To         string `json:"To"`
	Recipient  string `json:"Recipient"`
	From       string `json:"From"`
	Subject    string `json:"Subject"`
	MessageID  string `json:"MessageID"`
	Channel    string `json:"Channel"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetEmailStatus returns the delivery state of a message by transaction id.
func (c *Client) GetEmailStatus(ctx context.Context, transactionID string) (*EmailStatusInfo, error) {
	if transactionID == "" {
		return nil, &ValidationError{APIError{StatusCode: 400, Message: "Transaction ID is required"}}
	}

	var raw json.RawMessage
	if err := c.get(ctx, "/events/"+url.PathEscape(transactionID), &raw); err != nil {
		return nil, err
	}

	// The endpoint may answer with a single event or an array of them.
	var event eventResponse
	var events []eventResponse
	if err := json.Unmarshal(raw, &events); err == nil && len(events) > 0 {
		event = events[0]
	} else if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event for transaction %s: %w", transactionID, err)
	}

	return &EmailStatusInfo{
		Status:        firstNonEmpty(event.Status, event.EventType, "Unknown"),
		Date:          firstNonEmpty(event.Date, event.OccurredOn, time.Now().UTC().Format(time.RFC3339)),
		Recipient:     firstNonEmpty(event.To, event.Recipient),
		MessageID:     firstNonEmpty(event.MessageID, transactionID),
		TransactionID: transactionID,
	}, nil
}

// GetEmailActivity returns entries from the account's send log.
func (c *Client) GetEmailActivity(ctx context.Context, opts ActivityOptions) ([]Activity, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.From != "" {
		params.Set("from", opts.From)
	}
	if opts.To != "" {
		params.Set("to", opts.To)
	}

	endpoint := "/events"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var events []eventResponse
	if err := c.get(ctx, endpoint, &events); err != nil {
		return nil, err
	}

	activity := make([]Activity, 0, len(events))
	for _, e := range events {
		activity = append(activity, Activity{
			MessageID: e.MessageID,
			To:        firstNonEmpty(e.To, e.Recipient),
			From:      e.From,
			Subject:   e.Subject,
			Status:    firstNonEmpty(e.Status, e.EventType),
			Date:      firstNonEmpty(e.Date, e.OccurredOn),
			Channel:   e.Channel,
		})
	}
	return activity, nil
}
