package elasticemail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient("test-api-key",
		WithBaseURL(srv.URL),
		WithRelayBaseURL(srv.URL),
		WithTokenBaseURL(srv.URL),
	)
	require.NoError(t, err)
	return client, srv
}

func TestSendEmailPayloadShape(t *testing.T) {
	var captured sendPayload

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails/transactional", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("X-ElasticEmail-ApiKey"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]string{
			"TransactionID": "tx-1",
			"MessageID":     "msg-1",
		})
	}))

	result, err := client.SendEmail(context.Background(), EmailContent{
		From:    Recipient{Email: "noreply@app.test", Name: "App"},
		To:      []Recipient{{Email: "alex@example.com", Name: "Alex"}, {Email: "sam@example.com"}},
		CC:      []Recipient{{Email: "cc@example.com"}},
		Subject: "Hello",
		Body:    Body{HTML: "<b>hi</b>", Text: "hi"},
	})
	require.NoError(t, err)

	assert.Equal(t, "tx-1", result.TransactionID)
	assert.Equal(t, "msg-1", result.MessageID)

	assert.Equal(t, []string{"Alex <alex@example.com>", "sam@example.com"}, captured.Recipients.To)
	assert.Equal(t, []string{"cc@example.com"}, captured.Recipients.CC)
	assert.Equal(t, "App <noreply@app.test>", captured.Content.From)
	require.Len(t, captured.Content.Body, 1)
	assert.Equal(t, "HTML", captured.Content.Body[0].ContentType, "HTML wins over text")
}

func TestSendEmailValidation(t *testing.T) {
	client, err := NewClient("key")
	require.NoError(t, err)

	cases := []struct {
		name    string
		content EmailContent
	}{
		{"missing from", EmailContent{To: []Recipient{{Email: "a@b.c"}}, Subject: "s", Body: Body{Text: "t"}}},
		{"missing recipients", EmailContent{From: Recipient{Email: "a@b.c"}, Subject: "s", Body: Body{Text: "t"}}},
		{"missing subject", EmailContent{From: Recipient{Email: "a@b.c"}, To: []Recipient{{Email: "d@e.f"}}, Body: Body{Text: "t"}}},
		{"missing body", EmailContent{From: Recipient{Email: "a@b.c"}, To: []Recipient{{Email: "d@e.f"}}, Subject: "s"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.SendEmail(context.Background(), tc.content)
			assert.True(t, IsValidationError(err), "expected validation error, got %v", err)
		})
	}
}

func TestRequestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"TransactionID": "tx-2", "MessageID": "msg-2"})
	}))

	result, err := client.SendEmail(context.Background(), EmailContent{
		From:    Recipient{Email: "noreply@app.test"},
		To:      []Recipient{{Email: "alex@example.com"}},
		Subject: "Hello",
		Body:    Body{Text: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-2", result.TransactionID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRequestDoesNotRetryAuthFailures(t *testing.T) {
	var calls atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid api key"})
	}))

	_, err := client.SendEmail(context.Background(), EmailContent{
		From:    Recipient{Email: "noreply@app.test"},
		To:      []Recipient{{Email: "alex@example.com"}},
		Subject: "Hello",
		Body:    Body{Text: "hi"},
	})
	assert.True(t, IsAuthenticationError(err))
	assert.Equal(t, int32(1), calls.Load(), "4xx responses are permanent")
}
