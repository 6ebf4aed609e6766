package clerk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	svix "github.com/svix/svix-webhooks/go"
)

const (
	HeaderSvixID        = "svix-id"
	HeaderSvixTimestamp = "svix-timestamp"
	HeaderSvixSignature = "svix-signature"
)

var (
	ErrMissingHeaders   = errors.New("missing svix headers")
	ErrSecretMissing    = errors.New("webhook secret not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

type WebhookHeaders struct {
	ID        string
	Timestamp string
	Signature string
}

func (h WebhookHeaders) Complete() bool {
	return strings.TrimSpace(h.ID) != "" &&
		strings.TrimSpace(h.Timestamp) != "" &&
		strings.TrimSpace(h.Signature) != ""
}

func (h WebhookHeaders) httpHeader() http.Header {
	out := http.Header{}
	out.Set(HeaderSvixID, strings.TrimSpace(h.ID))
	out.Set(HeaderSvixTimestamp, strings.TrimSpace(h.Timestamp))
	out.Set(HeaderSvixSignature, strings.TrimSpace(h.Signature))
	return out
}

// WebhookEvent is the outer envelope of a Clerk webhook delivery.
type WebhookEvent struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

// DeletedObject is the payload of user.deleted.
type DeletedObject struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func newSvix(secret string) (*svix.Webhook, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretMissing
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("decode webhook secret: %w", err)
	}
	return wh, nil
}

// VerifyWebhook checks the svix-signature header against the body. svix
// rejects timestamps more than five minutes away from the local clock.
func VerifyWebhook(secret string, h WebhookHeaders, body []byte) error {
	if !h.Complete() {
		return ErrMissingHeaders
	}
	wh, err := newSvix(secret)
	if err != nil {
		return err
	}
	if err := wh.Verify(body, h.httpHeader()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// SignWebhook produces a svix-signature header value for the given delivery.
func SignWebhook(secret, id string, ts time.Time, body []byte) (string, error) {
	wh, err := newSvix(secret)
	if err != nil {
		return "", err
	}
	return wh.Sign(id, ts, body)
}
