package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

// Input is the Huma input for provider webhook deliveries. The raw body is
// kept for signature verification.
type Input struct {
	Signature    string `header:"Teller-Signature"`
	AltSignature string `header:"X-Teller-Signature"`
	RawBody      []byte
}

// OutputBody is the response body for a webhook delivery.
type OutputBody struct {
	Status       string `json:"status" doc:"enqueued, duplicate or ignored"`
	AccountAPIID string `json:"account_api_id,omitempty" doc:"Provider account id"`
}

// Output is the Huma output for a webhook delivery.
type Output struct {
	Body OutputBody
}

type event struct {
	Type      string `json:"type"`
	AccountID string `json:"account_id"`
	Data      struct {
		AccountID string `json:"account_id"`
	} `json:"data"`
}

// Handler handles POST /teller/webhook.
type Handler struct {
	Jobs   sqlconfig.ISyncJobTable
	Secret string
	Logger *logrus.Logger
}

// NewHandler creates a new webhook Handler.
func NewHandler(jobs sqlconfig.ISyncJobTable, secret string, logger *logrus.Logger) *Handler {
	return &Handler{Jobs: jobs, Secret: secret, Logger: logger}
}

// Register registers the webhook endpoint with the Huma API.
func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:      "teller-webhook",
		Method:           http.MethodPost,
		Path:             "/teller/webhook",
		Summary:          "Teller webhook",
		Description:      "Receives provider events and enqueues account syncs.",
		Tags:             []string{"Webhooks"},
		SkipValidateBody: true,
	}, h.handle)
}

func (h *Handler) handle(ctx context.Context, input *Input) (*Output, error) {
	signature := input.Signature
	if signature == "" {
		signature = input.AltSignature
	}
	if !h.verify(input.RawBody, signature) {
		return nil, huma.NewError(http.StatusUnauthorized, "invalid webhook signature")
	}

	var evt event
	if err := json.Unmarshal(input.RawBody, &evt); err != nil {
		return nil, huma.NewError(http.StatusBadRequest, "invalid webhook body", err)
	}

	accountAPIID := evt.AccountID
	if accountAPIID == "" {
		accountAPIID = evt.Data.AccountID
	}
	if accountAPIID == "" {
		// Enrollment-level events carry no account; acknowledged but not
		// actionable.
		return &Output{Body: OutputBody{Status: "ignored"}}, nil
	}

	enqueued, err := h.Jobs.Enqueue(ctx, accountAPIID, evt.Type)
	if err != nil {
		return nil, huma.NewError(http.StatusInternalServerError, "failed to enqueue sync", err)
	}

	status := "enqueued"
	if !enqueued {
		status = "duplicate"
	}
	h.Logger.WithFields(logrus.Fields{
		"account": accountAPIID,
		"event":   evt.Type,
		"status":  status,
	}).Info("Webhook received")
	return &Output{Body: OutputBody{Status: status, AccountAPIID: accountAPIID}}, nil
}

// verify checks the hex HMAC-SHA256 of the raw body in constant time.
func (h *Handler) verify(body []byte, signature string) bool {
	if h.Secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.Secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
