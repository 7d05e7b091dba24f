package teller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, style string) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:      server.URL,
		AccessToken:  "token_abc",
		AuthStyle:    style,
		EnrollmentID: "enr_123",
	})
	assert.NoError(t, err)
	return client
}

func TestAccounts_BasicAuthAndHeaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "token_abc", user)
		assert.Equal(t, "", pass)
		assert.Equal(t, "enr_123", r.Header.Get("X-Enrollment-Id"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		_ = json.NewEncoder(w).Encode([]Account{{ID: "acc_1", Name: "Checking"}})
	}, AuthStyleBasic)

	accounts, err := client.Accounts(context.Background())
	assert.NoError(t, err)
	assert.Len(t, accounts, 1)
	assert.Equal(t, "acc_1", accounts[0].ID)
}

func TestAccounts_BearerAuth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token_abc", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]Account{})
	}, AuthStyleBearer)

	_, err := client.Accounts(context.Background())
	assert.NoError(t, err)
}

func TestAccounts_DataEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"acc_2"}]}`))
	}, AuthStyleBasic)

	accounts, err := client.Accounts(context.Background())
	assert.NoError(t, err)
	assert.Len(t, accounts, 1)
	assert.Equal(t, "acc_2", accounts[0].ID)
}

func TestAccount_Single(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acc_1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Account{ID: "acc_1", LastFour: "6789"})
	}, AuthStyleBasic)

	account, err := client.Account(context.Background(), "acc_1")
	assert.NoError(t, err)
	assert.Equal(t, "6789", account.LastFour)
}

func TestTransactions_FromQuery(t *testing.T) {
	from := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acc_1/transactions", r.URL.Path)
		assert.Equal(t, "2026-08-02", r.URL.Query().Get("from"))
		_, _ = w.Write([]byte(`[{"id":"txn_1","date":"2026-08-03","amount":"-4.50","description":"STARBUCKS"}]`))
	}, AuthStyleBasic)

	transactions, err := client.Transactions(context.Background(), "acc_1", from)
	assert.NoError(t, err)
	assert.Len(t, transactions, 1)
	assert.Equal(t, "txn_1", transactions[0].ID)
	assert.Equal(t, "-4.5", transactions[0].Amount.String())
}

func TestTransactions_BadAmountDoesNotFailResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"txn_1","date":"2026-08-03","amount":"n/a"},{"id":"txn_2","date":"2026-08-03","amount":"-4.50"}]`))
	}, AuthStyleBasic)

	transactions, err := client.Transactions(context.Background(), "acc_1", time.Now())
	assert.NoError(t, err)
	assert.Len(t, transactions, 2)
	assert.True(t, transactions[0].Amount.Invalid)
	assert.Equal(t, "-4.5", transactions[1].Amount.String())
}

func TestGet_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
	}, AuthStyleBasic)

	_, err := client.Accounts(context.Background())
	apiErr := &APIError{}
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "/accounts", apiErr.Path)
	assert.Contains(t, apiErr.Body, "server_error")
}

func TestNewClient_MissingCert(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "https://api.example.com", CertFile: "/nonexistent.pem", KeyFile: "/nonexistent.key"})
	assert.Error(t, err)
}
