package teller

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	AuthStyleBasic  = "basic"
	AuthStyleBearer = "bearer"

	userAgent      = "ledger-server/0.1 (+https://github.com/carson-networks/ledger-server)"
	requestTimeout = 20 * time.Second
)

// Config holds the connection settings for one provider enrollment.
type Config struct {
	BaseURL      string
	CertFile     string
	KeyFile      string
	CAFile       string
	AccessToken  string
	AuthStyle    string
	EnrollmentID string
}

// Client talks to the Teller API over mutual TLS.
type Client struct {
	baseURL      string
	accessToken  string
	authStyle    string
	enrollmentID string
	httpClient   *http.Client
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("teller %s: status %d: %s", e.Path, e.StatusCode, e.Body)
}

func NewClient(cfg Config) (*Client, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("no certificates in CA bundle")
		}
		tlsConfig.RootCAs = pool
	}

	authStyle := cfg.AuthStyle
	if authStyle == "" {
		authStyle = AuthStyleBasic
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		accessToken:  cfg.AccessToken,
		authStyle:    authStyle,
		enrollmentID: cfg.EnrollmentID,
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		},
	}, nil
}

// Accounts lists all accounts visible to the enrollment.
func (c *Client) Accounts(ctx context.Context) ([]*Account, error) {
	var accounts []*Account
	if err := c.get(ctx, "/accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Account fetches one account by provider id.
func (c *Client) Account(ctx context.Context, id string) (*Account, error) {
	var account Account
	if err := c.get(ctx, "/accounts/"+url.PathEscape(id), nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Transactions fetches transactions for an account from the given date
// onward.
func (c *Client) Transactions(ctx context.Context, accountID string, from time.Time) ([]*Transaction, error) {
	query := url.Values{}
	if !from.IsZero() {
		query.Set("from", from.Format("2006-01-02"))
	}
	var transactions []*Transaction
	err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/transactions", query, &transactions)
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.enrollmentID != "" {
		req.Header.Set("X-Enrollment-Id", c.enrollmentID)
	}
	if c.authStyle == AuthStyleBearer {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	} else {
		req.SetBasicAuth(c.accessToken, "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Path: path, Body: strings.TrimSpace(string(body))}
	}
	return decodeBody(body, out)
}

// decodeBody unwraps the optional {"data": ...} envelope some deployments
// put around responses.
func decodeBody(body []byte, out interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return json.Unmarshal(body, out)
}
