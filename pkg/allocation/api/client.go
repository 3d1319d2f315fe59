// Package api is a client for the allocation API, which serves the
// distributor, amount and proof of each claimant.
package api

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/distributor-client/pkg/allocation"
	"github.com/code-payments/distributor-client/pkg/metrics"
	"github.com/code-payments/distributor-client/pkg/rate"
	"github.com/code-payments/distributor-client/pkg/solana"
)

const (
	metricsStructName = "allocation.api.client"

	userPathFormat = "/distributor/user/"
	defaultTimeout = 15 * time.Second
)

var (
	// ErrNoAllocation indicates the API has no allocation for the claimant.
	ErrNoAllocation = errors.New("no allocation")
)

// StatusError is returned for any non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("received non-200 status code: %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	log        *logrus.Entry
	baseURL    string
	host       string
	httpClient *http.Client
	limiter    rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimiter throttles requests per API host.
func WithRateLimiter(limiter rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid api url %q", baseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.Errorf("invalid api url %q: expected http or https", baseURL)
	}

	c := &Client{
		log:     logrus.StandardLogger().WithField("type", "allocation/api"),
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    parsed.Host,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: &rate.NoLimiter{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetAllocation fetches the allocation of claimant. A response without a
// merkle tree returns ErrNoAllocation. Failures are not retried.
func (c *Client) GetAllocation(ctx context.Context, claimant ed25519.PublicKey) (*allocation.Record, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetAllocation")
	defer tracer.End()

	address := base58.Encode(claimant)
	tracer.AddAttribute("claimant", address)

	record, err := c.getAllocation(ctx, claimant, address)
	if err != nil && err != ErrNoAllocation {
		tracer.OnError(err)
	}
	return record, err
}

func (c *Client) getAllocation(ctx context.Context, claimant ed25519.PublicKey, address string) (*allocation.Record, error) {
	if err := c.limiter.Wait(ctx, c.host); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+userPathFormat+address, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch allocation of %s", address)
	}
	defer httpResp.Body.Close()

	var body bytes.Buffer
	if _, err := body.ReadFrom(httpResp.Body); err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: httpResp.StatusCode, Body: truncate(body.String(), 256)}
	}

	var resp response
	if err := json.Unmarshal(body.Bytes(), &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to decode allocation of %s", address)
	}

	record, err := resp.toRecord(claimant)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid allocation of %s", address)
	}
	if !record.HasAllocation() {
		c.log.WithField("claimant", address).Debug("no allocation")
		return nil, ErrNoAllocation
	}
	return record, nil
}

type response struct {
	MerkleTree *string `json:"merkle_tree"`
	Amount     amount  `json:"amount"`
	Proof      [][]int `json:"proof"`
}

func (r *response) toRecord(claimant ed25519.PublicKey) (*allocation.Record, error) {
	record := &allocation.Record{
		Claimant: claimant,
	}
	if r.MerkleTree == nil || len(*r.MerkleTree) == 0 {
		return record, nil
	}

	tree, err := solana.ParsePublicKey(*r.MerkleTree)
	if err != nil {
		return nil, err
	}
	record.MerkleTree = tree
	record.Amount = uint64(r.Amount)

	record.Proof = make([][32]byte, len(r.Proof))
	for i, node := range r.Proof {
		if len(node) != 32 {
			return nil, errors.Errorf("proof node %d has %d bytes", i, len(node))
		}
		for j, v := range node {
			if v < 0 || v > 255 {
				return nil, errors.Errorf("proof node %d byte %d out of range", i, j)
			}
			record.Proof[i][j] = byte(v)
		}
	}

	return record, nil
}

// amount accepts a JSON number or a numeric string holding a non-negative
// integer.
type amount uint64

func (a *amount) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "null" || len(raw) == 0 {
		*a = 0
		return nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid amount %s", raw)
	}
	if d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return errors.Errorf("invalid amount %s", raw)
	}

	v := d.BigInt()
	if !v.IsUint64() {
		return errors.Errorf("amount %s overflows", raw)
	}

	*a = amount(v.Uint64())
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
