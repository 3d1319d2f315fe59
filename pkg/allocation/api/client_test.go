package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/distributor-client/pkg/rate"
	"github.com/code-payments/distributor-client/pkg/solana"
	_ "github.com/code-payments/distributor-client/pkg/testutil"
)

const (
	testClaimant    = "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM"
	testDistributor = "J7cV46t2BLkoHWvmrcG1nK3wgB2D1EmHLko29bEDbnpV"
)

func proofJSON(values ...byte) string {
	var nodes []string
	for _, v := range values {
		bytes := make([]string, 32)
		for i := range bytes {
			bytes[i] = fmt.Sprintf("%d", v)
		}
		nodes = append(nodes, "["+strings.Join(bytes, ",")+"]")
	}
	return "[" + strings.Join(nodes, ",") + "]"
}

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL + "/")
	require.NoError(t, err)
	return client
}

func TestGetAllocation(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/distributor/user/"+testClaimant, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		fmt.Fprintf(w, `{"merkle_tree":%q,"amount":50000,"proof":%s}`, testDistributor, proofJSON(1, 2))
	})

	record, err := client.GetAllocation(context.Background(), solana.MustParsePublicKey(testClaimant))
	require.NoError(t, err)
	assert.Equal(t, testClaimant, base58.Encode(record.Claimant))
	assert.Equal(t, testDistributor, base58.Encode(record.MerkleTree))
	assert.True(t, record.HasAllocation())
	assert.EqualValues(t, 50000, record.Amount)
	require.Len(t, record.Proof, 2)
	assert.EqualValues(t, 1, record.Proof[0][0])
	assert.EqualValues(t, 2, record.Proof[1][31])
}

func TestGetAllocation_StringAmount(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"merkle_tree":%q,"amount":"18446744073709551615","proof":[]}`, testDistributor)
	})

	record, err := client.GetAllocation(context.Background(), solana.MustParsePublicKey(testClaimant))
	require.NoError(t, err)
	assert.EqualValues(t, uint64(18446744073709551615), record.Amount)
	assert.Empty(t, record.Proof)
}

func TestGetAllocation_NoAllocation(t *testing.T) {
	for _, body := range []string{
		`{"amount":0,"proof":[]}`,
		`{"merkle_tree":null}`,
		`{"merkle_tree":""}`,
	} {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		})

		_, err := client.GetAllocation(context.Background(), solana.MustParsePublicKey(testClaimant))
		assert.Equal(t, ErrNoAllocation, err, body)
	}
}

func TestGetAllocation_Errors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		body   string
	}{
		{"non-200", http.StatusInternalServerError, "down"},
		{"malformed", http.StatusOK, "{"},
		{"bad tree", http.StatusOK, `{"merkle_tree":"xyz","amount":1,"proof":[]}`},
		{"negative amount", http.StatusOK, fmt.Sprintf(`{"merkle_tree":%q,"amount":-1,"proof":[]}`, testDistributor)},
		{"fractional amount", http.StatusOK, fmt.Sprintf(`{"merkle_tree":%q,"amount":1.5,"proof":[]}`, testDistributor)},
		{"short proof node", http.StatusOK, fmt.Sprintf(`{"merkle_tree":%q,"amount":1,"proof":[[1,2]]}`, testDistributor)},
		{"proof byte range", http.StatusOK, fmt.Sprintf(`{"merkle_tree":%q,"amount":1,"proof":%s}`, testDistributor, strings.Replace(proofJSON(1), "1", "256", 1))},
	} {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			fmt.Fprint(w, tc.body)
		})

		_, err := client.GetAllocation(context.Background(), solana.MustParsePublicKey(testClaimant))
		require.Error(t, err, tc.name)
		assert.NotEqual(t, ErrNoAllocation, err, tc.name)

		if tc.status != http.StatusOK {
			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr), tc.name)
			assert.Equal(t, tc.status, statusErr.StatusCode)
			assert.Equal(t, "down", statusErr.Body)
		}
	}
}

func TestGetAllocation_RateLimited(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprintf(w, `{"merkle_tree":%q,"amount":1,"proof":[]}`, testDistributor)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, WithRateLimiter(rate.NewLocalRateLimiter(xrate.Limit(1))), WithHTTPClient(server.Client()))
	require.NoError(t, err)

	_, err = client.GetAllocation(context.Background(), solana.MustParsePublicKey(testClaimant))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.GetAllocation(ctx, solana.MustParsePublicKey(testClaimant))
	assert.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	assert.Error(t, err)

	_, err = NewClient("://")
	assert.Error(t, err)
}
