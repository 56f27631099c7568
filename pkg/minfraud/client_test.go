package minfraud

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/app/ccv2r", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "test-key", r.PostFormValue("license_key"))
		assert.Equal(t, "24.24.24.24", r.PostFormValue("i"))
		assert.Equal(t, "example.com", r.PostFormValue("domain"))
		assert.Equal(t, "standard", r.PostFormValue("requested_type"))
		// Absent fields arrive as empty parameters, not missing ones.
		assert.Contains(t, r.PostForm, "shipCountry")
		assert.Equal(t, "", r.PostFormValue("shipCountry"))
		// The raw email must never be in the body.
		assert.NotContains(t, r.PostForm, "email")

		w.Write([]byte("riskScore=23.29;distance=10489;countryCode=US"))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	txn, err := NewTransaction(client, func(txn *Transaction) {
		txn.IP = String("24.24.24.24")
		txn.Email = String("buyer@example.com")
	})
	require.NoError(t, err)

	score, err := client.Score(context.Background(), txn)
	require.NoError(t, err)
	assert.Equal(t, 23.29, score.RiskScore())
	assert.Equal(t, "10489", score.Distance())
	assert.Equal(t, "US", score.CountryCode())
}

func TestScore_ServiceError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("err=INVALID_LICENSE_KEY"))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	txn, err := NewTransaction(client, func(txn *Transaction) {
		txn.IP = String("1.2.3.4")
	})
	require.NoError(t, err)

	_, err = client.Score(context.Background(), txn)
	var serr *ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "INVALID_LICENSE_KEY", serr.Code)
}

func TestScore_UnparseableBodyIsServiceError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	txn, err := NewTransaction(client, func(txn *Transaction) {
		txn.IP = String("1.2.3.4")
	})
	require.NoError(t, err)

	_, err = client.Score(context.Background(), txn)
	var serr *ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, CodeUnparseableResponse, serr.Code)
}

func TestScore_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("service unavailable"))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	txn, err := NewTransaction(client, func(txn *Transaction) {
		txn.IP = String("1.2.3.4")
	})
	require.NoError(t, err)

	_, err = client.Score(context.Background(), txn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	// Transport failures are not service errors.
	var serr *ServiceError
	assert.False(t, errors.As(err, &serr))
}

func TestScore_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("riskScore=1.00"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	txn, err := NewTransaction(client, func(txn *Transaction) {
		txn.IP = String("1.2.3.4")
	})
	require.NoError(t, err)

	_, err = client.Score(ctx, txn)
	require.Error(t, err)
}

func TestScore_RequestedTypeDefault(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "premium", r.PostFormValue("requested_type"))
		w.Write([]byte("riskScore=1.00"))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRequestedType("premium"))
	txn, err := NewTransaction(client, func(txn *Transaction) {
		txn.IP = String("1.2.3.4")
	})
	require.NoError(t, err)

	_, err = client.Score(context.Background(), txn)
	require.NoError(t, err)
}

func TestResult_OneRequestAcrossAccessors(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("riskScore=23.29;distance=10489"))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	txn, err := NewTransaction(client, func(txn *Transaction) {
		txn.IP = String("1.2.3.4")
	})
	require.NoError(t, err)

	score, err := txn.RiskScore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 23.29, score)

	dist, err := txn.Distance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10489", dist)

	assert.Equal(t, int32(1), requests.Load())
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient("my-key")
	hc := c.(*httpClient)
	assert.Equal(t, "my-key", hc.licenseKey)
	assert.Equal(t, "https://minfraud.maxmind.com", hc.baseURL)
	assert.Equal(t, "standard", hc.requestedType)
	assert.Nil(t, hc.limiter)
	assert.NotNil(t, hc.http)
	assert.Equal(t, 30*time.Second, hc.http.Timeout)
}

func TestWithRateLimit(t *testing.T) {
	t.Parallel()

	c := NewClient("k", WithRateLimit(5, 2))
	hc := c.(*httpClient)
	require.NotNil(t, hc.limiter)
	assert.Equal(t, float64(5), float64(hc.limiter.Limit()))
	assert.Equal(t, 2, hc.limiter.Burst())

	c = NewClient("k", WithRateLimit(0, 2))
	assert.Nil(t, c.(*httpClient).limiter)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	c := NewClient("k", WithHTTPClient(custom))
	assert.Equal(t, custom, c.(*httpClient).http)
}
