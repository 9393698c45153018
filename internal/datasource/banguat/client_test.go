package banguat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(endpoint string) *Client {
	cfg := DefaultClientConfig()
	cfg.Endpoint = endpoint
	cfg.Timeout = 2 * time.Second
	cfg.BackoffBase = time.Millisecond
	cfg.BackoffMax = 5 * time.Millisecond
	cfg.RPS = 1000
	return NewClient(cfg)
}

func TestClient_FetchRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, r.Header.Get("SOAPAction"), "TipoCambioRango")
		assert.Contains(t, string(body), "<fechainit>")

		fmt.Fprint(w, sampleResponse)
	}))
	defer server.Close()

	client := testClient(server.URL)
	rates, err := client.FetchRange(context.Background(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, rates, 2)
	assert.InDelta(t, 7.80123, rates[0].Rate, 1e-12)
}

func TestClient_SplitsYearlyChunks(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		body, _ := io.ReadAll(r.Body)
		// Each request must stay inside one calendar year.
		assert.Equal(t, 1, strings.Count(string(body), "<fechainit>"))

		// Distinct rows per chunk so dedupe keeps everything.
		fmt.Fprintf(w, `<?xml version="1.0"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <TipoCambioRangoResponse xmlns="http://www.banguat.gob.gt/variables/ws/">
      <TipoCambioRangoResult>
        <Vars><Var><fecha>02/01/%d</fecha><venta>7.8</venta></Var></Vars>
      </TipoCambioRangoResult>
    </TipoCambioRangoResponse>
  </soap:Body>
</soap:Envelope>`, 2021+n)
	}))
	defer server.Close()

	client := testClient(server.URL)
	rates, err := client.FetchRange(context.Background(),
		time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, int32(3), requests.Load(), "one request per calendar year")
	assert.Len(t, rates, 3)
}

func TestClient_RetriesThenFails(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.FetchRange(context.Background(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), requests.Load())
}
