package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/uigen/providers/observability"
	"github.com/leofalp/uigen/providers/observability/observabilitytest"
)

type echoResponse struct {
	Value int `json:"value"`
}

func TestPostJSON_Success(t *testing.T) {
	var gotAuth, gotCustom, gotContentType string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCustom = r.Header.Get("X-Title")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"value":42}`)
	}))
	defer server.Close()

	out, err := PostJSON[echoResponse](context.Background(), server.Client(), server.URL, "key",
		map[string]string{"q": "form"}, HeaderOption{Key: "X-Title", Value: "uigen"})
	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)
	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, "uigen", gotCustom)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "form", gotBody["q"])
}

func TestPostJSON_NoAPIKeyOmitsAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Authorization"]
		assert.False(t, present)
		fmt.Fprint(w, `{"value":1}`)
	}))
	defer server.Close()

	_, err := PostJSON[echoResponse](context.Background(), nil, server.URL, "", struct{}{})
	require.NoError(t, err)
}

func TestPostJSON_StatusError(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{status: http.StatusBadRequest},
		{status: http.StatusUnauthorized},
		{status: http.StatusTooManyRequests, retryable: true},
		{status: http.StatusBadGateway, retryable: true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, "nope")
			}))
			defer server.Close()

			_, err := PostJSON[echoResponse](context.Background(), server.Client(), server.URL, "", struct{}{})
			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, "nope", statusErr.Body)
			assert.Equal(t, tt.retryable, statusErr.Retryable())
			assert.Contains(t, err.Error(), fmt.Sprint(tt.status))
		})
	}
}

func TestPostJSON_UnmarshalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>gateway</html>")
	}))
	defer server.Close()

	_, err := PostJSON[echoResponse](context.Background(), server.Client(), server.URL, "", struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling")
	assert.Contains(t, err.Error(), "<html>gateway</html>")
}

func TestPostJSON_MarshalError(t *testing.T) {
	_, err := PostJSON[echoResponse](context.Background(), nil, "http://127.0.0.1:1", "", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshaling")
}

func TestPostJSON_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PostJSON[echoResponse](ctx, server.Client(), server.URL, "", struct{}{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostJSON_RecordsSpanEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value":3}`)
	}))
	defer server.Close()

	recorder := observabilitytest.New()
	ctx, span := recorder.StartSpan(context.Background(), observability.SpanLLMRequest)

	_, err := PostJSON[echoResponse](ctx, server.Client(), server.URL, "", struct{}{})
	require.NoError(t, err)
	span.End()

	record, ok := recorder.SpanNamed(observability.SpanLLMRequest)
	require.True(t, ok)
	assert.Equal(t, []string{"http.request.prepared", "http.response.received"}, record.Events)
}

func TestPostStream_ReturnsOpenBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: one\n\ndata: [DONE]\n\n")
	}))
	defer server.Close()

	res, err := PostStream(context.Background(), server.Client(), server.URL, "k", struct{}{})
	require.NoError(t, err)
	defer CloseWithLog(res.Body)

	scanner := NewSSEScanner(res.Body)
	payload, err := scanner.Next()
	require.NoError(t, err)
	assert.Equal(t, "one", payload)
	_, err = scanner.Next()
	assert.Equal(t, io.EOF, err)
}

func TestPostStream_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, strings.Repeat("x", 10))
	}))
	defer server.Close()

	res, err := PostStream(context.Background(), server.Client(), server.URL, "", struct{}{})
	assert.Nil(t, res)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.True(t, statusErr.Retryable())
}
