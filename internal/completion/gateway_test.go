package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conclave/internal/model"
)

func TestGateway_PostsContractAndValidates(t *testing.T) {
	var got gatewayRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result": {"thinking": "Paris is the capital.", "answer": "A"}}`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL)
	res, err := g.Complete(context.Background(), Request{
		Messages:    []Message{{Role: model.RoleSystem, Content: "System: solve it"}},
		Schema:      answerSchema,
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "A", res.String("answer"))
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, answerSchema.Descriptions(), got.ResponseFormat)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, model.RoleSystem, got.Messages[0].Role)
}

func TestGateway_FailureStatusIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewGateway(srv.URL).Complete(context.Background(), Request{Schema: answerSchema})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "status=503")
}

func TestGateway_MissingResultIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "nope"}`))
	}))
	defer srv.Close()

	_, err := NewGateway(srv.URL).Complete(context.Background(), Request{Schema: answerSchema})
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
}

func TestGateway_UnreachableIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewGateway(url).Complete(context.Background(), Request{Schema: answerSchema})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestNew_Providers(t *testing.T) {
	for _, p := range []string{ProviderGateway, ProviderScripted, ProviderOpenAI, ProviderAnthropic} {
		c, err := New(Options{Provider: p, Retry: DefaultRetryPolicy()}, nil)
		require.NoError(t, err, p)
		assert.IsType(t, &Retrying{}, c)
	}

	_, err := New(Options{Provider: "carrier-pigeon"}, nil)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
