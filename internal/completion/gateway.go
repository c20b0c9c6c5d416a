package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultGatewayURL is the local completion service endpoint.
const DefaultGatewayURL = "http://localhost:8000/gpt"

// maxGatewayBody bounds how much of a gateway reply is read.
const maxGatewayBody = 4 << 20

// Gateway completes through a local HTTP service. It POSTs
//
//	{"messages": [...], "response_format": {field: description}, "model": ..., "temperature": ...}
//
// and expects {"result": {...}}.
type Gateway struct {
	URL        string
	HTTPClient *http.Client
}

// NewGateway creates a gateway completer for url (DefaultGatewayURL if empty).
func NewGateway(url string) *Gateway {
	if url == "" {
		url = DefaultGatewayURL
	}
	return &Gateway{URL: url, HTTPClient: &http.Client{Timeout: 5 * time.Minute}}
}

type gatewayRequest struct {
	Messages       []Message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Model          string            `json:"model"`
	Temperature    float64           `json:"temperature"`
}

// Complete implements Completer.
func (g *Gateway) Complete(ctx context.Context, req Request) (Result, error) {
	msgs := req.Messages
	if msgs == nil {
		msgs = []Message{}
	}
	body, err := json.Marshal(gatewayRequest{
		Messages:       msgs,
		ResponseFormat: req.Schema.Descriptions(),
		Model:          req.Model,
		Temperature:    req.Temperature,
	})
	if err != nil {
		return Result{}, fmt.Errorf("gateway: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("gateway: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{}, transportError("gateway", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayBody))
	if err != nil {
		return Result{}, transportError("gateway", fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, transportError("gateway",
			fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	result := gjson.GetBytes(data, "result")
	if !result.Exists() {
		return Result{}, &ResponseError{Provider: "gateway", Raw: string(data), Err: errors.New(`reply has no "result"`)}
	}

	res, err := req.Schema.Validate([]byte(result.Raw))
	if err != nil {
		return Result{}, &ResponseError{Provider: "gateway", Raw: result.Raw, Err: err}
	}
	return res, nil
}
