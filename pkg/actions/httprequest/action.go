// Package httprequest provides an HTTP request action for workflow nodes.
package httprequest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hookline/hookline/pkg/models"
	"github.com/hookline/hookline/pkg/protocol"
)

const defaultTimeoutSeconds = 30

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "http_request"
}

func (*ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Target URL. Supports {{node.field}} placeholders.",
			},
			"method": map[string]any{
				"type":    "string",
				"default": "GET",
				"enum":    []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			},
			"headers": map[string]any{
				"type": "object",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body, sent verbatim.",
			},
		},
		"required": []string{"url"},
	}
}

func (f *ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	url, ok := config["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("http_request requires a 'url'")
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	body, _ := config["body"].(string)

	headers := make(map[string]string)

	if headersConfig, exists := config["headers"]; exists {
		if headersMap, ok := headersConfig.(map[string]any); ok {
			for k, v := range headersMap {
				if strVal, ok := v.(string); ok {
					headers[k] = strVal
				}
			}
		}
	}

	return &Action{
		URL:     url,
		Method:  strings.ToUpper(method),
		Headers: headers,
		Body:    body,
		Client:  &http.Client{Timeout: defaultTimeoutSeconds * time.Second},
	}, nil
}

type Action struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    string
	Client  *http.Client
}

func (a *Action) Execute(ctx context.Context, _ models.ExecutionContext, logger *slog.Logger) (protocol.Result, error) {
	logger = logger.With("module", "http_request_action", "url", a.URL, "method", a.Method)
	logger.InfoContext(ctx, "Executing HTTP request")

	var bodyReader io.Reader
	if a.Body != "" {
		bodyReader = strings.NewReader(a.Body)
	}

	req, err := http.NewRequestWithContext(ctx, a.Method, a.URL, bodyReader)
	if err != nil {
		return protocol.Result{}, fmt.Errorf("build request: %w", err)
	}

	for key, value := range a.Headers {
		req.Header.Set(key, value)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return protocol.Result{}, fmt.Errorf("http request to %s: %w", a.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return protocol.Result{}, fmt.Errorf("read response body: %w", err)
	}

	outputs := map[string]any{
		"status_code": resp.StatusCode,
		"url":         a.URL,
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		outputs["body"] = parsed
	} else {
		outputs["body"] = string(raw)
	}

	logger.InfoContext(ctx, "HTTP request finished", "status_code", resp.StatusCode)

	return protocol.Ok(outputs), nil
}
