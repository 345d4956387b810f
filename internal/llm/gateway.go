package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/huangsam/auditor/schema"
)

// GatewayAnalyzer talks to an OpenAI-compatible chat completions endpoint.
type GatewayAnalyzer struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

var _ Analyzer = &GatewayAnalyzer{} // Compile-time check

// NewGatewayAnalyzer creates a gateway analyzer.
func NewGatewayAnalyzer(endpoint, apiKey, model string, timeout time.Duration) *GatewayAnalyzer {
	return &GatewayAnalyzer{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type toolChoice struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []chatTool    `json:"tools"`
	ToolChoice toolChoice    `json:"tool_choice"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// AnalyzeFindings implements Analyzer.
func (g *GatewayAnalyzer) AnalyzeFindings(ctx context.Context, req FindingsRequest) (*schema.LLMAnalysis, error) {
	system, user := findingsPrompt(req)

	var content any = user
	if len(req.Images) > 0 {
		parts := []contentPart{{Type: "text", Text: user}}
		for _, img := range req.Images {
			url := "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
			parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: url}})
		}
		content = parts
	}

	args, err := g.callTool(ctx, findingsTool, system, content)
	if err != nil {
		return nil, err
	}
	analysis := &schema.LLMAnalysis{Provider: schema.GatewayProvider, Model: g.model}
	if err := findingsTool.decodeRawArgs(args, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// AnalyzeIssue implements Analyzer.
func (g *GatewayAnalyzer) AnalyzeIssue(ctx context.Context, req IssueRequest) (*schema.IssueAnalysis, error) {
	args, err := g.callTool(ctx, issueTool, issueSystemPrompt, issuePrompt(req))
	if err != nil {
		return nil, err
	}
	analysis := &schema.IssueAnalysis{Provider: schema.GatewayProvider, Model: g.model}
	if err := issueTool.decodeRawArgs(args, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// callTool sends one chat completion forcing the given tool and returns its raw arguments.
func (g *GatewayAnalyzer) callTool(ctx context.Context, tool *toolSpec, system string, user any) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Tools: []chatTool{{
			Type: "function",
			Function: chatFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  json.RawMessage(tool.Parameters),
			},
		}},
		ToolChoice: toolChoice{Type: "function", Function: chatFunction{Name: tool.Name}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode llm request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build llm request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	case http.StatusPaymentRequired:
		return "", ErrPaymentRequired
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("llm gateway error: %s: %s", resp.Status, bytes.TrimSpace(detail))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode llm response: %w", err)
	}
	if len(parsed.Choices) == 0 || len(parsed.Choices[0].Message.ToolCalls) == 0 {
		return "", ErrNoToolCall
	}
	call := parsed.Choices[0].Message.ToolCalls[0].Function
	if call.Name != "" && call.Name != tool.Name {
		return "", fmt.Errorf("%w: expected %s, got %s", ErrInvalidToolCall, tool.Name, call.Name)
	}
	return call.Arguments, nil
}
