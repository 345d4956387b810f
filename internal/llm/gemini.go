package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"github.com/huangsam/auditor/schema"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// generator is the part of *genai.GenerativeModel the analyzer uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiAnalyzer uses the Gemini API with forced function calling.
type GeminiAnalyzer struct {
	client   *genai.Client
	model    string
	newModel func(tool *toolSpec, system string) generator
}

var _ Analyzer = &GeminiAnalyzer{} // Compile-time check

// NewGeminiAnalyzer creates a Gemini analyzer.
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	a := &GeminiAnalyzer{client: client, model: model}
	a.newModel = a.configuredModel
	return a, nil
}

// Close releases the underlying client.
func (a *GeminiAnalyzer) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

// configuredModel returns a model that must answer by calling tool.
func (a *GeminiAnalyzer) configuredModel(tool *toolSpec, system string) generator {
	m := a.client.GenerativeModel(a.model)
	m.SetTemperature(0)
	m.SystemInstruction = systemInstruction(system)
	m.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGenaiSchema(tool.parameterMap()),
		}},
	}}
	m.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingAny,
			AllowedFunctionNames: []string{tool.Name},
		},
	}
	return m
}

// systemInstruction wraps the system prompt in the content form the model expects.
func systemInstruction(system string) *genai.Content {
	return &genai.Content{Parts: []genai.Part{genai.Text(system)}}
}

// AnalyzeFindings implements Analyzer.
func (a *GeminiAnalyzer) AnalyzeFindings(ctx context.Context, req FindingsRequest) (*schema.LLMAnalysis, error) {
	system, user := findingsPrompt(req)
	parts := []genai.Part{genai.Text(user)}
	for _, img := range req.Images {
		parts = append(parts, genai.ImageData(imageFormat(img.MIMEType), img.Data))
	}

	args, err := a.callTool(ctx, findingsTool, system, parts)
	if err != nil {
		return nil, err
	}
	analysis := &schema.LLMAnalysis{Provider: schema.GeminiProvider, Model: a.model}
	if err := findingsTool.decodeRawArgs(args, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// AnalyzeIssue implements Analyzer.
func (a *GeminiAnalyzer) AnalyzeIssue(ctx context.Context, req IssueRequest) (*schema.IssueAnalysis, error) {
	args, err := a.callTool(ctx, issueTool, issueSystemPrompt, []genai.Part{genai.Text(issuePrompt(req))})
	if err != nil {
		return nil, err
	}
	analysis := &schema.IssueAnalysis{Provider: schema.GeminiProvider, Model: a.model}
	if err := issueTool.decodeRawArgs(args, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// callTool generates content and returns the function call arguments as JSON.
func (a *GeminiAnalyzer) callTool(ctx context.Context, tool *toolSpec, system string, parts []genai.Part) (string, error) {
	resp, err := a.newModel(tool, system).GenerateContent(ctx, parts...)
	if err != nil {
		return "", mapGeminiError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoToolCall
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		call, ok := part.(genai.FunctionCall)
		if !ok {
			continue
		}
		if call.Name != tool.Name {
			return "", fmt.Errorf("%w: expected %s, got %s", ErrInvalidToolCall, tool.Name, call.Name)
		}
		data, err := json.Marshal(call.Args)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidToolCall, err)
		}
		return string(data), nil
	}
	return "", ErrNoToolCall
}

func mapGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return ErrRateLimited
		case http.StatusPaymentRequired:
			return ErrPaymentRequired
		}
	}
	return fmt.Errorf("gemini request failed: %w", err)
}

// toGenaiSchema converts the subset of JSON Schema used by the tools into a genai.Schema.
func toGenaiSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	switch m["type"] {
	case "object":
		s.Type = genai.TypeObject
	case "array":
		s.Type = genai.TypeArray
	case "string":
		s.Type = genai.TypeString
	case "number":
		s.Type = genai.TypeNumber
	case "integer":
		s.Type = genai.TypeInteger
	case "boolean":
		s.Type = genai.TypeBoolean
	}
	if enum, ok := m["enum"].([]any); ok {
		for _, e := range enum {
			if v, ok := e.(string); ok {
				s.Enum = append(s.Enum, v)
			}
		}
	}
	if req, ok := m["required"].([]any); ok {
		for _, r := range req {
			if v, ok := r.(string); ok {
				s.Required = append(s.Required, v)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(pm)
			}
		}
	}
	return s
}
