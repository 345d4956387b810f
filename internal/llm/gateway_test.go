package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/auditor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const findingsArgs = `{
  "issues": [{
    "problemDetected": "Steam Pressure High",
    "severity": "Severe",
    "possibleCauses": ["Stuck relief valve"],
    "recommendedActions": ["Inspect relief valve"],
    "monitoringSuggestions": ["Recheck in 48h"],
    "estimatedRiskCost": 2500
  }],
  "summary": {"complianceScore": 67, "numberOfIssues": 1, "criticalFlags": 1.0, "overallPriority": "High"}
}`

const issueArgs = `{
  "findings": {
    "issueSummary": "Chiller tripping on high head pressure",
    "rootCause": "Fouled condenser tubes",
    "severityScore": 72,
    "systemImpact": "Reduced cooling capacity",
    "operationalRiskLevel": "High"
  },
  "workOrder": {
    "department": "Chiller",
    "description": "Clean condenser tubes",
    "priority": "High",
    "estimatedCost": "$4,000"
  },
  "supervisorSummary": "Condenser fouling is reducing capacity."
}`

// toolCallResponse builds a chat completion whose first choice calls the given tool.
func toolCallResponse(name, args string) string {
	body := map[string]any{
		"choices": []any{map[string]any{
			"message": map[string]any{
				"tool_calls": []any{map[string]any{
					"function": map[string]any{"name": name, "arguments": args},
				}},
			},
		}},
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func newGateway(t *testing.T, handler http.HandlerFunc) *GatewayAnalyzer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGatewayAnalyzer(srv.URL, "secret", "test-model", 5*time.Second)
}

func TestGatewayAnalyzeFindings(t *testing.T) {
	var captured chatRequest
	var rawBody map[string]any
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NoError(t, json.Unmarshal(body, &captured))
		require.NoError(t, json.Unmarshal(body, &rawBody))
		_, _ = w.Write([]byte(toolCallResponse(FindingsToolName, findingsArgs)))
	})

	req := FindingsRequest{
		SystemType: "boiler",
		Findings:   []schema.Finding{{Field: "steamPressure", Value: "200", Flag: schema.AboveLimitFlag, Severity: schema.SevereSeverity}},
	}
	analysis, err := g.AnalyzeFindings(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, schema.GatewayProvider, analysis.Provider)
	assert.Equal(t, "test-model", analysis.Model)
	require.Len(t, analysis.Issues, 1)
	assert.Equal(t, "Steam Pressure High", analysis.Issues[0].ProblemDetected)
	assert.InDelta(t, 2500.0, analysis.Issues[0].EstimatedRiskCost, 1e-9)
	assert.Equal(t, 1, analysis.Summary.CriticalFlags)
	assert.Equal(t, "High", analysis.Summary.OverallPriority)

	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Tools, 1)
	assert.Equal(t, FindingsToolName, captured.Tools[0].Function.Name)
	assert.Equal(t, FindingsToolName, captured.ToolChoice.Function.Name)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)

	messages := rawBody["messages"].([]any)
	user := messages[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "- steamPressure: 200 (Above Limit) - Severity: Severe")
}

func TestGatewayAnalyzeFindingsWithImages(t *testing.T) {
	var rawBody map[string]any
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawBody))
		_, _ = w.Write([]byte(toolCallResponse(FindingsToolName, findingsArgs)))
	})

	req := FindingsRequest{Images: []Image{{MIMEType: "image/png", Data: []byte("png")}}}
	_, err := g.AnalyzeFindings(context.Background(), req)
	require.NoError(t, err)

	messages := rawBody["messages"].([]any)
	parts := messages[1].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].(map[string]any)["type"])
	image := parts[1].(map[string]any)
	assert.Equal(t, "image_url", image["type"])
	assert.Equal(t, "data:image/png;base64,cG5n", image["image_url"].(map[string]any)["url"])
}

func TestGatewayAnalyzeIssue(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, IssueToolName, body.ToolChoice.Function.Name)
		_, _ = w.Write([]byte(toolCallResponse(IssueToolName, issueArgs)))
	})

	analysis, err := g.AnalyzeIssue(context.Background(), IssueRequest{Facility: "Plant A", Description: "Chiller trips"})
	require.NoError(t, err)
	assert.Equal(t, "Fouled condenser tubes", analysis.Findings.RootCause)
	assert.InDelta(t, 72.0, analysis.Findings.SeverityScore, 1e-9)
	assert.Equal(t, "Chiller", analysis.WorkOrder.Department)
	assert.Equal(t, schema.GatewayProvider, analysis.Provider)
}

func TestGatewayErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "payment required", status: http.StatusPaymentRequired, wantErr: ErrPaymentRequired},
		{name: "server error", status: http.StatusBadGateway, body: "upstream down", wantMsg: "upstream down"},
		{name: "no tool call", status: http.StatusOK, body: `{"choices":[{"message":{}}]}`, wantErr: ErrNoToolCall},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: ErrNoToolCall},
		{name: "wrong tool", status: http.StatusOK, body: toolCallResponse("other", "{}"), wantErr: ErrInvalidToolCall},
		{name: "args not json", status: http.StatusOK, body: toolCallResponse(FindingsToolName, "not json"), wantErr: ErrInvalidToolCall},
		{name: "args fail schema", status: http.StatusOK, body: toolCallResponse(FindingsToolName, `{"issues":[]}`), wantErr: ErrInvalidToolCall},
		{name: "bad response", status: http.StatusOK, body: "{", wantMsg: "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := g.AnalyzeFindings(context.Background(), FindingsRequest{SystemType: "boiler"})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestGatewayContextCanceled(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(toolCallResponse(IssueToolName, issueArgs)))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.AnalyzeIssue(ctx, IssueRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewAnalyzer(t *testing.T) {
	a, closeFn, err := NewAnalyzer(context.Background(), Options{Provider: schema.GatewayProvider, Endpoint: "http://localhost", APIKey: "k", Model: "m", Timeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	closeFn()
	assert.IsType(t, &GatewayAnalyzer{}, a)

	_, closeFn, err = NewAnalyzer(context.Background(), Options{Provider: schema.NoProvider})
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestPrompts(t *testing.T) {
	system, user := findingsPrompt(FindingsRequest{SystemType: "chiller", DateRange: "2024-01"})
	assert.Equal(t, findingsSystemPrompt, system)
	assert.True(t, strings.HasPrefix(user, "Analyze this chiller system compliance data from 2024-01:"))
	assert.Contains(t, user, "- none")

	system, user = findingsPrompt(FindingsRequest{Images: []Image{{MIMEType: "image/jpeg"}}, Findings: []schema.Finding{{Field: "oilTemp"}}})
	assert.Equal(t, imageSystemPrompt, system)
	assert.Contains(t, user, `"field": "oilTemp"`)

	text := issuePrompt(IssueRequest{Facility: "Plant A", Location: "Roof", Department: "HVAC", Description: "Leak"})
	assert.Contains(t, text, "Facility: Plant A\nLocation: Roof\nDepartment: HVAC")
	assert.Contains(t, text, "Issue Description:\nLeak")
}
