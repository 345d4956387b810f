// Package llm asks a language model for narrative analysis of compliance findings and of
// free-text facility issues. Answers are forced through a function tool so they arrive as
// structured JSON, validated against the tool's schema before use.
//
// Nothing in the deterministic engine depends on this package; its output is reported
// next to, never merged into, the engine's result.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/huangsam/auditor/schema"
)

// Sentinel errors for collaborator conditions.
var (
	ErrRateLimited     = errors.New("llm rate limit exceeded, try again later")
	ErrPaymentRequired = errors.New("llm payment required, add credits to continue")
	ErrNoToolCall      = errors.New("llm response has no tool call")
	ErrInvalidToolCall = errors.New("llm tool call is invalid")
)

// Image is an inline picture passed to a multimodal analysis.
type Image struct {
	MIMEType string
	Data     []byte
}

// FindingsRequest asks for an analysis of deterministic findings, optionally with photos.
type FindingsRequest struct {
	SystemType string
	DateRange  string
	Findings   []schema.Finding
	Images     []Image
}

// IssueRequest asks for an analysis of a free-text issue report.
type IssueRequest struct {
	Facility           string
	Location           string
	Department         string
	Description        string
	ObservedConditions string
}

// Analyzer is a language model collaborator.
type Analyzer interface {
	AnalyzeFindings(ctx context.Context, req FindingsRequest) (*schema.LLMAnalysis, error)
	AnalyzeIssue(ctx context.Context, req IssueRequest) (*schema.IssueAnalysis, error)
}

// Options configures an Analyzer.
type Options struct {
	Provider schema.LLMProvider
	Model    string
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// NewAnalyzer builds the analyzer for the configured provider. The returned close function
// releases provider resources and is never nil.
func NewAnalyzer(ctx context.Context, opts Options) (Analyzer, func(), error) {
	switch opts.Provider {
	case schema.GatewayProvider:
		return NewGatewayAnalyzer(opts.Endpoint, opts.APIKey, opts.Model, opts.Timeout), func() {}, nil
	case schema.GeminiProvider:
		a, err := NewGeminiAnalyzer(ctx, opts.APIKey, opts.Model)
		if err != nil {
			return nil, func() {}, err
		}
		return a, func() { _ = a.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("no llm provider configured (received %q)", opts.Provider)
	}
}

// LoadImage reads an image file and sniffs its MIME type.
func LoadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return Image{}, fmt.Errorf("%s is not an image (detected %s)", path, mimeType)
	}
	return Image{MIMEType: mimeType, Data: data}, nil
}

// imageFormat turns "image/png" into "png".
func imageFormat(mimeType string) string {
	_, format, ok := strings.Cut(mimeType, "/")
	if !ok {
		return mimeType
	}
	return format
}
