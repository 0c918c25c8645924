// Package classifier tags citizen reports with a category, a sentiment and a
// handful of keywords, and suggests a task priority from a description.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultCategory  = "Lainnya"
	DefaultSentiment = "Netral"
)

var (
	ErrUnavailable   = errors.New("classifier unavailable")
	ErrEmptyAnalysis = errors.New("classifier returned no category")
)

type Analysis struct {
	Category  string   `json:"kategori"`
	Sentiment string   `json:"sentimen"`
	Keywords  []string `json:"keywords"`
}

// Fallback is stored whenever classification fails or is skipped.
func Fallback() Analysis {
	return Analysis{
		Category:  DefaultCategory,
		Sentiment: DefaultSentiment,
		Keywords:  []string{},
	}
}

type Classifier interface {
	Analyze(ctx context.Context, text string) (Analysis, error)
	PredictPriority(ctx context.Context, text string) (string, error)
}

// AnalyzeOrFallback bounds the call by timeout and substitutes Fallback on any
// error or when the result carries no category. A missing sentiment becomes
// DefaultSentiment. The boolean reports whether the fallback was used.
func AnalyzeOrFallback(ctx context.Context, c Classifier, text string, timeout time.Duration) (Analysis, bool, error) {
	if c == nil || strings.TrimSpace(text) == "" {
		return Fallback(), true, ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	analysis, err := c.Analyze(ctx, text)
	if err != nil {
		return Fallback(), true, err
	}
	analysis.Category = strings.TrimSpace(analysis.Category)
	if analysis.Category == "" {
		return Fallback(), true, ErrEmptyAnalysis
	}
	if analysis.Sentiment = strings.TrimSpace(analysis.Sentiment); analysis.Sentiment == "" {
		analysis.Sentiment = DefaultSentiment
	}
	if analysis.Keywords == nil {
		analysis.Keywords = []string{}
	}
	return analysis, false, nil
}

// ParseAnalysis decodes a model reply. Replies wrapped in markdown code fences
// are accepted; anything without a category is rejected.
func ParseAnalysis(raw string) (Analysis, error) {
	var a Analysis
	if err := json.Unmarshal([]byte(stripFences(raw)), &a); err != nil {
		return Analysis{}, fmt.Errorf("classifier returned non-JSON reply: %w", err)
	}

	a.Category = strings.TrimSpace(a.Category)
	a.Sentiment = strings.TrimSpace(a.Sentiment)
	if a.Category == "" {
		return Analysis{}, errors.New("classifier reply has no category")
	}
	if a.Sentiment == "" {
		a.Sentiment = DefaultSentiment
	}

	keywords := make([]string, 0, len(a.Keywords))
	for _, k := range a.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	a.Keywords = keywords
	return a, nil
}

// ParsePriority decodes {"priority": "..."} and returns the lower-cased value.
func ParsePriority(raw string) (string, error) {
	var reply struct {
		Priority string `json:"priority"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &reply); err != nil {
		return "", fmt.Errorf("classifier returned non-JSON reply: %w", err)
	}
	p := strings.ToLower(strings.TrimSpace(reply.Priority))
	if p == "" {
		return "", errors.New("classifier reply has no priority")
	}
	return p, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
