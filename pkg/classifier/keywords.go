package classifier

import (
	"context"
	"strings"
)

var (
	urgentKeywords = []string{
		"banjir", "kebakaran", "longsor", "darurat", "roboh", "ambruk",
		"korban", "kecelakaan", "keracunan", "tersengat", "putus", "bocor gas",
	}
	minorKeywords = []string{
		"saran", "usulan", "informasi", "pertanyaan", "masukan", "estetika",
	}
)

// KeywordClassifier is used when no generative model is configured. It never
// tags reports (Analyze always fails, so callers store the fallback triple)
// but ranks priority with static keyword rules.
type KeywordClassifier struct{}

func (KeywordClassifier) Analyze(ctx context.Context, text string) (Analysis, error) {
	return Analysis{}, ErrUnavailable
}

func (KeywordClassifier) PredictPriority(ctx context.Context, text string) (string, error) {
	return KeywordPriority(text), nil
}

// KeywordPriority returns tinggi, rendah or sedang.
func KeywordPriority(text string) string {
	lower := strings.ToLower(text)
	for _, k := range urgentKeywords {
		if strings.Contains(lower, k) {
			return "tinggi"
		}
	}
	for _, k := range minorKeywords {
		if strings.Contains(lower, k) {
			return "rendah"
		}
	}
	return "sedang"
}
