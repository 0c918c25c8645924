package lifecycle

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"
)

const (
	ReportNumberPrefix = "LPR"
	TaskNumberPrefix   = "TSK"

	maxNumberAttempts = 20
)

func randomSuffix() int {
	return 1000 + rand.IntN(9000)
}

func formatNumber(prefix string, n int) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// nextNumber draws numbers until exists reports a free one. It gives up with
// ErrNumberExhausted after maxNumberAttempts draws.
func (s *Service) nextNumber(ctx context.Context, prefix string, exists func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < maxNumberAttempts; i++ {
		number := formatNumber(prefix, s.suffix())
		taken, err := exists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("failed to check %s number: %w", prefix, err)
		}
		if !taken {
			return number, nil
		}
	}
	return "", fmt.Errorf("%w: %s after %d attempts", ErrNumberExhausted, prefix, maxNumberAttempts)
}

// reportNumber is best effort: report numbers have no unique index, so on
// exhaustion the last draw is used and a duplicate is possible.
func (s *Service) reportNumber(ctx context.Context) string {
	number, err := s.nextNumber(ctx, ReportNumberPrefix, s.reports.NumberExists)
	if err != nil {
		number = formatNumber(ReportNumberPrefix, s.suffix())
		s.logger.Warn("[WARN] Report number may not be unique", zap.String("number", number), zap.Error(err))
	}
	return number
}
