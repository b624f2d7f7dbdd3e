package matching

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reasm-dev/reasm/internal/ai"
	"github.com/reasm-dev/reasm/internal/analysis"
)

// StrategyHybrid names the primary-with-fallback strategy.
const StrategyHybrid = "hybrid"

// Fallback runs Primary and switches to Secondary when Primary's provider is
// unavailable or answers with unusable output. Other failures are returned as is.
type Fallback struct {
	Primary   ai.Classifier
	Secondary ai.Classifier
	Logger    *zap.Logger
}

func (f *Fallback) Name() string { return StrategyHybrid }

func (f *Fallback) Classify(ctx context.Context, req ai.Request) (*ai.Classification, error) {
	out, err := f.Primary.Classify(ctx, req)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil || analysis.KindOf(err) != analysis.KindProviderUnavailable {
		return nil, err
	}

	log := f.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Warn("primary strategy failed, falling back",
		zap.String("primary", f.Primary.Name()),
		zap.String("secondary", f.Secondary.Name()),
		zap.Error(err),
	)

	out, secondaryErr := f.Secondary.Classify(ctx, req)
	if secondaryErr != nil {
		return nil, fmt.Errorf("%s fallback after %s failure (%v): %w", f.Secondary.Name(), f.Primary.Name(), err, secondaryErr)
	}

	out.Degrade(fmt.Sprintf("%s strategy unavailable; result computed with %s", f.Primary.Name(), f.Secondary.Name()))
	return out, nil
}
