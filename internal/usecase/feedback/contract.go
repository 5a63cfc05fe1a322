package feedback

import (
	"context"

	domfb "github.com/kailas-cloud/glycomeal/internal/domain/feedback"
	"github.com/kailas-cloud/glycomeal/internal/usecase/preference"
)

// Updater applies one rating to the preference scores.
type Updater interface {
	Apply(ctx context.Context, recipe string, rating float64) (preference.Result, error)
}

// Scores looks up stored recipe scores; used to reject unknown recipes up front.
type Scores interface {
	CurrentScore(ctx context.Context, recipe string) (float64, error)
}

// Log is the append-only glucose log.
type Log interface {
	Append(ctx context.Context, e domfb.GlucoseEntry) error
	Each(ctx context.Context, fn func(domfb.GlucoseEntry) error) error
}
