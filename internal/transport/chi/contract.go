package chi

import (
	"context"
	"io"

	"github.com/kailas-cloud/glycomeal/internal/domain/batch"
	"github.com/kailas-cloud/glycomeal/internal/domain/recipe"
	"github.com/kailas-cloud/glycomeal/internal/domain/recommendation"
	domusage "github.com/kailas-cloud/glycomeal/internal/domain/usage"
	"github.com/kailas-cloud/glycomeal/internal/usecase/advice"
	"github.com/kailas-cloud/glycomeal/internal/usecase/catalog"
	"github.com/kailas-cloud/glycomeal/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/glycomeal/internal/usecase/health"
	"github.com/kailas-cloud/glycomeal/internal/usecase/instructions"
	"github.com/kailas-cloud/glycomeal/internal/usecase/ranking"
	"github.com/kailas-cloud/glycomeal/internal/usecase/recommend"
)

// Recommender runs meal searches.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (recommendation.Recommendation, error)
}

// FeedbackRecorder accepts feedback sessions and exports the glucose log.
type FeedbackRecorder interface {
	Submit(ctx context.Context, sess feedback.Session) (feedback.Result, error)
	Export(ctx context.Context, w io.Writer) error
}

// RankingReader lists the current top recipes of a role.
type RankingReader interface {
	Top(role recipe.Role, k int) ([]ranking.Entry, error)
}

// InstructionWriter generates cooking instructions.
type InstructionWriter interface {
	Generate(ctx context.Context, req instructions.Request) (instructions.Result, error)
}

// Advisor answers diabetes questions.
type Advisor interface {
	Answer(ctx context.Context, req advice.Request) (advice.Result, error)
}

// CatalogImporter writes recipe catalogs.
type CatalogImporter interface {
	Import(ctx context.Context, doc catalog.Document) ([]batch.Result, error)
}

// UsageReporter reports LLM token usage.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
