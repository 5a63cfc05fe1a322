package chi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

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

type mockRecommender struct {
	got recommend.Request
	res recommendation.Recommendation
	err error
}

func (m *mockRecommender) Recommend(_ context.Context, req recommend.Request) (recommendation.Recommendation, error) {
	m.got = req
	return m.res, m.err
}

type mockFeedback struct {
	got       feedback.Session
	res       feedback.Result
	err       error
	csv       string
	exportErr error
}

func (m *mockFeedback) Submit(_ context.Context, sess feedback.Session) (feedback.Result, error) {
	m.got = sess
	return m.res, m.err
}

func (m *mockFeedback) Export(_ context.Context, w io.Writer) error {
	if m.exportErr != nil {
		return m.exportErr
	}
	_, err := io.WriteString(w, m.csv)
	return err
}

type mockRankings struct {
	gotRole recipe.Role
	gotK    int
	entries []ranking.Entry
	err     error
}

func (m *mockRankings) Top(role recipe.Role, k int) ([]ranking.Entry, error) {
	m.gotRole, m.gotK = role, k
	return m.entries, m.err
}

type mockInstructions struct {
	got    instructions.Request
	res    instructions.Result
	tokens int
	err    error
}

func (m *mockInstructions) Generate(ctx context.Context, req instructions.Request) (instructions.Result, error) {
	m.got = req
	if m.err != nil {
		return instructions.Result{}, m.err
	}
	usageFromCtx(ctx, m.tokens)
	return m.res, nil
}

type mockAdvice struct {
	got    advice.Request
	res    advice.Result
	tokens int
	err    error
}

func (m *mockAdvice) Answer(ctx context.Context, req advice.Request) (advice.Result, error) {
	m.got = req
	if m.err != nil {
		return advice.Result{}, m.err
	}
	usageFromCtx(ctx, m.tokens)
	return m.res, nil
}

type mockCatalog struct {
	got     catalog.Document
	results []batch.Result
	err     error
}

func (m *mockCatalog) Import(_ context.Context, doc catalog.Document) ([]batch.Result, error) {
	m.got = doc
	return m.results, m.err
}

type mockUsage struct {
	got domusage.Period
}

func (m *mockUsage) GetReport(_ context.Context, p domusage.Period) domusage.Report {
	m.got = p
	return domusage.NewReport(p, 1700000000000, 1700086400000, 120, domusage.NewBudget(1000, 880, 1700086400000))
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type testServer struct {
	recommend    *mockRecommender
	feedback     *mockFeedback
	rankings     *mockRankings
	instructions *mockInstructions
	advice       *mockAdvice
	catalog      *mockCatalog
	usage        *mockUsage
	health       *mockHealth
	handler      http.Handler
}

func newTestServer(t *testing.T, apiKeys ...string) *testServer {
	t.Helper()
	ts := &testServer{
		recommend:    &mockRecommender{},
		feedback:     &mockFeedback{},
		rankings:     &mockRankings{},
		instructions: &mockInstructions{},
		advice:       &mockAdvice{},
		catalog:      &mockCatalog{},
		usage:        &mockUsage{},
		health:       &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK}}},
	}
	srv := NewServer(Services{
		Recommend:    ts.recommend,
		Feedback:     ts.feedback,
		Rankings:     ts.rankings,
		Instructions: ts.instructions,
		Advice:       ts.advice,
		Catalog:      ts.catalog,
		Usage:        ts.usage,
		Health:       ts.health,
	}, 0, zap.NewNop())
	ts.handler = NewRouter(srv, apiKeys, zap.NewNop())
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}
