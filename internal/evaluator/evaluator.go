package evaluator

import (
	"context"
	"fmt"

	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/evaluator/advisor"
	"github.com/thesrcielos/TopCodeBattle/internal/language"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"github.com/thesrcielos/TopCodeBattle/internal/problem"
	"go.uber.org/zap"
)

// Runner executes a submission against test inputs in isolation.
// An error means the run itself failed, not that the code is wrong.
type Runner interface {
	Supports(lang language.Language) bool
	Run(ctx context.Context, lang language.Language, code string, cases []problem.TestCase) ([]CaseResult, error)
}

type Estimator interface {
	Estimate(ctx context.Context, lang language.Language, code string) (*advisor.Estimate, error)
}

type Evaluator struct {
	runner    Runner
	estimator Estimator
	logger    *zap.SugaredLogger
}

func New(runner Runner, estimator Estimator) *Evaluator {
	return &Evaluator{
		runner:    runner,
		estimator: estimator,
		logger:    logger.NewNamedLogger("evaluator"),
	}
}

// Evaluate grades code locally when the language can be executed and falls back
// to a non-binding estimate otherwise.
func (e *Evaluator) Evaluate(ctx context.Context, lang language.Language, code string, cases []problem.TestCase) Verdict {
	if lang.Executable() && e.runner != nil && e.runner.Supports(lang) {
		return e.runLocally(ctx, lang, code, cases)
	}
	return e.estimate(ctx, lang, code)
}

func (e *Evaluator) runLocally(ctx context.Context, lang language.Language, code string, cases []problem.TestCase) Verdict {
	if len(cases) == 0 {
		return Verdict{Status: Error, Feedback: "Problem has no test cases"}
	}
	results, err := e.runner.Run(ctx, lang, code, cases)
	if err != nil {
		e.logger.Errorw("Sandbox run failed", "language", lang, "error", err)
		return Verdict{Status: Error, Total: len(cases), Feedback: "Could not run submission: " + err.Error()}
	}
	return Judge(cases, results)
}

func (e *Evaluator) estimate(ctx context.Context, lang language.Language, code string) Verdict {
	est, err := e.Estimate(ctx, lang, code)
	if err != nil {
		return Verdict{Status: Error, Feedback: apperrors.Message(err)}
	}
	return Verdict{
		Status:   Evaluated,
		Passed:   est.Passed,
		Total:    est.Total,
		Score:    score(est.Passed, est.Total),
		Feedback: fmt.Sprintf("Estimated %d/%d test cases passing. %s", est.Passed, est.Total, est.Comment),
	}
}

// Estimate asks the advisor for a non-binding pass estimate.
func (e *Evaluator) Estimate(ctx context.Context, lang language.Language, code string) (*advisor.Estimate, error) {
	if e.estimator == nil {
		return nil, apperrors.External("Estimation is not configured", nil)
	}
	est, err := e.estimator.Estimate(ctx, lang, code)
	if err != nil {
		e.logger.Warnw("Estimation failed", "language", lang, "error", err)
		return nil, err
	}
	return est, nil
}
