package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/evaluator/advisor"
	"github.com/thesrcielos/TopCodeBattle/internal/language"
	"github.com/thesrcielos/TopCodeBattle/internal/problem"
)

var twoSum = []problem.TestCase{
	{Input: json.RawMessage(`[[2,7,11,15],9]`), Expected: json.RawMessage(`[0,1]`)},
	{Input: json.RawMessage(`[[3,2,4],6]`), Expected: json.RawMessage(`[1,2]`)},
	{Input: json.RawMessage(`[[3,3],6]`), Expected: json.RawMessage(`[0,1]`)},
}

func outputs(values ...string) []CaseResult {
	r := make([]CaseResult, len(values))
	for i, v := range values {
		r[i] = CaseResult{Output: json.RawMessage(v)}
	}
	return r
}

func TestJudge_AllPass(t *testing.T) {
	v := Judge(twoSum, outputs(`[0,1]`, `[1, 2]`, `[0.0,1]`))
	assert.Equal(t, Correct, v.Status)
	assert.Equal(t, 3, v.Passed)
	require.NotNil(t, v.Score)
	assert.Equal(t, 100.0, *v.Score)
}

func TestJudge_EmptyListFails(t *testing.T) {
	v := Judge(twoSum, outputs(`[0,1]`, `[1,2]`, `[]`))
	assert.Equal(t, Incorrect, v.Status)
	assert.Equal(t, 2, v.Passed)
	assert.InDelta(t, 66.67, *v.Score, 0.01)
	assert.Contains(t, v.Feedback, "Test case 3")
}

func TestJudge_ErrorsAndMissingResults(t *testing.T) {
	results := []CaseResult{{Error: "TypeError: x is undefined"}, {Output: json.RawMessage(`[1,2]`)}}
	v := Judge(twoSum, results)
	assert.Equal(t, Incorrect, v.Status)
	assert.Equal(t, 1, v.Passed)
	assert.Contains(t, v.Feedback, "TypeError")
}

func TestJudge_StrictTypes(t *testing.T) {
	cases := []problem.TestCase{{Input: json.RawMessage(`[]`), Expected: json.RawMessage(`"1"`)}}
	assert.Equal(t, Incorrect, Judge(cases, outputs(`1`)).Status)
	assert.Equal(t, Incorrect, Judge(cases, []CaseResult{{}}).Status)
}

type runnerMock struct {
	mock.Mock
}

func (m *runnerMock) Supports(lang language.Language) bool {
	return m.Called(lang).Bool(0)
}

func (m *runnerMock) Run(ctx context.Context, lang language.Language, code string, cases []problem.TestCase) ([]CaseResult, error) {
	args := m.Called(ctx, lang, code, cases)
	r, _ := args.Get(0).([]CaseResult)
	return r, args.Error(1)
}

type estimatorMock struct {
	mock.Mock
}

func (m *estimatorMock) Estimate(ctx context.Context, lang language.Language, code string) (*advisor.Estimate, error) {
	args := m.Called(ctx, lang, code)
	e, _ := args.Get(0).(*advisor.Estimate)
	return e, args.Error(1)
}

func TestEvaluate_LocalExecution(t *testing.T) {
	runner := &runnerMock{}
	runner.On("Supports", language.Python).Return(true)
	runner.On("Run", mock.Anything, language.Python, "code", twoSum).Return(outputs(`[0,1]`, `[1,2]`, `[0,1]`), nil)
	e := New(runner, &estimatorMock{})

	v := e.Evaluate(context.Background(), language.Python, "code", twoSum)
	assert.Equal(t, Correct, v.Status)
}

func TestEvaluate_SandboxFailureIsError(t *testing.T) {
	runner := &runnerMock{}
	runner.On("Supports", language.JavaScript).Return(true)
	runner.On("Run", mock.Anything, language.JavaScript, "code", twoSum).Return(nil, errors.New("daemon unreachable"))

	v := New(runner, nil).Evaluate(context.Background(), language.JavaScript, "code", twoSum)
	assert.Equal(t, Error, v.Status)
	assert.Contains(t, v.Feedback, "daemon unreachable")
}

func TestEvaluate_AdvisoryForOtherLanguages(t *testing.T) {
	runner := &runnerMock{}
	est := &estimatorMock{}
	est.On("Estimate", mock.Anything, language.Java, "code").
		Return(&advisor.Estimate{Passed: 40, Total: 50, Comment: "Looks fine."}, nil)

	v := New(runner, est).Evaluate(context.Background(), language.Java, "code", twoSum)
	assert.Equal(t, Evaluated, v.Status)
	assert.Equal(t, 80.0, *v.Score)
	assert.Contains(t, v.Feedback, "40/50")
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluate_AdvisoryFailureIsSoft(t *testing.T) {
	est := &estimatorMock{}
	est.On("Estimate", mock.Anything, language.CPP, "code").
		Return(nil, apperrors.External("Estimation service unreachable", errors.New("dial tcp")))

	v := New(nil, est).Evaluate(context.Background(), language.CPP, "code", twoSum)
	assert.Equal(t, Error, v.Status)
	assert.Equal(t, "Estimation service unreachable", v.Feedback)
	assert.Nil(t, v.Score)
}
