package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesrcielos/TopCodeBattle/internal/evaluator"
	"github.com/thesrcielos/TopCodeBattle/internal/language"
	"github.com/thesrcielos/TopCodeBattle/internal/problem"
)

type fakeEngine struct {
	pulled  []string
	cfg     *container.Config
	hostCfg *container.HostConfig
	stdin   []byte
	timeout time.Duration
	// report, when set, is answered as a harness report tagged with the run token.
	report  string
	out     *Output
	err     error
}

func (f *fakeEngine) EnsureImage(_ context.Context, imageName string) error {
	f.pulled = append(f.pulled, imageName)
	return nil
}

func (f *fakeEngine) Run(_ context.Context, cfg *container.Config, hostCfg *container.HostConfig, stdin []byte, timeout time.Duration) (*Output, error) {
	f.cfg, f.hostCfg, f.stdin, f.timeout = cfg, hostCfg, stdin, timeout
	if f.report != "" {
		token := strings.TrimSpace(string(stdin))
		return &Output{Stdout: []byte("debug print\n" + resultMarker + token + f.report + "\n")}, nil
	}
	return f.out, f.err
}

var twoSumCases = []problem.TestCase{
	{Input: json.RawMessage(`[[2,7,11,15],9]`), Expected: json.RawMessage(`[0,1]`)},
	{Input: json.RawMessage(`[[3,3],6]`), Expected: json.RawMessage(`[0,1]`)},
}

func TestHarnessForEveryExecutableLanguage(t *testing.T) {
	r := NewRunner(&fakeEngine{}, time.Second, 128)
	for _, l := range language.All {
		assert.Equal(t, l.Executable(), r.Supports(l), "language %s", l)
	}
}

func TestRunner_Run(t *testing.T) {
	engine := &fakeEngine{report: `{"results":[{"output":[0,1]},{"error":"IndexError: boom"}]}`}
	r := NewRunner(engine, 3*time.Second, 128)

	results, err := r.Run(context.Background(), language.Python, "def solution(n, t): pass", twoSumCases)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.JSONEq(t, `[0,1]`, string(results[0].Output))
	assert.Equal(t, "IndexError: boom", results[1].Error)

	assert.Equal(t, []string{"python:3.12-alpine"}, engine.pulled)
	assert.Equal(t, 3*time.Second, engine.timeout)
	assert.Contains(t, engine.cfg.Env, "SUBMISSION=def solution(n, t): pass")
	assert.Contains(t, engine.cfg.Env, `TEST_CASES=[[[2,7,11,15],9],[[3,3],6]]`)
	assert.Contains(t, engine.cfg.Env, "RUNNER="+pythonRunner)

	token := strings.TrimSpace(string(engine.stdin))
	require.NotEmpty(t, token)
	for _, kv := range engine.cfg.Env {
		assert.NotContains(t, kv, token, "the run token must only travel on stdin")
	}
}

func TestRunner_FreshTokenPerRun(t *testing.T) {
	engine := &fakeEngine{report: `{"results":[{"output":1},{"output":2}]}`}
	r := NewRunner(engine, time.Second, 128)

	_, err := r.Run(context.Background(), language.Python, "x", twoSumCases)
	require.NoError(t, err)
	first := string(engine.stdin)
	_, err = r.Run(context.Background(), language.Python, "x", twoSumCases)
	require.NoError(t, err)
	assert.NotEqual(t, first, string(engine.stdin))
}

func TestRunner_CompileErrorFailsEveryCase(t *testing.T) {
	engine := &fakeEngine{report: `{"compile_error":"SyntaxError: Unexpected token"}`}
	results, err := NewRunner(engine, time.Second, 128).Run(context.Background(), language.JavaScript, "function (", twoSumCases)
	require.NoError(t, err)
	assert.Equal(t, []evaluator.CaseResult{
		{Error: "SyntaxError: Unexpected token"},
		{Error: "SyntaxError: Unexpected token"},
	}, results)
}

func TestRunner_Failures(t *testing.T) {
	_, err := NewRunner(&fakeEngine{err: ErrTimeout}, time.Second, 128).
		Run(context.Background(), language.Python, "x", twoSumCases)
	assert.ErrorIs(t, err, ErrTimeout)

	_, err = NewRunner(&fakeEngine{out: &Output{ExitCode: 137, Stderr: []byte("Killed")}}, time.Second, 128).
		Run(context.Background(), language.Python, "x", twoSumCases)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "137")

	_, err = NewRunner(&fakeEngine{}, time.Second, 128).Run(context.Background(), language.Java, "x", twoSumCases)
	assert.Error(t, err)
}

func TestContainerConfigIsolation(t *testing.T) {
	cfg, host := containerConfig(harnesses[language.JavaScript], "code", "[]", 256)

	assert.True(t, cfg.NetworkDisabled)
	assert.Equal(t, "65534:65534", cfg.User)
	assert.Equal(t, container.NetworkMode("none"), host.NetworkMode)
	assert.Equal(t, []string{"ALL"}, []string(host.CapDrop))
	assert.True(t, host.ReadonlyRootfs)
	assert.Contains(t, host.SecurityOpt, "no-new-privileges")
	assert.Equal(t, int64(256*1024*1024), host.Memory)
	assert.Equal(t, host.Memory, host.MemorySwap)
	require.NotNil(t, host.PidsLimit)
	assert.Equal(t, int64(64), *host.PidsLimit)
	assert.Equal(t, "node", cfg.Cmd[0])
}

func TestHarnessScriptsEmbedded(t *testing.T) {
	assert.True(t, strings.Contains(javascriptHarness, resultMarker))
	assert.True(t, strings.Contains(pythonHarness, resultMarker))
	assert.NotContains(t, javascriptRunner, resultMarker)
	assert.NotContains(t, pythonRunner, resultMarker)
}

func TestParseResults_RequiresSingleTaggedReport(t *testing.T) {
	const token = "6c1f1d0e-token"
	good := resultMarker + token + `{"results":[{"output":1}]}`

	results, err := parseResults(&Output{Stdout: []byte("noise\n" + good + "\n")}, 1, token)
	require.NoError(t, err)
	require.Len(t, results, 1)

	cases := map[string]*Output{
		"untagged":        {Stdout: []byte(resultMarker + `{"results":[{"output":1}]}`)},
		"wrong token":     {Stdout: []byte(resultMarker + "other" + `{"results":[{"output":1}]}`)},
		"second report":   {Stdout: []byte(resultMarker + `{"results":[]}` + "\n" + good)},
		"nonzero exit":    {Stdout: []byte(good), ExitCode: 1},
		"missing results": {Stdout: []byte(resultMarker + token + `{"results":[]}`)},
		"unreadable":      {Stdout: []byte(resultMarker + token + `{oops`)},
		"no report":       {Stdout: []byte("hello"), Stderr: []byte("Traceback")},
	}
	for name, out := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseResults(out, 1, token)
			assert.Error(t, err)
			assert.False(t, errors.Is(err, ErrTimeout))
		})
	}
}

func TestTailWriterKeepsTrailingBytes(t *testing.T) {
	w := newTailWriter(8)
	for _, chunk := range []string{"0123", "4567", "89", "abcdefghijk", "XY"} {
		n, err := w.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}
	assert.Equal(t, "fghijkXY", string(w.Bytes()))

	short := newTailWriter(8)
	_, _ = short.Write([]byte("abc"))
	assert.Equal(t, "abc", string(short.Bytes()))
}
