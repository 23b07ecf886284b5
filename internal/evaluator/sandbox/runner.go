package sandbox

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/google/uuid"
	"github.com/thesrcielos/TopCodeBattle/internal/evaluator"
	"github.com/thesrcielos/TopCodeBattle/internal/language"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"github.com/thesrcielos/TopCodeBattle/internal/problem"
	"go.uber.org/zap"
)

const resultMarker = "__RESULT__"

var (
	//go:embed harness/javascript.js
	javascriptHarness string
	//go:embed harness/javascript_runner.js
	javascriptRunner string
	//go:embed harness/python.py
	pythonHarness string
	//go:embed harness/python_runner.py
	pythonRunner string
)

// Harness is the image and entry command that runs submissions of one
// language. The entry command reads a per-run token from stdin, runs Runner
// in a child process that executes the submission, and prints a single
// report tagged with the token. The submission never sees the token.
type Harness struct {
	Image  string
	Cmd    []string
	Runner string
}

var harnesses = map[language.Language]Harness{
	language.JavaScript: {Image: "node:20-alpine", Cmd: []string{"node", "-e", javascriptHarness}, Runner: javascriptRunner},
	language.Python:     {Image: "python:3.12-alpine", Cmd: []string{"python3", "-c", pythonHarness}, Runner: pythonRunner},
}

type Runner struct {
	engine   Engine
	timeout  time.Duration
	memoryMB int64
	logger   *zap.SugaredLogger
}

func NewRunner(engine Engine, timeout time.Duration, memoryMB int64) *Runner {
	return &Runner{
		engine:   engine,
		timeout:  timeout,
		memoryMB: memoryMB,
		logger:   logger.NewNamedLogger("sandbox"),
	}
}

func (r *Runner) Supports(lang language.Language) bool {
	_, ok := harnesses[lang]
	return ok
}

// Prepare pulls every harness image so the first submission does not pay for it.
func (r *Runner) Prepare(ctx context.Context) error {
	for lang, h := range harnesses {
		if err := r.engine.EnsureImage(ctx, h.Image); err != nil {
			return fmt.Errorf("preparing %s image: %w", lang, err)
		}
	}
	return nil
}

func (r *Runner) Run(ctx context.Context, lang language.Language, code string, cases []problem.TestCase) ([]evaluator.CaseResult, error) {
	h, ok := harnesses[lang]
	if !ok {
		return nil, fmt.Errorf("no sandbox for %s", lang)
	}
	inputs := make([]json.RawMessage, len(cases))
	for i, tc := range cases {
		inputs[i] = tc.Input
	}
	encoded, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("encoding test inputs: %w", err)
	}

	if err := r.engine.EnsureImage(ctx, h.Image); err != nil {
		return nil, fmt.Errorf("pulling %s: %w", h.Image, err)
	}
	token := uuid.NewString()
	cfg, hostCfg := containerConfig(h, code, string(encoded), r.memoryMB)
	out, err := r.engine.Run(ctx, cfg, hostCfg, []byte(token+"\n"), r.timeout)
	if err != nil {
		return nil, err
	}
	r.logger.Debugw("Sandbox finished", "language", lang, "exit", out.ExitCode, "stdout", len(out.Stdout))

	return parseResults(out, len(cases), token)
}

func containerConfig(h Harness, code, testCases string, memoryMB int64) (*container.Config, *container.HostConfig) {
	stopTimeout := 1
	pids := int64(64)
	memory := memoryMB * 1024 * 1024

	cfg := &container.Config{
		Image:           h.Image,
		Cmd:             h.Cmd,
		Env:             []string{"SUBMISSION=" + code, "TEST_CASES=" + testCases, "RUNNER=" + h.Runner},
		User:            "65534:65534",
		WorkingDir:      "/tmp",
		NetworkDisabled: true,
		StopTimeout:     &stopTimeout,
		StopSignal:      "SIGKILL",
	}
	hostCfg := &container.HostConfig{
		NetworkMode:    container.NetworkMode("none"),
		CapDrop:        []string{"ALL"},
		ReadonlyRootfs: true,
		SecurityOpt:    []string{"no-new-privileges"},
		IpcMode:        container.IpcMode("private"),
		Tmpfs:          map[string]string{"/tmp": "rw,noexec,nosuid,size=16m"},
		Resources: container.Resources{
			PidsLimit:  &pids,
			Memory:     memory,
			MemorySwap: memory,
			CPUPeriod:  100_000,
			CPUQuota:   100_000,
		},
	}
	return cfg, hostCfg
}

type harnessReport struct {
	CompileError string                 `json:"compile_error"`
	Results      []evaluator.CaseResult `json:"results"`
}

// parseResults accepts exactly one report, tagged with token, from a harness
// that exited cleanly. Anything else means the output was tampered with or
// the harness itself broke.
func parseResults(out *Output, n int, token string) ([]evaluator.CaseResult, error) {
	var line []byte
	reports := 0
	for _, l := range bytes.Split(out.Stdout, []byte("\n")) {
		if !bytes.HasPrefix(l, []byte(resultMarker)) {
			continue
		}
		reports++
		line = bytes.TrimPrefix(l, []byte(resultMarker))
	}
	switch {
	case reports == 0:
		return nil, fmt.Errorf("submission exited with code %d without a result: %s", out.ExitCode, tail(out.Stderr))
	case reports > 1:
		return nil, fmt.Errorf("harness printed %d reports, expected one", reports)
	case out.ExitCode != 0:
		return nil, fmt.Errorf("harness exited with code %d: %s", out.ExitCode, tail(out.Stderr))
	}
	if token == "" || !bytes.HasPrefix(line, []byte(token)) {
		return nil, errors.New("harness report is not tagged with the run token")
	}

	var report harnessReport
	if err := json.Unmarshal(bytes.TrimPrefix(line, []byte(token)), &report); err != nil {
		return nil, fmt.Errorf("unreadable harness output: %w", err)
	}
	if report.CompileError != "" {
		results := make([]evaluator.CaseResult, n)
		for i := range results {
			results[i] = evaluator.CaseResult{Error: report.CompileError}
		}
		return results, nil
	}
	if len(report.Results) != n {
		return nil, fmt.Errorf("harness reported %d results for %d cases", len(report.Results), n)
	}
	return report.Results, nil
}

func tail(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 300 {
		s = "..." + s[len(s)-300:]
	}
	return s
}
