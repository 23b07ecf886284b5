package evaluator

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/thesrcielos/TopCodeBattle/internal/problem"
)

type Status string

const (
	Pending   Status = "pending"
	Correct   Status = "correct"
	Incorrect Status = "incorrect"
	Evaluated Status = "evaluated"
	Error     Status = "error"
)

// CaseResult is what one invocation of the submission produced.
type CaseResult struct {
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type Verdict struct {
	Status   Status
	Passed   int
	Total    int
	Score    *float64
	Feedback string
}

func score(passed, total int) *float64 {
	if total == 0 {
		return nil
	}
	s := float64(passed) / float64(total) * 100
	return &s
}

// Judge compares each result with its test case by JSON value equality.
// Failures never escape as errors: a thrown error or a wrong value fails that case.
func Judge(cases []problem.TestCase, results []CaseResult) Verdict {
	v := Verdict{Total: len(cases)}
	for i, tc := range cases {
		if i >= len(results) {
			if v.Feedback == "" {
				v.Feedback = fmt.Sprintf("Test case %d produced no result", i+1)
			}
			continue
		}
		r := results[i]
		switch {
		case r.Error != "":
			if v.Feedback == "" {
				v.Feedback = fmt.Sprintf("Test case %d raised an error: %s", i+1, r.Error)
			}
		case !jsonEqual(r.Output, tc.Expected):
			if v.Feedback == "" {
				v.Feedback = fmt.Sprintf("Test case %d failed: input %s, expected %s, got %s",
					i+1, tc.Input, tc.Expected, printable(r.Output))
			}
		default:
			v.Passed++
		}
	}

	v.Score = score(v.Passed, v.Total)
	if v.Total > 0 && v.Passed == v.Total {
		v.Status = Correct
		v.Feedback = fmt.Sprintf("All %d test cases passed", v.Total)
	} else {
		v.Status = Incorrect
	}
	return v
}

func jsonEqual(a, b json.RawMessage) bool {
	if len(a) == 0 {
		a = json.RawMessage("null")
	}
	var x, y interface{}
	if err := json.Unmarshal(a, &x); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &y); err != nil {
		return false
	}
	return reflect.DeepEqual(x, y)
}

func printable(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "nothing"
	}
	return string(raw)
}
