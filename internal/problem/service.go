package problem

import (
	"context"
	"encoding/json"
	"math/rand/v2"

	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"go.uber.org/zap"
)

type ProblemService struct {
	repo   ProblemRepository
	cache  *Cache
	window int
	pick   func(n int) int
	logger *zap.SugaredLogger
}

func NewProblemService(repo ProblemRepository, cache *Cache, window int) *ProblemService {
	return &ProblemService{
		repo:   repo,
		cache:  cache,
		window: window,
		pick:   rand.IntN,
		logger: logger.NewNamedLogger("problem"),
	}
}

// GetProblem serves from the cache and falls back to the repository on a miss.
func (s *ProblemService) GetProblem(ctx context.Context, id uint) (*Problem, error) {
	if p, ok := s.cache.Get(id); ok {
		return p, nil
	}
	p, err := s.repo.GetProblem(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Put(p)
	return p, nil
}

// PickRandom chooses a problem uniformly from the most recent window.
func (s *ProblemService) PickRandom(ctx context.Context) (*Problem, error) {
	recent, err := s.repo.ListRecent(ctx, s.window)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, apperrors.NotFound("No problems available")
	}
	chosen := recent[s.pick(len(recent))]
	s.logger.Debugf("Picked problem %d out of %d recent", chosen.ID, len(recent))
	return &chosen, nil
}

// SeedDefaults inserts the built-in catalog when the problems table is empty.
func (s *ProblemService) SeedDefaults(ctx context.Context) error {
	n, err := s.repo.CountProblems(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, p := range defaultProblems() {
		if err := s.repo.CreateProblem(ctx, &p); err != nil {
			return err
		}
		s.logger.Infof("Seeded problem %d %q", p.ID, p.Title)
	}
	return nil
}

func defaultProblems() []Problem {
	return []Problem{
		{
			ID:    1,
			Title: "Two Sum",
			Question: "Given an array of integers nums and an integer target, return indices of the two numbers " +
				"such that they add up to target. Each input has exactly one solution and the same element " +
				"may not be used twice. Return the answer in increasing index order.",
			Examples: []string{
				"Input: nums = [2,7,11,15], target = 9 Output: [0,1]",
				"Input: nums = [3,2,4], target = 6 Output: [1,2]",
				"Input: nums = [3,3], target = 6 Output: [0,1]",
			},
			Constraints: []string{
				"2 <= nums.length <= 10^4",
				"-10^9 <= nums[i] <= 10^9",
				"-10^9 <= target <= 10^9",
				"Only one valid answer exists.",
			},
			Difficulty: Easy,
			TestCases: []TestCase{
				{Input: json.RawMessage(`[[2,7,11,15],9]`), Expected: json.RawMessage(`[0,1]`)},
				{Input: json.RawMessage(`[[3,2,4],6]`), Expected: json.RawMessage(`[1,2]`)},
				{Input: json.RawMessage(`[[3,3],6]`), Expected: json.RawMessage(`[0,1]`)},
			},
		},
	}
}
