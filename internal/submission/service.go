package submission

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/battle"
	"github.com/thesrcielos/TopCodeBattle/internal/evaluator"
	"github.com/thesrcielos/TopCodeBattle/internal/language"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"github.com/thesrcielos/TopCodeBattle/internal/problem"
	"go.uber.org/zap"
)

const (
	maxCodeBytes      = 64 * 1024
	// evaluationTimeout bounds inline grading, which outlives the request.
	evaluationTimeout = 2 * time.Minute
)

type Battles interface {
	Get(ctx context.Context, battleID string) (*battle.Battle, error)
	Complete(ctx context.Context, battleID, winnerID string) (*battle.Battle, error)
}

type Problems interface {
	GetProblem(ctx context.Context, id uint) (*problem.Problem, error)
}

type Grader interface {
	Evaluate(ctx context.Context, lang language.Language, code string, cases []problem.TestCase) evaluator.Verdict
}

type SubmissionService struct {
	repo       SubmissionRepository
	battles    Battles
	problems   Problems
	grader     Grader
	dispatcher Dispatcher
	now        func() time.Time
	logger     *zap.SugaredLogger
}

// NewSubmissionService evaluates inline until another dispatcher is set.
func NewSubmissionService(repo SubmissionRepository, battles Battles, problems Problems, grader Grader) *SubmissionService {
	s := &SubmissionService{
		repo:     repo,
		battles:  battles,
		problems: problems,
		grader:   grader,
		now:      time.Now,
		logger:   logger.NewNamedLogger("submission"),
	}
	s.dispatcher = NewInlineDispatcher(s, evaluationTimeout)
	return s
}

func (s *SubmissionService) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

func (s *SubmissionService) Submit(ctx context.Context, battleID, userID string, req SubmitRequest) (*Submission, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, apperrors.Validation("code is required")
	}
	if len(req.Code) > maxCodeBytes {
		return nil, apperrors.Validation("code is too long")
	}

	b, err := s.battles.Get(ctx, battleID)
	if err != nil {
		return nil, err
	}
	lang := b.Language
	if strings.TrimSpace(req.Language) != "" {
		if lang, err = language.Parse(req.Language); err != nil {
			return nil, err
		}
		if lang != b.Language {
			return nil, apperrors.Validation("this battle is fought in " + b.Language.Name())
		}
	}
	if !b.IsParticipant(userID) {
		return nil, apperrors.Forbidden("Only participants can submit to this battle")
	}
	if b.Status != battle.StatusInProgress {
		return nil, apperrors.Conflict("Battle is not in progress")
	}

	sub := &Submission{
		ID:          uuid.NewString(),
		BattleID:    battleID,
		UserID:      userID,
		Code:        req.Code,
		Language:    lang,
		Status:      evaluator.Pending,
		SubmittedAt: s.now(),
	}
	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Infow("Submission received", "submission", sub.ID, "battle", battleID, "user", userID)

	if err := s.dispatcher.Dispatch(ctx, sub.ID); err != nil {
		s.logger.Errorw("Dispatching submission failed", "submission", sub.ID, "error", err)
		failCtx := context.WithoutCancel(ctx)
		if failErr := s.Fail(failCtx, sub.ID, "Could not evaluate submission: "+apperrors.Message(err)); failErr != nil {
			return sub, err
		}
		if stored, getErr := s.repo.GetSubmission(failCtx, sub.ID); getErr == nil {
			sub = stored
		}
		return sub, err
	}
	return s.repo.GetSubmission(ctx, sub.ID)
}

// Fail closes a pending submission with an error verdict so it never stays
// pending after its evaluation was given up. Already graded submissions keep
// their verdict.
func (s *SubmissionService) Fail(ctx context.Context, submissionID, reason string) error {
	err := s.repo.StoreVerdict(ctx, submissionID, evaluator.Verdict{Status: evaluator.Error, Feedback: reason}, s.now())
	if err != nil && !errors.Is(err, apperrors.ErrConflict) {
		s.logger.Errorw("Storing error verdict failed", "submission", submissionID, "error", err)
		return err
	}
	return nil
}

// Evaluate grades a pending submission and, on a correct verdict, completes the battle.
// Grading an already evaluated submission returns it unchanged.
func (s *SubmissionService) Evaluate(ctx context.Context, submissionID string) (*Submission, error) {
	sub, err := s.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != evaluator.Pending {
		return sub, nil
	}
	b, err := s.battles.Get(ctx, sub.BattleID)
	if err != nil {
		return nil, err
	}
	p, err := s.problems.GetProblem(ctx, b.ProblemID)
	if err != nil {
		return nil, err
	}

	verdict := s.grader.Evaluate(ctx, sub.Language, sub.Code, p.TestCases)
	if err := s.repo.StoreVerdict(ctx, sub.ID, verdict, s.now()); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return s.repo.GetSubmission(ctx, sub.ID)
		}
		return nil, err
	}
	s.logger.Infow("Submission evaluated", "submission", sub.ID, "status", verdict.Status, "passed", verdict.Passed, "total", verdict.Total)

	if verdict.Status == evaluator.Correct {
		s.completeBattle(ctx, sub)
	}
	return s.repo.GetSubmission(ctx, sub.ID)
}

func (s *SubmissionService) completeBattle(ctx context.Context, sub *Submission) {
	_, err := s.battles.Complete(ctx, sub.BattleID, sub.UserID)
	switch {
	case err == nil:
		s.logger.Infow("Battle won", "battle", sub.BattleID, "winner", sub.UserID)
	case errors.Is(err, apperrors.ErrConflict):
		// Another correct submission completed the battle first.
		s.logger.Infow("Correct submission after battle was decided", "battle", sub.BattleID, "user", sub.UserID)
	default:
		s.logger.Errorw("Completing battle failed", "battle", sub.BattleID, "user", sub.UserID, "error", err)
	}
}

// Latest returns the caller's most recent submission to a battle they take part in.
func (s *SubmissionService) Latest(ctx context.Context, battleID, callerID string) (*Submission, error) {
	if err := s.requireParticipant(ctx, battleID, callerID); err != nil {
		return nil, err
	}
	return s.repo.Latest(ctx, battleID, callerID)
}

// ListForBattle returns the battle's submissions to one of its participants.
func (s *SubmissionService) ListForBattle(ctx context.Context, battleID, callerID string) ([]Submission, error) {
	if err := s.requireParticipant(ctx, battleID, callerID); err != nil {
		return nil, err
	}
	return s.repo.ListForBattle(ctx, battleID)
}

func (s *SubmissionService) requireParticipant(ctx context.Context, battleID, callerID string) error {
	b, err := s.battles.Get(ctx, battleID)
	if err != nil {
		return err
	}
	if !b.IsParticipant(callerID) {
		return apperrors.Forbidden("Only participants can see submissions")
	}
	return nil
}
