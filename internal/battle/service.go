package battle

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/language"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"github.com/thesrcielos/TopCodeBattle/internal/problem"
	"github.com/thesrcielos/TopCodeBattle/internal/rating"
	"go.uber.org/zap"
)

const (
	maxDurationMinutes = 180
	maxPageSize        = 50
)

type ProblemPicker interface {
	PickRandom(ctx context.Context) (*problem.Problem, error)
}

type Rater interface {
	ApplyBattleResult(ctx context.Context, result rating.BattleResult) ([]rating.RatingChange, error)
}

// Notifier is told about lifecycle transitions so connected participants can be informed.
type Notifier interface {
	BattleJoined(ctx context.Context, b *Battle) error
	BattleCompleted(ctx context.Context, b *Battle, changes []rating.RatingChange) error
	BattleAborted(ctx context.Context, battleID string) error
}

type NopNotifier struct{}

func (NopNotifier) BattleJoined(context.Context, *Battle) error { return nil }

func (NopNotifier) BattleCompleted(context.Context, *Battle, []rating.RatingChange) error { return nil }

func (NopNotifier) BattleAborted(context.Context, string) error { return nil }

type BattleService struct {
	repo     BattleRepository
	problems ProblemPicker
	rater    Rater
	notifier Notifier
	now      func() time.Time
	logger   *zap.SugaredLogger
}

func NewBattleService(repo BattleRepository, problems ProblemPicker, rater Rater, notifier Notifier) *BattleService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BattleService{
		repo:     repo,
		problems: problems,
		rater:    rater,
		notifier: notifier,
		now:      time.Now,
		logger:   logger.NewNamedLogger("battle"),
	}
}

func (r *CreateBattleRequest) Validate() (language.Language, problem.Difficulty, int, Type, error) {
	if strings.TrimSpace(r.Language) == "" || strings.TrimSpace(r.Difficulty) == "" || strings.TrimSpace(r.Duration) == "" {
		return "", "", 0, "", apperrors.Validation("language, difficulty and duration are required")
	}
	lang, err := language.Parse(r.Language)
	if err != nil {
		return "", "", 0, "", err
	}
	difficulty, err := problem.ParseDifficulty(r.Difficulty)
	if err != nil {
		return "", "", 0, "", err
	}
	duration, err := strconv.Atoi(strings.TrimSpace(r.Duration))
	if err != nil || duration <= 0 || duration > maxDurationMinutes {
		return "", "", 0, "", apperrors.Validation("duration must be a whole number of minutes between 1 and 180")
	}
	battleType, err := parseType(r.BattleType)
	if err != nil {
		return "", "", 0, "", err
	}
	return lang, difficulty, duration, battleType, nil
}

func parseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "casual":
		return Casual, nil
	case "rated":
		return Rated, nil
	}
	return "", apperrors.Validation("battle type must be Rated or Casual")
}

func (s *BattleService) Create(ctx context.Context, creatorID string, req CreateBattleRequest) (*Battle, error) {
	lang, difficulty, duration, battleType, err := req.Validate()
	if err != nil {
		return nil, err
	}
	p, err := s.problems.PickRandom(ctx)
	if err != nil {
		return nil, err
	}

	b := &Battle{
		ID:         uuid.NewString(),
		CreatorID:  creatorID,
		ProblemID:  p.ID,
		Language:   lang,
		Difficulty: difficulty,
		Duration:   duration,
		BattleType: battleType,
		Status:     StatusOpen,
		CreatedAt:  s.now(),
	}
	if err := s.repo.CreateBattle(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Infow("Battle created", "battle", b.ID, "creator", creatorID, "problem", p.ID, "type", battleType)
	return b, nil
}

func (s *BattleService) Get(ctx context.Context, battleID string) (*Battle, error) {
	return s.repo.GetBattle(ctx, battleID)
}

func (s *BattleService) Join(ctx context.Context, battleID, defenderID string) (*Battle, error) {
	b, err := s.repo.GetBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if b.CreatorID == defenderID {
		return nil, apperrors.Forbidden("You cannot join your own battle")
	}
	if err := s.repo.MarkJoined(ctx, battleID, defenderID, s.now()); err != nil {
		return nil, err
	}

	joined, err := s.repo.GetBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("Battle joined", "battle", battleID, "defender", defenderID)
	if err := s.notifier.BattleJoined(ctx, joined); err != nil {
		s.logger.Warnw("Could not announce join", "battle", battleID, "error", err)
	}
	return joined, nil
}

func (s *BattleService) Abort(ctx context.Context, battleID, callerID string) error {
	b, err := s.repo.GetBattle(ctx, battleID)
	if err != nil {
		return err
	}
	if b.CreatorID != callerID {
		return apperrors.Forbidden("Only the creator can abort a battle")
	}
	if b.Status == StatusCompleted {
		return apperrors.Forbidden("A completed battle cannot be aborted")
	}
	deleted, err := s.repo.DeleteUnfinished(ctx, battleID, callerID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.Forbidden("A completed battle cannot be aborted")
	}

	s.logger.Infow("Battle aborted", "battle", battleID)
	if err := s.notifier.BattleAborted(ctx, battleID); err != nil {
		s.logger.Warnw("Could not announce abort", "battle", battleID, "error", err)
	}
	return nil
}

// Complete closes an in-progress battle with the given winner and, for rated
// battles, updates both ratings. When only the rating write fails the completed
// battle is returned together with the error.
func (s *BattleService) Complete(ctx context.Context, battleID, winnerID string) (*Battle, error) {
	b, err := s.repo.GetBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(winnerID) {
		return nil, apperrors.Forbidden("Winner must be a participant of the battle")
	}
	if err := s.repo.MarkCompleted(ctx, battleID, winnerID, s.now()); err != nil {
		return nil, err
	}
	completed, err := s.repo.GetBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("Battle completed", "battle", battleID, "winner", winnerID)

	var changes []rating.RatingChange
	var ratingErr error
	if completed.BattleType == Rated {
		loserID, ok := completed.Opponent(winnerID)
		if !ok {
			ratingErr = errors.New("rated battle has no opponent")
		} else {
			changes, ratingErr = s.rater.ApplyBattleResult(ctx, rating.BattleResult{
				BattleID:   battleID,
				Difficulty: completed.Difficulty,
				WinnerID:   winnerID,
				LoserID:    loserID,
			})
		}
		if ratingErr != nil {
			s.logger.Errorw("Rating update incomplete", "battle", battleID, "error", ratingErr)
		}
	}

	if err := s.notifier.BattleCompleted(ctx, completed, changes); err != nil {
		s.logger.Warnw("Could not announce completion", "battle", battleID, "error", err)
	}
	return completed, ratingErr
}

func (s *BattleService) ListOpen(ctx context.Context, page, size int) ([]Battle, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = maxPageSize
	}
	return s.repo.ListOpen(ctx, (page-1)*size, size)
}

func (s *BattleService) ListForUser(ctx context.Context, userID string, limit int) ([]Battle, error) {
	if limit < 1 || limit > maxPageSize {
		limit = maxPageSize
	}
	return s.repo.ListForUser(ctx, userID, limit)
}
