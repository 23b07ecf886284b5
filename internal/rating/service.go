package rating

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"go.uber.org/zap"
)

var initialHistoryNamespace = uuid.MustParse("6c0f4b8e-2f51-4a53-9a43-8f1b3f3d7a10")

const initialNote = "Initial rating"

type RatingService struct {
	repo   RatingRepository
	policy Policy
	now    func() time.Time
	logger *zap.SugaredLogger
}

func NewRatingService(repo RatingRepository, policy Policy) *RatingService {
	return &RatingService{
		repo:   repo,
		policy: policy,
		now:    time.Now,
		logger: logger.NewNamedLogger("rating"),
	}
}

// InitialEntryID is the id of the synthetic first history entry of a user.
func InitialEntryID(userID string) string {
	return uuid.NewSHA1(initialHistoryNamespace, []byte(userID)).String()
}

// RecordRatingChange writes the profile rating and then appends a history entry.
// The two writes are not atomic: a failed append leaves the profile updated.
func (s *RatingService) RecordRatingChange(ctx context.Context, userID string, newRating int, battleID, notes *string) error {
	if err := s.repo.UpdateRating(ctx, userID, newRating); err != nil {
		return err
	}
	entry := &HistoryEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Rating:    newRating,
		BattleID:  battleID,
		Notes:     notes,
		CreatedAt: s.now(),
	}
	if err := s.repo.AppendHistory(ctx, entry); err != nil {
		s.logger.Errorw("Rating history append failed after profile update", "user", userID, "rating", newRating, "error", err)
		return err
	}
	return nil
}

// EnsureInitialHistory seeds a user's history from the profile rating when it is empty.
func (s *RatingService) EnsureInitialHistory(ctx context.Context, userID string) error {
	count, err := s.repo.CountHistory(ctx, userID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	current, err := s.repo.GetRating(ctx, userID)
	if err != nil {
		return err
	}
	note := initialNote
	return s.repo.InsertHistoryIfAbsent(ctx, &HistoryEntry{
		ID:        InitialEntryID(userID),
		UserID:    userID,
		Rating:    current,
		Notes:     &note,
		CreatedAt: s.now(),
	})
}

func (s *RatingService) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	if err := s.EnsureInitialHistory(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, userID)
}

// ApplyBattleResult rates both participants from their pre-battle ratings.
func (s *RatingService) ApplyBattleResult(ctx context.Context, result BattleResult) ([]RatingChange, error) {
	for _, id := range []string{result.WinnerID, result.LoserID} {
		if err := s.EnsureInitialHistory(ctx, id); err != nil {
			return nil, err
		}
	}

	winnerBefore, err := s.repo.GetRating(ctx, result.WinnerID)
	if err != nil {
		return nil, err
	}
	loserBefore, err := s.repo.GetRating(ctx, result.LoserID)
	if err != nil {
		return nil, err
	}

	changes := []RatingChange{
		{
			UserID: result.WinnerID,
			Before: winnerBefore,
			After:  s.policy.Adjust(winnerBefore, loserBefore, result.Difficulty, Win),
		},
		{
			UserID: result.LoserID,
			Before: loserBefore,
			After:  s.policy.Adjust(loserBefore, winnerBefore, result.Difficulty, Loss),
		},
	}

	battleID := result.BattleID
	note := "Battle " + s.policy.Name()
	var errs []error
	for _, c := range changes {
		if err := s.RecordRatingChange(ctx, c.UserID, c.After, &battleID, &note); err != nil {
			errs = append(errs, err)
		}
	}
	s.logger.Infow("Battle rated", "battle", result.BattleID, "policy", s.policy.Name(),
		"winner", changes[0].After, "loser", changes[1].After)
	return changes, errors.Join(errs...)
}
