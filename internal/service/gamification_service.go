package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var gameTracer = otel.Tracer("service/gamification")

// GamificationService awards points, tracks login streaks and grants medals.
type GamificationService struct {
	store   port.GamificationStore
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewGamificationService creates a new gamification service.
func NewGamificationService(store port.GamificationStore, metrics *observability.Metrics, logger *zap.Logger, opts ...Option) *GamificationService {
	o := applyOptions(opts)
	return &GamificationService{store: store, metrics: metrics, logger: logger, now: o.now}
}

// AwardPoints credits the action's points to the user.
func (s *GamificationService) AwardPoints(ctx context.Context, userID string, action domain.PointAction) (int, error) {
	ctx, span := gameTracer.Start(ctx, "GamificationService.AwardPoints")
	defer span.End()
	span.SetAttributes(attribute.String("points.action", string(action)))

	points := action.Points()
	if points == 0 {
		return 0, &domain.ErrValidation{Field: "action", Message: "ação desconhecida: " + string(action)}
	}
	if err := s.store.AddPoints(ctx, userID, points); err != nil {
		return 0, fmt.Errorf("add points: %w", err)
	}
	s.metrics.AddPoints(string(action), points)
	return points, nil
}

// UpdateStreak advances the login streak: +1 after a login yesterday,
// unchanged for a second login today, otherwise reset to 1.
func (s *GamificationService) UpdateStreak(ctx context.Context, userID string) (int, error) {
	ctx, span := gameTracer.Start(ctx, "GamificationService.UpdateStreak")
	defer span.End()

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	today := now.Format(domain.DateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(domain.DateLayout)

	streak := NextStreak(user.Streak, user.LastLoginDate, today, yesterday)
	if err := s.store.SetStreak(ctx, userID, streak, today); err != nil {
		return 0, fmt.Errorf("set streak: %w", err)
	}
	return streak, nil
}

// NextStreak computes the streak after a login on today.
func NextStreak(current int, lastLogin, today, yesterday string) int {
	switch lastLogin {
	case yesterday:
		return current + 1
	case today:
		if current < 1 {
			return 1
		}
		return current
	}
	return 1
}

// CheckMedals grants RECORDER (50+ transactions) and CONSISTENT (7-day
// streak) when earned and not yet held. It returns the newly granted medals.
func (s *GamificationService) CheckMedals(ctx context.Context, userID string) ([]domain.MedalType, error) {
	ctx, span := gameTracer.Start(ctx, "GamificationService.CheckMedals")
	defer span.End()

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	held, err := s.store.ListAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	has := make(map[domain.MedalType]bool, len(held))
	for _, a := range held {
		has[a.Type] = true
	}

	var awarded []domain.MedalType

	if !has[domain.MedalRecorder] {
		count, err := s.store.CountUserTransactions(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("count transactions: %w", err)
		}
		if count >= domain.RecorderThreshold {
			if ok, err := s.grant(ctx, userID, domain.MedalRecorder); err != nil {
				return nil, err
			} else if ok {
				awarded = append(awarded, domain.MedalRecorder)
			}
		}
	}

	if !has[domain.MedalConsistent] && user.Streak >= domain.ConsistentThreshold {
		if ok, err := s.grant(ctx, userID, domain.MedalConsistent); err != nil {
			return nil, err
		} else if ok {
			awarded = append(awarded, domain.MedalConsistent)
		}
	}

	if len(awarded) > 0 {
		s.logger.Info("medals awarded",
			zap.String("user_id", userID),
			zap.Any("medals", awarded),
		)
	}
	return awarded, nil
}

// grant reports false when a concurrent call already granted the medal.
func (s *GamificationService) grant(ctx context.Context, userID string, medal domain.MedalType) (bool, error) {
	m, _ := domain.MedalByType(medal)
	err := s.store.CreateAchievement(ctx, &domain.Achievement{
		UserID:   userID,
		Type:     medal,
		Name:     m.Name,
		Icon:     m.Icon,
		EarnedAt: s.now().UTC(),
	})
	var conflict *domain.ErrConflict
	if errors.As(err, &conflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create achievement: %w", err)
	}
	return true, nil
}

// RecordActivity awards points for the actions and then checks medals.
// Failures are logged and never returned to the caller.
func (s *GamificationService) RecordActivity(ctx context.Context, userID string, actions ...domain.PointAction) {
	for _, action := range actions {
		if _, err := s.AwardPoints(ctx, userID, action); err != nil {
			s.logger.Warn("award points failed",
				zap.String("user_id", userID),
				zap.String("action", string(action)),
				zap.Error(err),
			)
		}
	}
	if _, err := s.CheckMedals(ctx, userID); err != nil {
		s.logger.Warn("check medals failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// View builds the ranking, medal board and the caller's score.
func (s *GamificationService) View(ctx context.Context, session domain.Session) (*domain.GamificationView, error) {
	ctx, span := gameTracer.Start(ctx, "GamificationService.View")
	defer span.End()

	ranking, err := s.store.Ranking(ctx, session.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	held, err := s.store.ListAchievements(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}

	earned := make(map[domain.MedalType]time.Time, len(held))
	for _, a := range held {
		earned[a.Type] = a.EarnedAt
	}

	medals := make([]domain.MedalStatus, 0, len(domain.Medals))
	for _, m := range domain.Medals {
		st := domain.MedalStatus{Medal: m}
		if at, ok := earned[m.Type]; ok {
			at := at
			st.Earned = true
			st.EarnedAt = &at
		}
		medals = append(medals, st)
	}

	return &domain.GamificationView{
		Ranking:    ranking,
		Medals:     medals,
		UserPoints: user.Points,
		UserStreak: user.Streak,
	}, nil
}
