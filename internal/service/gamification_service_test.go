package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockGameStore struct {
	user         domain.User
	points       int
	streak       int
	lastLogin    string
	txCount      int
	achievements []domain.Achievement
	createErr    error
	addErr       error
}

func (m *mockGameStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	if id != m.user.ID {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}
	u := m.user
	return &u, nil
}

func (m *mockGameStore) AddPoints(_ context.Context, _ string, points int) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.points += points
	return nil
}

func (m *mockGameStore) SetStreak(_ context.Context, _ string, streak int, lastLoginDate string) error {
	m.streak, m.lastLogin = streak, lastLoginDate
	return nil
}

func (m *mockGameStore) CountUserTransactions(_ context.Context, _ string) (int, error) {
	return m.txCount, nil
}

func (m *mockGameStore) ListAchievements(_ context.Context, _ string) ([]domain.Achievement, error) {
	return m.achievements, nil
}

func (m *mockGameStore) CreateAchievement(_ context.Context, a *domain.Achievement) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.achievements = append(m.achievements, *a)
	return nil
}

func (m *mockGameStore) Ranking(_ context.Context, _ string) ([]domain.RankingEntry, error) {
	return []domain.RankingEntry{{ID: m.user.ID, Name: m.user.Name, Points: m.user.Points}}, nil
}

func newGameService(store *mockGameStore) (*service.GamificationService, *observability.Metrics) {
	metrics := observability.NewMetrics()
	svc := service.NewGamificationService(store, metrics, zap.NewNop(),
		service.WithClock(func() time.Time { return fixedNow }))
	return svc, metrics
}

// --- Tests ---

func TestNextStreak(t *testing.T) {
	const today, yesterday = "2026-10-14", "2026-10-13"

	tests := []struct {
		name      string
		current   int
		lastLogin string
		want      int
	}{
		{"first login", 0, "", 1},
		{"consecutive day", 3, yesterday, 4},
		{"same day", 3, today, 3},
		{"same day without streak", 0, today, 1},
		{"gap resets", 9, "2026-10-10", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := service.NextStreak(tt.current, tt.lastLogin, today, yesterday); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestUpdateStreak(t *testing.T) {
	store := &mockGameStore{user: domain.User{ID: "u1", Streak: 6, LastLoginDate: "2026-10-13"}}
	svc, _ := newGameService(store)

	streak, err := svc.UpdateStreak(context.Background(), "u1")
	if err != nil {
		t.Fatalf("update streak: %v", err)
	}
	if streak != 7 || store.streak != 7 || store.lastLogin != "2026-10-14" {
		t.Errorf("unexpected streak %d stored as %d on %q", streak, store.streak, store.lastLogin)
	}
}

func TestAwardPoints(t *testing.T) {
	store := &mockGameStore{user: domain.User{ID: "u1"}}
	svc, metrics := newGameService(store)

	points, err := svc.AwardPoints(context.Background(), "u1", domain.ActionBudgetWithin)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if points != 15 || store.points != 15 {
		t.Errorf("expected 15 points, got %d stored %d", points, store.points)
	}
	if v := metrics.CounterValue("points", string(domain.ActionBudgetWithin)); v != 15 {
		t.Errorf("expected 15 points counted, got %v", v)
	}

	_, err = svc.AwardPoints(context.Background(), "u1", "JUMP")
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Errorf("expected unknown action rejected, got %v", err)
	}
}

func TestCheckMedals(t *testing.T) {
	tests := []struct {
		name    string
		store   *mockGameStore
		want    []domain.MedalType
		wantErr bool
	}{
		{
			name:  "nothing earned",
			store: &mockGameStore{user: domain.User{ID: "u1", Streak: 6}, txCount: 49},
		},
		{
			name:  "both thresholds reached",
			store: &mockGameStore{user: domain.User{ID: "u1", Streak: 7}, txCount: 50},
			want:  []domain.MedalType{domain.MedalRecorder, domain.MedalConsistent},
		},
		{
			name: "already held",
			store: &mockGameStore{
				user:         domain.User{ID: "u1", Streak: 10},
				txCount:      80,
				achievements: []domain.Achievement{{Type: domain.MedalRecorder}},
			},
			want: []domain.MedalType{domain.MedalConsistent},
		},
		{
			name: "granted concurrently",
			store: &mockGameStore{
				user:      domain.User{ID: "u1", Streak: 7},
				createErr: &domain.ErrConflict{Message: "already earned"},
			},
		},
		{
			name: "store failure",
			store: &mockGameStore{
				user:      domain.User{ID: "u1", Streak: 7},
				createErr: errors.New("disk full"),
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newGameService(tt.store)
			got, err := svc.CheckMedals(context.Background(), "u1")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("check medals: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("medal %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestRecordActivity_SwallowsFailures(t *testing.T) {
	store := &mockGameStore{user: domain.User{ID: "u1"}, addErr: errors.New("locked")}
	svc, _ := newGameService(store)

	// Must not panic or surface the store error.
	svc.RecordActivity(context.Background(), "u1", domain.ActionRegisterExpense, domain.ActionCategorize)
	if store.points != 0 {
		t.Errorf("expected no points stored, got %d", store.points)
	}
}

func TestView(t *testing.T) {
	earned := fixedNow.Add(-24 * time.Hour)
	store := &mockGameStore{
		user:         domain.User{ID: "u1", FamilyID: "f1", Name: "Ana", Points: 120, Streak: 3},
		achievements: []domain.Achievement{{Type: domain.MedalRecorder, EarnedAt: earned}},
	}
	svc, _ := newGameService(store)

	view, err := svc.View(context.Background(), domain.Session{UserID: "u1", FamilyID: "f1"})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.UserPoints != 120 || view.UserStreak != 3 || len(view.Ranking) != 1 {
		t.Errorf("unexpected view %+v", view)
	}
	if len(view.Medals) != len(domain.Medals) {
		t.Fatalf("expected every medal listed, got %d", len(view.Medals))
	}
	for _, m := range view.Medals {
		wantEarned := m.Type == domain.MedalRecorder
		if m.Earned != wantEarned {
			t.Errorf("medal %s: expected earned=%v", m.Type, wantEarned)
		}
		if wantEarned && (m.EarnedAt == nil || !m.EarnedAt.Equal(earned)) {
			t.Errorf("medal %s: unexpected earnedAt %v", m.Type, m.EarnedAt)
		}
	}
}
