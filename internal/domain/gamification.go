package domain

import "time"

// ============================================================
// Gamification
// ============================================================

type PointAction string

const (
	ActionRegisterExpense PointAction = "REGISTER_EXPENSE"
	ActionRegisterIncome  PointAction = "REGISTER_INCOME"
	ActionMeetGoal        PointAction = "MEET_GOAL"
	ActionDailyLogin      PointAction = "DAILY_LOGIN"
	ActionCategorize      PointAction = "CATEGORIZE"
	ActionBudgetWithin    PointAction = "BUDGET_WITHIN"
)

// Points returns the points awarded for the action.
func (a PointAction) Points() int {
	switch a {
	case ActionRegisterExpense, ActionRegisterIncome:
		return 10
	case ActionMeetGoal:
		return 20
	case ActionDailyLogin, ActionCategorize:
		return 5
	case ActionBudgetWithin:
		return 15
	}
	return 0
}

type MedalType string

const (
	MedalEconomist  MedalType = "ECONOMIST"
	MedalConsistent MedalType = "CONSISTENT"
	MedalMaster     MedalType = "MASTER"
	MedalRecorder   MedalType = "RECORDER"
	MedalSaver      MedalType = "SAVER"
)

type Medal struct {
	Type        MedalType `json:"type"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
}

// Medals lists every medal in display order.
var Medals = []Medal{
	{Type: MedalEconomist, Name: "Economista", Icon: "🏆", Description: "Ficou dentro do orçamento o mês todo"},
	{Type: MedalConsistent, Name: "Consistente", Icon: "🔥", Description: "Manteve uma sequência de 7 dias registrando"},
	{Type: MedalMaster, Name: "Mestre Financeiro", Icon: "👑", Description: "Cumpriu todas as metas mensais"},
	{Type: MedalRecorder, Name: "Registrador", Icon: "📝", Description: "Registrou mais de 50 transações"},
	{Type: MedalSaver, Name: "Poupador", Icon: "💎", Description: "Poupou mais de 30% da renda"},
}

// MedalByType returns the medal definition.
func MedalByType(t MedalType) (Medal, bool) {
	for _, m := range Medals {
		if m.Type == t {
			return m, true
		}
	}
	return Medal{}, false
}

const (
	RecorderThreshold   = 50
	ConsistentThreshold = 7
)

type Achievement struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Type     MedalType `json:"type"`
	Name     string    `json:"name"`
	Icon     string    `json:"icon"`
	EarnedAt time.Time `json:"earnedAt"`
}

type RankingEntry struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Points       int           `json:"points"`
	Streak       int           `json:"streak"`
	Achievements []Achievement `json:"achievements"`
}

type MedalStatus struct {
	Medal
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earnedAt"`
}

// GamificationView is returned by GET /api/gamification.
type GamificationView struct {
	Ranking    []RankingEntry `json:"ranking"`
	Medals     []MedalStatus  `json:"medals"`
	UserPoints int            `json:"userPoints"`
	UserStreak int            `json:"userStreak"`
}
