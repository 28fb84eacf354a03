package logic

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blues/helprojects/internal/metrics"
	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/storage"
)

// 奖励数值
const (
	LevelUpCoins       = 50
	DoubleDonationCost = 50
	SupportBaseXP      = 10
	SupportXPPerRubles = 100 // 每 100 ₽ 加 1 xp
	SupportCoins       = 5
	CreateProjectXP    = 50
	CreateProjectCoins = 20
)

// GameEventKind 游戏事件类型
type GameEventKind string

const (
	GameEventLevelUp GameEventKind = "level_up"
	GameEventBadge   GameEventKind = "badge"
)

// GameEvent 升级或解锁徽章
type GameEvent struct {
	Kind  GameEventKind `json:"kind"`
	Level int           `json:"level,omitempty"`
	Badge *Badge        `json:"badge,omitempty"`
}

// Badge 徽章规则
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Coins       int    `json:"coins"`
	XP          int    `json:"xp"`

	rule func(s *model.GameStats) bool
}

// Badges 固定的徽章表
var Badges = []Badge{
	{ID: "first_support", Name: "Первый шаг", Icon: "🌟", Description: "Поддержать первый проект", Coins: 10, XP: 20,
		rule: func(s *model.GameStats) bool { return s.SupportedCount >= 1 }},
	{ID: "generous", Name: "Щедрая душа", Icon: "💝", Description: "Поддержать 5 проектов", Coins: 30, XP: 50,
		rule: func(s *model.GameStats) bool { return s.SupportedCount >= 5 }},
	{ID: "patron", Name: "Меценат", Icon: "👑", Description: "Пожертвовать 10 000 ₽", Coins: 100, XP: 100,
		rule: func(s *model.GameStats) bool { return s.TotalDonated >= 10000 }},
	{ID: "creator", Name: "Создатель", Icon: "🚀", Description: "Создать первый проект", Coins: 20, XP: 30,
		rule: func(s *model.GameStats) bool { return s.CreatedCount >= 1 }},
	{ID: "serial_creator", Name: "Серийный автор", Icon: "🏗️", Description: "Создать 3 проекта", Coins: 50, XP: 80,
		rule: func(s *model.GameStats) bool { return s.CreatedCount >= 3 }},
	{ID: "rich", Name: "Богач", Icon: "💰", Description: "Накопить 500 монет", Coins: 25, XP: 50,
		rule: func(s *model.GameStats) bool { return s.Coins >= 500 }},
}

// LookupBadge 按 ID 查找徽章
func LookupBadge(id string) (Badge, bool) {
	for _, b := range Badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// AddXP 增加经验并重算等级，每升一级奖励 50 金币
func AddXP(s *model.GameStats, n int) []GameEvent {
	if n <= 0 {
		return nil
	}
	before := s.Level
	s.XP += n
	s.Level = model.LevelForXP(s.XP)

	var events []GameEvent
	for lvl := before + 1; lvl <= s.Level; lvl++ {
		s.Coins += LevelUpCoins
		events = append(events, GameEvent{Kind: GameEventLevelUp, Level: lvl})
	}
	return events
}

// AddCoins 增加金币
func AddCoins(s *model.GameStats, n int) {
	if n > 0 {
		s.Coins += n
	}
}

// SpendCoins 扣除金币，余额不足时不修改
func SpendCoins(s *model.GameStats, n int) error {
	if n < 0 {
		return newValidationError("coins", "Некорректная сумма")
	}
	if s.Coins < n {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientCoins, s.Coins, n)
	}
	s.Coins -= n
	return nil
}

// EvaluateBadges 解锁新满足条件的徽章，奖励可能触发新的徽章，直到没有变化
func EvaluateBadges(s *model.GameStats) []GameEvent {
	var events []GameEvent
	for {
		unlocked := false
		for i := range Badges {
			b := &Badges[i]
			if s.HasBadge(b.ID) || !b.rule(s) {
				continue
			}
			s.Badges = append(s.Badges, b.ID)
			metrics.BadgesUnlocked.WithLabelValues(b.ID).Inc()
			badge := *b
			events = append(events, GameEvent{Kind: GameEventBadge, Badge: &badge})
			AddCoins(s, b.Coins)
			events = append(events, AddXP(s, b.XP)...)
			unlocked = true
		}
		if !unlocked {
			return events
		}
	}
}

// BuyDoubleDonation 花 50 金币让下一次支持翻倍
func BuyDoubleDonation(s *model.GameStats) error {
	if s.DoubleNextDonation {
		return newValidationError("bonus", "Бонус уже активен")
	}
	if err := SpendCoins(s, DoubleDonationCost); err != nil {
		return err
	}
	s.DoubleNextDonation = true
	return nil
}

// ConsumeDoubleDonation 取出一次性翻倍标记
func ConsumeDoubleDonation(s *model.GameStats) bool {
	if !s.DoubleNextDonation {
		return false
	}
	s.DoubleNextDonation = false
	return true
}

// RewardSupport 支持项目后的奖励
func RewardSupport(s *model.GameStats, amount int64) []GameEvent {
	s.SupportedCount++
	s.TotalDonated += amount
	events := AddXP(s, SupportBaseXP+int(amount/SupportXPPerRubles))
	AddCoins(s, SupportCoins)
	return append(events, EvaluateBadges(s)...)
}

// RewardCreate 创建项目后的奖励
func RewardCreate(s *model.GameStats) []GameEvent {
	s.CreatedCount++
	events := AddXP(s, CreateProjectXP)
	AddCoins(s, CreateProjectCoins)
	return append(events, EvaluateBadges(s)...)
}

// GameLogic 游戏化状态存取，按邮箱区分身份
type GameLogic struct {
	store storage.Store
	mu    sync.Mutex
}

// NewGameLogic 创建游戏化状态存取
func NewGameLogic(store storage.Store) *GameLogic {
	return &GameLogic{store: store}
}

func gameKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (l *GameLogic) all(ctx context.Context) (map[string]*model.GameStats, error) {
	stats := map[string]*model.GameStats{}
	if _, err := l.store.Get(ctx, storage.KeyStats, &stats); err != nil {
		return nil, fmt.Errorf("load game stats: %w", err)
	}
	return stats, nil
}

// Load 读取身份的状态，首次使用时返回默认值
func (l *GameLogic) Load(ctx context.Context, email string) (*model.GameStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stats, err := l.all(ctx)
	if err != nil {
		return model.NewGameStats(), err
	}
	s, ok := stats[gameKey(email)]
	if !ok || s == nil {
		return model.NewGameStats(), nil
	}
	if s.Level < model.DefaultLevel {
		s.Level = model.LevelForXP(s.XP)
	}
	if s.Badges == nil {
		s.Badges = []string{}
	}
	return s, nil
}

// Save 写入身份的状态
func (l *GameLogic) Save(ctx context.Context, email string, s *model.GameStats) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stats, err := l.all(ctx)
	if err != nil {
		// 读取失败时不覆盖其他身份的数据
		return persistenceWarning(storage.KeyStats, err)
	}
	cp := *s
	cp.Badges = append([]string{}, s.Badges...)
	stats[gameKey(email)] = &cp
	if err := l.store.Put(ctx, storage.KeyStats, stats); err != nil {
		return persistenceWarning(storage.KeyStats, err)
	}
	return nil
}
