package model

// 游戏化默认值
const (
	DefaultCoins = 100
	DefaultLevel = 1
	XPPerLevel   = 100
)

// GameStats 每个身份的游戏化状态
type GameStats struct {
	Coins  int      `json:"coins"`
	XP     int      `json:"xp"`
	Level  int      `json:"level"`
	Badges []string `json:"badges"`

	// 徽章规则用到的计数
	CreatedCount   int   `json:"createdCount"`
	SupportedCount int   `json:"supportedCount"`
	TotalDonated   int64 `json:"totalDonated"`

	// 一次性加成
	DoubleNextDonation bool `json:"doubleNextDonation,omitempty"`
}

// NewGameStats 初始状态
func NewGameStats() *GameStats {
	return &GameStats{
		Coins:  DefaultCoins,
		Level:  DefaultLevel,
		Badges: []string{},
	}
}

// HasBadge 是否已解锁徽章
func (s *GameStats) HasBadge(id string) bool {
	for _, b := range s.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// LevelForXP 等级 = floor(xp/100)+1
func LevelForXP(xp int) int {
	return xp/XPPerLevel + 1
}
