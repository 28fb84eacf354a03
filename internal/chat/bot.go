// Package chat 脚本化的聊天助手
package chat

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/blues/helprojects/internal/logic"
	"github.com/blues/helprojects/internal/metrics"
	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/view"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed script.yaml
var defaultScript []byte

// 内置意图
const (
	IntentGreeting = "greeting"
	IntentStats    = "stats"
	IntentSuggest  = "suggest"
	IntentFallback = "fallback"
)

// Rule 关键字规则
type Rule struct {
	Intent   string   `yaml:"intent"`
	Keywords []string `yaml:"keywords"`
	Replies  []string `yaml:"replies"`
}

// Script 对话脚本
type Script struct {
	Greeting     string   `yaml:"greeting"`
	EmptySuggest string   `yaml:"empty_suggest"`
	Fallback     []string `yaml:"fallback"`
	Rules        []Rule   `yaml:"rules"`
}

// LoadScript 解析 YAML 脚本
func LoadScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse chat script: %w", err)
	}
	if len(s.Fallback) == 0 {
		return nil, fmt.Errorf("chat script: fallback replies are required")
	}
	for i, r := range s.Rules {
		if r.Intent == "" || len(r.Keywords) == 0 || len(r.Replies) == 0 {
			return nil, fmt.Errorf("chat script: rule %d is incomplete", i)
		}
	}
	return &s, nil
}

// DefaultScript 内置脚本
func DefaultScript() *Script {
	s, err := LoadScript(defaultScript)
	if err != nil {
		panic(err)
	}
	return s
}

// Reply 助手回复
type Reply struct {
	Intent    string `json:"intent"`
	Text      string `json:"text"`
	ProjectID string `json:"projectId,omitempty"`
}

// Bot 聊天助手，本身无状态
type Bot struct {
	script *Script
	pick   func(n int) int
}

// NewBot 创建助手，script 为 nil 时使用内置脚本
func NewBot(script *Script) *Bot {
	if script == nil {
		script = DefaultScript()
	}
	return &Bot{script: script, pick: rand.IntN}
}

// Greeting 欢迎语
func (b *Bot) Greeting() Reply {
	return Reply{Intent: IntentGreeting, Text: b.script.Greeting}
}

// Reply 按第一条命中的规则回复；stats 和 suggest 用当前项目数据填充
func (b *Bot) Reply(message string, projects []model.Project) Reply {
	reply := b.reply(message, projects)
	metrics.ChatMessages.WithLabelValues(reply.Intent).Inc()
	return reply
}

func (b *Bot) reply(message string, projects []model.Project) Reply {
	fold := cases.Fold()
	text := fold.String(strings.TrimSpace(message))
	if text == "" {
		return b.Greeting()
	}

	for _, r := range b.script.Rules {
		if !matches(fold, text, r.Keywords) {
			continue
		}
		tmpl := r.Replies[b.pick(len(r.Replies))]
		switch r.Intent {
		case IntentStats:
			st := logic.ComputeStats(projects)
			return Reply{Intent: r.Intent, Text: strings.NewReplacer(
				"{projects}", strconv.Itoa(st.TotalProjects),
				"{collected}", view.Rubles(st.TotalCollected),
				"{donors}", strconv.Itoa(st.TotalDonors),
			).Replace(tmpl)}
		case IntentSuggest:
			return b.suggest(tmpl, projects)
		default:
			return Reply{Intent: r.Intent, Text: tmpl}
		}
	}
	return Reply{Intent: IntentFallback, Text: b.script.Fallback[b.pick(len(b.script.Fallback))]}
}

func (b *Bot) suggest(tmpl string, projects []model.Project) Reply {
	var active []model.Project
	for _, p := range projects {
		if p.Status != model.ProjectStatusCompleted {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return Reply{Intent: IntentSuggest, Text: b.script.EmptySuggest}
	}
	p := active[b.pick(len(active))]
	return Reply{
		Intent: IntentSuggest,
		Text: strings.NewReplacer(
			"{title}", p.Title,
			"{collected}", view.Rubles(p.Collected),
			"{goal}", view.Rubles(p.Goal),
		).Replace(tmpl),
		ProjectID: p.ID,
	}
}

func matches(fold cases.Caser, text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, fold.String(k)) {
			return true
		}
	}
	return false
}
