// Package metrics 进程级 prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProjectEvents 项目领域事件计数，按事件类型
	ProjectEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helprojects_project_events_total",
		Help: "Project domain events by type",
	}, []string{"type"})

	// DonationAmount 累计计入项目的支持金额（卢布）
	DonationAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helprojects_donation_amount_rubles_total",
		Help: "Effective donation amount credited to projects",
	})

	// PersistenceWarnings 本地存储写入失败次数
	PersistenceWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helprojects_persistence_warnings_total",
		Help: "Local store write failures by key",
	}, []string{"key"})

	// RemoteFailures 远程存储操作失败次数
	RemoteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helprojects_remote_failures_total",
		Help: "Remote store failures by operation",
	}, []string{"op"})

	// BadgesUnlocked 徽章解锁次数
	BadgesUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helprojects_badges_unlocked_total",
		Help: "Badge unlocks by badge id",
	}, []string{"badge"})

	// ChatMessages 聊天机器人消息数，按意图
	ChatMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helprojects_chat_messages_total",
		Help: "Chat bot replies by intent",
	}, []string{"intent"})
)
