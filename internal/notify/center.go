// Package notify はビューに表示する一時的な通知を管理する。
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level は通知の種類。
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification は1件の通知。
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier は通知の発行インターフェース。
type Notifier interface {
	Success(message string)
	Error(message string)
	Info(message string)
}

// Center は容量上限付きの通知キュー。上限を超えると古いものから捨てる。
type Center struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	now      func() time.Time
}

var _ Notifier = (*Center)(nil)

// NewCenter は新しいCenterを生成する。capacityが0以下の場合は50とする。
func NewCenter(capacity int) *Center {
	if capacity <= 0 {
		capacity = 50
	}
	return &Center{capacity: capacity, now: time.Now}
}

// Success は成功通知を追加する。
func (c *Center) Success(message string) { c.push(LevelSuccess, message) }

// Error はエラー通知を追加する。
func (c *Center) Error(message string) { c.push(LevelError, message) }

// Info は情報通知を追加する。
func (c *Center) Info(message string) { c.push(LevelInfo, message) }

func (c *Center) push(level Level, message string) {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: c.now(),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
	if over := len(c.items) - c.capacity; over > 0 {
		c.items = append([]Notification(nil), c.items[over:]...)
	}
}

// Drain は未読の通知を古い順に返し、キューを空にする。
func (c *Center) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.items
	c.items = nil
	if out == nil {
		return []Notification{}
	}
	return out
}

// Len は未読件数を返す。
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
