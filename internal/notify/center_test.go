package notify

import (
	"fmt"
	"sync"
	"testing"
)

func TestCenter_DrainReturnsInOrder(t *testing.T) {
	c := NewCenter(10)
	c.Success("Status updated")
	c.Error("Failed to update status")
	c.Info("Lead deleted")

	got := c.Drain()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	wantLevels := []Level{LevelSuccess, LevelError, LevelInfo}
	for i, n := range got {
		if n.Level != wantLevels[i] {
			t.Errorf("got[%d].Level = %q, want %q", i, n.Level, wantLevels[i])
		}
		if n.ID == "" {
			t.Errorf("got[%d].ID is empty", i)
		}
	}
	if got[1].Message != "Failed to update status" {
		t.Errorf("Message = %q, want %q", got[1].Message, "Failed to update status")
	}

	if again := c.Drain(); len(again) != 0 {
		t.Errorf("second Drain len = %d, want 0", len(again))
	}
}

func TestCenter_DropsOldestOverCapacity(t *testing.T) {
	c := NewCenter(2)
	c.Info("one")
	c.Info("two")
	c.Info("three")

	got := c.Drain()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Message != "two" || got[1].Message != "three" {
		t.Errorf("messages = [%q %q], want [two three]", got[0].Message, got[1].Message)
	}
}

func TestCenter_ConcurrentPush(t *testing.T) {
	c := NewCenter(1000)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Error(fmt.Sprintf("failure %d", i))
		}(i)
	}
	wg.Wait()

	if c.Len() != 100 {
		t.Errorf("Len = %d, want 100", c.Len())
	}
}

func TestNewCenter_DefaultCapacity(t *testing.T) {
	c := NewCenter(0)
	if c.capacity != 50 {
		t.Errorf("capacity = %d, want 50", c.capacity)
	}
}
