package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

const stPhone State = "await_phone"

func TestDefaultStateIsIdle(t *testing.T) {
	m := NewManager()
	assert.Equal(t, StateIdle, m.GetState(1))
	assert.False(t, m.InProgress(1))
}

func TestSetAndClear(t *testing.T) {
	m := NewManager()
	m.SetState(1, stPhone)
	m.SetTemp(1, "phone", "+79001234567")

	assert.True(t, m.InProgress(1))
	v, ok := m.GetTemp(1, "phone")
	assert.True(t, ok)
	assert.Equal(t, "+79001234567", v)

	m.Clear(1)
	assert.Equal(t, StateIdle, m.GetState(1))
	_, ok = m.GetTemp(1, "phone")
	assert.False(t, ok)
}

func TestClearTempKeepsState(t *testing.T) {
	m := NewManager()
	m.SetState(1, stPhone)
	m.SetTemp(1, "phone", "+79001234567")

	m.ClearTemp(1)
	assert.Equal(t, stPhone, m.GetState(1))
	_, ok := m.GetTemp(1, "phone")
	assert.False(t, ok)
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	m := NewManager()
	m.SetState(1, stPhone)
	m.SetTemp(1, "phone", "+79001234567")

	assert.Equal(t, StateIdle, m.GetState(2))
	_, ok := m.GetTemp(2, "phone")
	assert.False(t, ok)
}

func TestConcurrentUsers(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.SetState(id, stPhone)
			m.SetTemp(id, "phone", "+79001234567")
			m.Clear(id)
		}(i)
	}
	wg.Wait()
}
