package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyLock_SameKeyIsExclusive(t *testing.T) {
	l := newKeyLock[string]()

	unlock := l.Lock("alice")

	acquired := make(chan struct{})
	go func() {
		u := l.Lock("alice")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	<-acquired
	assert.Zero(t, l.size())
}

func TestKeyLock_DifferentKeysDoNotBlock(t *testing.T) {
	l := newKeyLock[int64]()

	u1 := l.Lock(1)
	defer u1()

	done := make(chan struct{})
	go func() {
		u2 := l.Lock(2)
		u2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyLock_Counter(t *testing.T) {
	l := newKeyLock[string]()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("k")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Zero(t, l.size())
}
