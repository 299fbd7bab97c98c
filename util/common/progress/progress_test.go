package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAuto_NoTotal(t *testing.T) {
	assert.IsType(t, NopTracker{}, NewAuto("repositories", 0))
}

func TestBar_ConcurrentIncrement(t *testing.T) {
	tracker := NewBar("repositories", 20)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Increment("repo")
		}()
	}
	wg.Wait()
	tracker.Stop()

	if bar, ok := tracker.(*Bar); ok {
		assert.Equal(t, 20, bar.bar.Current)
	}
}
