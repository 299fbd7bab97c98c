package types

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferStats(t *testing.T) {
	var stats TransferStats
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := StatusSuccess
			if i%5 == 0 {
				status = StatusFail
			}
			stats.Add(TaskStat{Line: i, Status: status})
		}()
	}
	wg.Wait()

	assert.Len(t, stats.Stats(), 50)
	assert.Equal(t, 10, stats.Count(StatusFail))
	assert.Equal(t, 40, stats.Count(StatusSuccess))
	assert.Zero(t, stats.Count(StatusSkip))

	snapshot := stats.Stats()
	snapshot[0].Status = StatusSkip
	assert.Zero(t, stats.Count(StatusSkip))
}
