package reembed

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressTracker_Reports(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "documents", 40, 10)
	tracker.Start()

	tracker.Increment(5)
	assert.Empty(t, buf.String(), "below the report interval")

	tracker.Increment(5)
	assert.Contains(t, buf.String(), "\rProgress: 10/40 documents (25.0%)")

	buf.Reset()
	tracker.Update(35)
	assert.Contains(t, buf.String(), "35/40 documents (87.5%)")
	assert.Contains(t, buf.String(), "documents/s")
	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "documents", 100, 10)
	tracker.Start()
	tracker.Increment(150)

	assert.Equal(t, 100, tracker.current)
	assert.Contains(t, buf.String(), "100/100 documents (100.0%)")
}

func TestProgressTracker_Finish(t *testing.T) {
	tests := []struct {
		name  string
		total int
		seen  int
		want  string
	}{
		{"partial", 100, 75, "100/100 documents (100.0%)"},
		{"empty", 0, 0, "0/0 documents (0.0%)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tracker := NewProgressTracker(&buf, "documents", tt.total, 1000)
			tracker.Start()
			tracker.Update(tt.seen)
			tracker.Finish()

			output := buf.String()
			assert.Contains(t, output, tt.want)
			assert.True(t, strings.HasSuffix(output, "\n"))
		})
	}
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "documents", 100, 10)

	tracker.Increment(10)
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_ConcurrentIncrement(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "pages", 64, 16)
	tracker.Start()

	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Increment(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 64, tracker.current)
	lines := strings.Split(strings.TrimPrefix(buf.String(), "\r"), "\r")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[3], "64/64 pages")
}

func TestProgressTracker_NonPositiveInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "documents", 3, 0)
	tracker.Start()
	tracker.Increment(1)
	assert.Contains(t, buf.String(), "1/3 documents")
}
