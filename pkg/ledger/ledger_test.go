package ledger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_PreservesOrder(t *testing.T) {
	l := New()
	l.Append("calc", "logging", "logging added to 'calc'")
	l.Appendf("calc", "retry", "retry added to '%s' (max %d)", "calc", 3)

	assert.Equal(t, []string{
		"logging added to 'calc'",
		"retry added to 'calc' (max 3)",
	}, l.Descriptions())

	history := l.History()
	require.Len(t, history, 2)
	assert.Equal(t, "retry", history[1].Behavior)
	_, err := uuid.Parse(history[0].ID)
	assert.NoError(t, err)
	assert.NotEqual(t, history[0].ID, history[1].ID)
}

func TestHistory_IsACopy(t *testing.T) {
	l := New()
	l.Append("calc", "caching", "caching added to 'calc'")

	h := l.History()
	h[0].Description = "tampered"
	_ = append(h, Record{Description: "extra"})

	assert.Equal(t, []string{"caching added to 'calc'"}, l.Descriptions())
	assert.Equal(t, 1, l.Len())
}

func TestAppend_Concurrent(t *testing.T) {
	l := New()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Append(fmt.Sprintf("op-%d", i), "logging", "x")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, l.Len())
	seen := make(map[string]bool)
	for _, r := range l.History() {
		seen[r.Operation] = true
	}
	assert.Len(t, seen, 100)
}
