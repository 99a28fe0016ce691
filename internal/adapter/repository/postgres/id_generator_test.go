package postgres

import (
	"testing"
	"time"
)

func TestULIDGeneratorMonotonicWithinMillisecond(t *testing.T) {
	fixed := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	gen := newULIDGenerator(func() time.Time { return fixed })

	prev := gen.Generate()
	for i := 0; i < 100; i++ {
		next := gen.Generate()
		if next <= prev {
			t.Fatalf("id %d not increasing: %s <= %s", i, next, prev)
		}
		prev = next
	}
}
