package crate

import (
	"testing"
	"time"
)

// stepClock advances a fixed amount on every reading, so a single middleware
// run appears to take exactly one step.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	current := c.now
	c.now = c.now.Add(c.step)
	return current
}

func TestPipelinePassthroughWithoutMiddleware(t *testing.T) {
	c, _ := newTestCrate(t, Record{"Health": 100})

	if old := c.Update("Health", 42); old != 100 {
		t.Fatalf("expected previous value 100, got %v", old)
	}
	if got := c.Get("Health"); got != 42 {
		t.Fatalf("expected candidate committed untouched, got %v", got)
	}
}

func TestUseReplacesPriorMiddleware(t *testing.T) {
	c, _ := newTestCrate(t, Record{"Health": 100})

	c.Use("Health", func(_, _ any) any { return 1 })
	c.Use("Health", func(_, _ any) any { return 2 })

	c.Update("Health", 50)
	if got := c.Get("Health"); got != 2 {
		t.Fatalf("expected re-registration to replace prior middleware, got %v", got)
	}
}

func TestUseNilRemovesMiddleware(t *testing.T) {
	c, _ := newTestCrate(t, Record{"Health": 100})

	c.Use("Health", func(_, _ any) any { return 1 })
	c.Use("Health", nil)

	c.Update("Health", 50)
	if got := c.Get("Health"); got != 50 {
		t.Fatalf("expected candidate to pass through after removal, got %v", got)
	}
}

func TestUseUnknownKeyIgnored(t *testing.T) {
	c, logger := newTestCrate(t, Record{"Health": 100})

	c.Use("Mana", func(_, _ any) any { return 1 })
	if len(logger.warns) != 1 {
		t.Fatalf("expected one warning for unknown key, got %d", len(logger.warns))
	}
	if c.middleware.registered("Mana") {
		t.Fatalf("expected no registration outside the schema")
	}
}

func TestSoftBudgetWarnsAfterTheFact(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0), step: 300 * time.Millisecond}
	var runs []MiddlewareRunEvent
	c, logger := newTestCrate(t, Record{"Health": 100},
		WithClock(clock),
		WithMiddlewareLogger(MiddlewareLoggerFunc(func(event MiddlewareRunEvent) {
			runs = append(runs, event)
		})),
	)
	c.Use("Health", func(candidate, _ any) any { return candidate })

	c.Update("Health", 50)

	// The result is still applied; the budget is advisory.
	if got := c.Get("Health"); got != 50 {
		t.Fatalf("expected slow middleware result applied, got %v", got)
	}
	if len(logger.warns) != 1 {
		t.Fatalf("expected one budget warning, got %d", len(logger.warns))
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run event, got %d", len(runs))
	}
	if !runs[0].Exceeded || runs[0].Duration != 300*time.Millisecond {
		t.Fatalf("unexpected run event: %+v", runs[0])
	}
}

func TestRunLoggerQuietWithinBudget(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0), step: time.Millisecond}
	var runs []MiddlewareRunEvent
	c, logger := newTestCrate(t, Record{"Health": 100},
		WithClock(clock),
		WithMiddlewareLogger(MiddlewareLoggerFunc(func(event MiddlewareRunEvent) {
			runs = append(runs, event)
		})),
	)
	c.Use("Health", func(candidate, _ any) any { return candidate })

	c.Update("Health", 50)

	if len(logger.warns) != 0 {
		t.Fatalf("expected no warning within budget, got %d", len(logger.warns))
	}
	if len(runs) != 1 || runs[0].Exceeded {
		t.Fatalf("expected one quiet run event, got %+v", runs)
	}
}

func TestCustomBudget(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0), step: 5 * time.Millisecond}
	c, logger := newTestCrate(t, Record{"Health": 100},
		WithClock(clock),
		WithMiddlewareBudget(time.Millisecond),
	)
	c.Use("Health", func(candidate, _ any) any { return candidate })

	c.Update("Health", 50)
	if len(logger.warns) != 1 {
		t.Fatalf("expected warning with tightened budget, got %d", len(logger.warns))
	}
}

func TestMiddlewareReceivesCandidateAndCurrent(t *testing.T) {
	c, _ := newTestCrate(t, Record{"Health": 100})

	var gotCandidate, gotCurrent any
	c.Use("Health", func(candidate, current any) any {
		gotCandidate, gotCurrent = candidate, current
		return candidate
	})

	c.Update("Health", 64)
	if gotCandidate != 64 || gotCurrent != 100 {
		t.Fatalf("expected (candidate=64, current=100), got (%v, %v)", gotCandidate, gotCurrent)
	}
}
