package page

import (
	"testing"
	"time"

	"camclassify/internal/clock"
	"camclassify/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownTimeline(t *testing.T) {
	clk := clock.NewFake()
	view := newStubView()
	captures := 0

	var enabledAtCapture bool
	cd := NewCountdown(clk, time.Second, view, func() {
		captures++
		enabledAtCapture = view.snapshot().captureEnabled
	})

	require.True(t, cd.Trigger())

	steps := []struct {
		advance  time.Duration
		text     string
		enabled  bool
		captures int
		state    CountdownState
	}{
		{0, "3", false, 0, CountdownCounting},
		{999 * time.Millisecond, "3", false, 0, CountdownCounting},
		{time.Millisecond, "2", false, 0, CountdownCounting},
		{time.Second, "1", false, 0, CountdownCounting},
		{999 * time.Millisecond, "1", false, 0, CountdownCounting},
		{time.Millisecond, "", true, 1, CountdownIdle},
	}

	for i, step := range steps {
		clk.Advance(step.advance)
		v := view.snapshot()
		assert.Equal(t, step.text, v.countdown, "step %d", i)
		assert.Equal(t, step.enabled, v.captureEnabled, "step %d", i)
		assert.Equal(t, step.captures, captures, "step %d", i)
		assert.Equal(t, step.state, cd.State(), "step %d", i)
	}

	assert.False(t, enabledAtCapture)
	assert.Equal(t, []string{"3", "2", "1", ""}, view.snapshot().countdownLog)
}

func TestCountdownIgnoresTriggerWhileRunning(t *testing.T) {
	clk := clock.NewFake()
	captures := 0
	cd := NewCountdown(clk, time.Second, newStubView(), func() { captures++ })

	require.True(t, cd.Trigger())
	clk.Advance(1500 * time.Millisecond)
	assert.False(t, cd.Trigger())

	clk.Advance(1500 * time.Millisecond)
	assert.Equal(t, 1, captures)

	assert.True(t, cd.Trigger())
	clk.Advance(3 * time.Second)
	assert.Equal(t, 2, captures)
}

func TestCountdownCancel(t *testing.T) {
	clk := clock.NewFake()
	view := newStubView()
	captures := 0
	cd := NewCountdown(clk, time.Second, view, func() { captures++ })

	cd.Trigger()
	clk.Advance(time.Second)
	cd.Cancel()
	clk.Advance(5 * time.Second)

	assert.Equal(t, 0, captures)
	assert.Equal(t, CountdownIdle, cd.State())
	assert.True(t, view.snapshot().captureEnabled)
	assert.Equal(t, 0, clk.Pending())
}

func TestClassifyThreshold(t *testing.T) {
	cases := []struct {
		p    float64
		want models.Verdict
	}{
		{0, models.VerdictNegative},
		{0.4999, models.VerdictNegative},
		{0.5, models.VerdictPositive},
		{1, models.VerdictPositive},
	}

	for _, c := range cases {
		got, err := Classify(models.Result{{Label: "Class 1", Probability: c.p}, {Label: "Class 2", Probability: 1 - c.p}})
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "p=%v", c.p)
	}

	_, err := Classify(nil)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestPresenterRevealsResult(t *testing.T) {
	view := newStubView()
	p := NewPresenter(view)

	verdict, err := p.Present(models.Result{{Label: "Class 1", Probability: 0.7}, {Label: "Class 2", Probability: 0.3}})
	require.NoError(t, err)

	assert.Equal(t, models.VerdictPositive, verdict)
	v := view.snapshot()
	assert.Equal(t, models.VerdictPositive, v.verdict)
	assert.Equal(t, 1, v.revealed)
}
