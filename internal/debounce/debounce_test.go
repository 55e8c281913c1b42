package debounce

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const window = 500 * time.Millisecond

func newTestDebouncer(t *testing.T) (*clock.Mock, *Debouncer[string], chan string) {
	t.Helper()
	mock := clock.NewMock()
	out := make(chan string, 16)
	d := NewWithClock(mock, window, func(v string) { out <- v })
	t.Cleanup(d.Stop)
	return mock, d, out
}

func expectNone(t *testing.T, out <-chan string) {
	t.Helper()
	select {
	case v := <-out:
		t.Fatalf("unexpected stable value %q", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func expectValue(t *testing.T, out <-chan string, want string) {
	t.Helper()
	select {
	case v := <-out:
		assert.Equal(t, want, v)
	case <-time.After(time.Second):
		t.Fatalf("no stable value emitted, want %q", want)
	}
}

func TestDebouncer_BurstEmitsLastValueOnce(t *testing.T) {
	mock, d, out := newTestDebouncer(t)

	for _, v := range []string{"1", "1.", "1.5", "1.50"} {
		d.Set(v)
		mock.Add(100 * time.Millisecond)
	}
	expectNone(t, out)

	_, ok := d.Stable()
	assert.False(t, ok, "nothing should be stable mid-burst")

	mock.Add(window)
	expectValue(t, out, "1.50")
	expectNone(t, out)

	v, ok := d.Stable()
	require.True(t, ok)
	assert.Equal(t, "1.50", v)
}

func TestDebouncer_NeverQuiescentNeverEmits(t *testing.T) {
	mock, d, out := newTestDebouncer(t)

	for i := 0; i < 50; i++ {
		d.Set(string(rune('a' + i%26)))
		mock.Add(window - time.Millisecond)
	}
	expectNone(t, out)
	assert.True(t, d.Pending())
}

func TestDebouncer_SameValueNotRepublished(t *testing.T) {
	mock, d, out := newTestDebouncer(t)

	d.Set("BUY")
	mock.Add(window)
	expectValue(t, out, "BUY")

	// Edit away and back within one window: the stable value is unchanged.
	d.Set("SELL")
	mock.Add(100 * time.Millisecond)
	d.Set("BUY")
	mock.Add(window)
	expectNone(t, out)

	d.Set("SELL")
	mock.Add(window)
	expectValue(t, out, "SELL")
}

func TestDebouncer_Stop(t *testing.T) {
	mock, d, out := newTestDebouncer(t)

	d.Set("10")
	d.Stop()
	mock.Add(2 * window)
	expectNone(t, out)

	d.Set("11")
	mock.Add(2 * window)
	expectNone(t, out)
	assert.False(t, d.Pending())
}

func TestDebouncer_WallClock(t *testing.T) {
	out := make(chan int, 4)
	d := New(20*time.Millisecond, func(v int) { out <- v })
	defer d.Stop()

	d.Set(1)
	d.Set(2)
	d.Set(3)

	select {
	case v := <-out:
		assert.Equal(t, 3, v)
	case <-time.After(time.Second):
		t.Fatal("wall-clock debouncer never fired")
	}
}
