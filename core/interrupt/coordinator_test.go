package interrupt

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer guards a bytes.Buffer written to by the delivery goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDeliverAndReset(t *testing.T) {
	out := &syncBuffer{}
	c := New(out)

	assert.False(t, c.Interrupted())

	c.Deliver()
	assert.True(t, c.Interrupted())
	assert.Equal(t, "\n", out.String())

	assert.True(t, c.Reset())
	assert.False(t, c.Interrupted())
	assert.False(t, c.Reset(), "second reset should find the coordinator idle")
}

func TestEachDeliveryEchoesNewline(t *testing.T) {
	out := &syncBuffer{}
	c := New(out)

	c.Deliver()
	c.Deliver()

	assert.Equal(t, "\n\n", out.String())
	assert.True(t, c.Reset())
}

func TestDeferHoldsDelivery(t *testing.T) {
	out := &syncBuffer{}
	c := New(out)

	restore := c.Defer()
	c.Deliver()
	c.Deliver()
	assert.False(t, c.Interrupted(), "delivery must wait for the scope to close")
	assert.Empty(t, out.String())

	restore()
	assert.True(t, c.Interrupted())
	assert.Equal(t, "\n", out.String(), "held deliveries coalesce")

	// Closing the same scope twice has no effect.
	restore()
	assert.True(t, c.Reset())
}

func TestNestedScopes(t *testing.T) {
	c := New(&syncBuffer{})

	c.Block()
	c.Block()
	c.Deliver()
	c.Unblock()
	assert.False(t, c.Interrupted())
	c.Unblock()
	assert.True(t, c.Interrupted())

	// Unbalanced unblock is ignored.
	c.Unblock()
	c.Deliver()
	assert.True(t, c.Interrupted())
}

func TestScopeWithoutDelivery(t *testing.T) {
	out := &syncBuffer{}
	c := New(out)

	c.Defer()()
	assert.False(t, c.Interrupted())
	assert.Empty(t, out.String())
}

func TestWake(t *testing.T) {
	c := New(&syncBuffer{})

	c.Deliver()
	select {
	case <-c.Wake():
	case <-time.After(time.Second):
		t.Fatal("no wake after delivery")
	}

	c.Deliver()
	c.Reset()
	select {
	case <-c.Wake():
		t.Fatal("reset should drain the wake channel")
	default:
	}
}

func TestInstallIsIdempotent(t *testing.T) {
	c := New(&syncBuffer{})
	c.Install()
	c.Install()
	c.Close()
	c.Close()
}
