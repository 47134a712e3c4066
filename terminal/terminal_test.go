package terminal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTerminal(t *testing.T, opts ...Option) (*Terminal, *fakeChannel) {
	t.Helper()
	ch := newFakeChannel(newFakeClock())
	term, err := New(ch, opts...)
	require.NoError(t, err)
	return term, ch
}

func TestTerminal_NewClosesChannelOnFailure(t *testing.T) {
	ch := &attrFailure{newFakeChannel(newFakeClock())}

	_, err := New(ch)
	assert.ErrorIs(t, err, errDevice)
	assert.Equal(t, 1, ch.closeCalls)
}

type attrFailure struct {
	*fakeChannel
}

func (attrFailure) Attributes() (Attributes, error) {
	return Attributes{}, errDevice
}

func TestTerminal_Lifecycle(t *testing.T) {
	term, ch := newTestTerminal(t)
	snapshot := term.Modes().Snapshot()

	require.NoError(t, term.EnterPrivateMode())
	assert.True(t, ch.attrs.Raw())

	enc := term.Encoder()
	require.NoError(t, enc.MoveCursor(3, 4))
	require.NoError(t, enc.PutText("hi"))
	assert.Equal(t, Position{Column: 5, Row: 4}, enc.CursorPosition())

	require.NoError(t, term.ExitPrivateMode())
	assert.True(t, ch.attrs.Equal(snapshot))
	assert.Equal(t, Position{}, enc.CursorPosition(), "teardown homes the cursor")

	require.NoError(t, term.Close())
	assert.True(t, ch.closed)
	assert.ErrorIs(t, enc.PutText("late"), ErrClosed)
}

func TestTerminal_ExitFromNormalKeepsCursor(t *testing.T) {
	term, _ := newTestTerminal(t)
	require.NoError(t, term.Encoder().MoveCursor(7, 1))

	require.NoError(t, term.ExitPrivateMode())
	assert.Equal(t, Position{Column: 7, Row: 1}, term.Encoder().CursorPosition())
}

func TestTerminal_CloseWithoutExit(t *testing.T) {
	term, ch := newTestTerminal(t)
	snapshot := term.Modes().Snapshot()
	require.NoError(t, term.EnterPrivateMode())
	ch.takeOutput()

	require.NoError(t, term.Close())
	assert.Equal(t, wireRestore, ch.out.String())
	assert.True(t, ch.attrs.Equal(snapshot))

	require.NoError(t, term.Close())
	assert.Equal(t, 1, ch.closeCalls)
}

func TestTerminal_CloseWrapsTeardownError(t *testing.T) {
	term, ch := newTestTerminal(t)
	ch.setAttrErr = errDevice

	err := term.Close()
	assert.ErrorIs(t, err, errDevice)
	assert.Contains(t, err.Error(), "close terminal")

	// The first error is kept
	assert.Equal(t, err, term.Close())
}

func TestTerminal_PollDelegates(t *testing.T) {
	clock := newFakeClock()
	ch := newFakeChannel(clock)
	term, err := New(ch, withClock(clock.Now))
	require.NoError(t, err)
	ch.feed("x\x1b[B")
	ch.eof = true

	ev, err := term.Poll(time.Second)
	require.NoError(t, err)
	assert.Equal(t, CharacterEvent{Rune: 'x'}, ev)

	ev, err = term.ReadBlocking()
	require.NoError(t, err)
	assert.Equal(t, SpecialEvent{Key: KeyDown}, ev)

	ev, err = term.ReadBlocking()
	require.NoError(t, err)
	assert.True(t, IsEOF(ev))
}

func TestTerminal_ResizeRegistry(t *testing.T) {
	term, ch := newTestTerminal(t)
	rec := &recorder{}

	h := term.AddResizeListener(rec.listener("a"))
	term.AddResizeListener(rec.listener("b"))
	assert.Equal(t, Size{Columns: 120, Rows: 40}, term.Size())

	ch.cols, ch.rows = 0, 0
	assert.Equal(t, DefaultSize, term.Resize().Notify())
	assert.Equal(t, []string{"a", "b"}, rec.take())

	assert.True(t, term.RemoveResizeListener(h))
	term.Resize().Notify()
	assert.Equal(t, []string{"b"}, rec.take())
}

func TestTerminal_SetMouseTracking(t *testing.T) {
	term, ch := newTestTerminal(t)
	require.NoError(t, term.EnterPrivateMode())
	ch.takeOutput()

	require.NoError(t, term.SetMouseTracking(MouseTrackingAny))
	assert.Equal(t, wireMouseOff+wireMouseAny, ch.takeOutput())
	assert.Equal(t, MouseTrackingAny, term.Modes().MouseTracking())
}

func TestTerminal_Recover(t *testing.T) {
	term, ch := newTestTerminal(t)
	snapshot := term.Modes().Snapshot()
	require.NoError(t, term.EnterPrivateMode())
	ch.takeOutput()

	require.NoError(t, term.Recover())
	assert.Equal(t, wireMouseOff+"\x1b[0m\x1b[?25h\x1b[?1049l\x1bc", ch.out.String())
	assert.True(t, ch.attrs.Equal(snapshot))
}

func TestTerminal_OptionsReachComponents(t *testing.T) {
	metrics := countingMetrics{}
	term, ch := newTestTerminal(t,
		WithColorMode(ColorMode256),
		WithPrivateMouseTracking(MouseTrackingOff),
		WithMetrics(metrics),
	)

	assert.Equal(t, ColorMode256, term.Encoder().ColorMode())

	require.NoError(t, term.EnterPrivateMode())
	assert.Equal(t, MouseTrackingOff, term.Modes().MouseTracking())
	assert.NotContains(t, ch.takeOutput(), "\x1b[?1000h")

	_, err := term.Poll(0)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics[MetricPolls])
}
