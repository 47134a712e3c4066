package terminal

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	wireMouseOff    = "\x1b[?1000l\x1b[?1002l\x1b[?1003l\x1b[?1006l"
	wireMouseNormal = "\x1b[?1000h\x1b[?1002h\x1b[?1006h"
	wireMouseAny    = "\x1b[?1000h\x1b[?1003h\x1b[?1006h"
	wireRestore     = wireMouseOff + "\x1b[0m\x1b[?25h\x1b[?1049l\x1b[2J\x1b[H"
)

func newTestModeManager(t *testing.T, opts ...Option) (*ModeManager, *fakeChannel) {
	t.Helper()
	ch := newFakeChannel(newFakeClock())
	m, err := NewModeManager(ch, opts...)
	require.NoError(t, err)
	return m, ch
}

func TestModeManager_CapturesSnapshot(t *testing.T) {
	m, _ := newTestModeManager(t)

	assert.Equal(t, ModeNormal, m.State())
	assert.True(t, m.Snapshot().Valid())
	assert.True(t, m.Snapshot().Equal(cookedAttributes()))
	assert.False(t, m.Snapshot().Raw())
}

func TestModeManager_CaptureFailure(t *testing.T) {
	ch := newFakeChannel(newFakeClock())
	ch.Close()

	_, err := NewModeManager(ch)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestModeManager_EnterOrder(t *testing.T) {
	m, ch := newTestModeManager(t)

	require.NoError(t, m.EnterPrivateMode())
	assert.Equal(t, []string{
		"write \x1b[?1049h",
		"raw",
		"write \x1b[?1000h",
		"write \x1b[?1002h",
		"write \x1b[?1006h",
		"flush",
	}, ch.takeOps())
	assert.Equal(t, ModePrivate, m.State())
	assert.Equal(t, MouseTrackingNormal, m.MouseTracking())
	assert.Equal(t, 1, ch.rawCalls)
	assert.True(t, ch.attrs.Raw())
}

func TestModeManager_EnterIsIdempotent(t *testing.T) {
	m, ch := newTestModeManager(t)
	require.NoError(t, m.EnterPrivateMode())
	ch.takeOutput()

	require.NoError(t, m.EnterPrivateMode())
	assert.Empty(t, ch.takeOutput())
	assert.Equal(t, 1, ch.rawCalls)
}

func TestModeManager_EnterWithAnyMotion(t *testing.T) {
	m, ch := newTestModeManager(t, WithPrivateMouseTracking(MouseTrackingAny))

	require.NoError(t, m.EnterPrivateMode())
	assert.Equal(t, "\x1b[?1049h"+wireMouseAny, ch.takeOutput())
	assert.Equal(t, MouseTrackingAny, m.MouseTracking())
}

func TestModeManager_ExitRestoresSnapshot(t *testing.T) {
	m, ch := newTestModeManager(t)
	snapshot := m.Snapshot()
	require.NoError(t, m.EnterPrivateMode())
	ch.takeOutput()

	require.NoError(t, m.ExitPrivateMode())
	assert.Equal(t, wireRestore, ch.out.String())
	assert.Equal(t, "setattr", ch.ops[len(ch.ops)-1], "attributes restored last")
	assert.True(t, ch.attrs.Equal(snapshot))
	assert.Equal(t, ModeNormal, m.State())
	assert.Equal(t, MouseTrackingOff, m.MouseTracking())
}

func TestModeManager_ExitWhenNormalIsNoop(t *testing.T) {
	m, ch := newTestModeManager(t)

	require.NoError(t, m.ExitPrivateMode())
	assert.Empty(t, ch.takeOutput())

	require.NoError(t, m.EnterPrivateMode())
	require.NoError(t, m.ExitPrivateMode())
	ch.takeOutput()

	require.NoError(t, m.ExitPrivateMode())
	assert.Empty(t, ch.takeOutput())
}

func TestModeManager_ReenterAfterExit(t *testing.T) {
	m, ch := newTestModeManager(t)
	snapshot := m.Snapshot()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.EnterPrivateMode())
		assert.True(t, ch.attrs.Raw())
		require.NoError(t, m.ExitPrivateMode())
		assert.True(t, ch.attrs.Equal(snapshot), "cycle %d", i)
	}
	assert.Equal(t, 3, ch.rawCalls)
}

func TestModeManager_SetMouseTracking(t *testing.T) {
	m, ch := newTestModeManager(t)
	require.NoError(t, m.EnterPrivateMode())
	ch.takeOutput()

	require.NoError(t, m.SetMouseTracking(MouseTrackingAny))
	assert.Equal(t, wireMouseOff+wireMouseAny, ch.takeOutput())
	assert.Equal(t, MouseTrackingAny, m.MouseTracking())

	require.NoError(t, m.SetMouseTracking(MouseTrackingNormal))
	assert.Equal(t, wireMouseOff+wireMouseNormal, ch.takeOutput())

	require.NoError(t, m.SetMouseTracking(MouseTrackingOff))
	assert.Equal(t, wireMouseOff, ch.takeOutput())
	assert.Equal(t, MouseTrackingOff, m.MouseTracking())
}

func TestModeManager_EnterFailureStillRestorable(t *testing.T) {
	m, ch := newTestModeManager(t)
	snapshot := m.Snapshot()
	ch.writeErr = errDevice

	err := m.EnterPrivateMode()
	require.ErrorIs(t, err, errDevice)
	assert.Equal(t, ModePrivate, m.State())

	ch.writeErr = nil
	require.NoError(t, m.ExitPrivateMode())
	assert.True(t, ch.attrs.Equal(snapshot))
}

func TestModeManager_CloseTearsDownFromNormal(t *testing.T) {
	m, ch := newTestModeManager(t)

	require.NoError(t, m.Close())
	assert.Equal(t, wireRestore, ch.out.String())
	assert.True(t, ch.closed)
	assert.Equal(t, "close", ch.ops[len(ch.ops)-1])
}

func TestModeManager_CloseIsIdempotent(t *testing.T) {
	m, ch := newTestModeManager(t)
	require.NoError(t, m.EnterPrivateMode())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 1, ch.closeCalls)
	assert.Equal(t, ModeNormal, m.State())

	assert.ErrorIs(t, m.EnterPrivateMode(), ErrClosed)
	assert.ErrorIs(t, m.ExitPrivateMode(), ErrClosed)
	assert.ErrorIs(t, m.SetMouseTracking(MouseTrackingAny), ErrClosed)
}

func TestModeManager_TeardownContinuesPastWriteFailures(t *testing.T) {
	metrics := countingMetrics{}
	m, ch := newTestModeManager(t, WithMetrics(metrics))
	snapshot := m.Snapshot()
	require.NoError(t, m.EnterPrivateMode())
	ch.writeErr = errDevice

	err := m.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, errDevice)
	assert.Contains(t, err.Error(), "exit alternate screen")

	// Flush and attribute restore still ran
	assert.True(t, ch.attrs.Equal(snapshot))
	assert.True(t, ch.closed)
	assert.Equal(t, 5, metrics[MetricTeardownFailures])
}

func TestModeManager_TeardownRestoreFailure(t *testing.T) {
	metrics := countingMetrics{}
	m, ch := newTestModeManager(t, WithMetrics(metrics))
	require.NoError(t, m.EnterPrivateMode())
	ch.takeOutput()
	ch.setAttrErr = errDevice

	err := m.ExitPrivateMode()
	assert.ErrorIs(t, err, errDevice)
	assert.Contains(t, err.Error(), "restore attributes")
	assert.Equal(t, wireRestore, ch.out.String())
	assert.Equal(t, 1, metrics[MetricTeardownFailures])
	assert.Equal(t, ModeNormal, m.State())
}

// panickingFlush fails Flush with a panic
type panickingFlush struct {
	*fakeChannel
}

func (panickingFlush) Flush() error {
	panic("flush exploded")
}

func TestModeManager_TeardownSurvivesPanic(t *testing.T) {
	fake := newFakeChannel(newFakeClock())
	m, err := NewModeManager(panickingFlush{fake})
	require.NoError(t, err)
	snapshot := m.Snapshot()
	require.NoError(t, fake.EnterRawMode())

	err = m.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush exploded")
	assert.True(t, fake.attrs.Equal(snapshot), "restore runs after a panicking step")
	assert.True(t, fake.closed)
}

func TestModeManager_CloseJoinsChannelError(t *testing.T) {
	ch := &closeFailure{newFakeChannel(newFakeClock())}
	m, err := NewModeManager(ch)
	require.NoError(t, err)

	err = m.Close()
	assert.ErrorIs(t, err, errDevice)
	assert.Contains(t, err.Error(), "close channel")
}

type closeFailure struct {
	*fakeChannel
}

func (c *closeFailure) Close() error {
	c.fakeChannel.Close()
	return errDevice
}

func TestEmergencyReset(t *testing.T) {
	var buf bytes.Buffer
	EmergencyReset(&buf)

	assert.Equal(t, wireMouseOff+"\x1b[0m\x1b[?25h\x1b[?1049l\x1bc", buf.String())
}

func TestModeState_String(t *testing.T) {
	assert.Equal(t, "normal", ModeNormal.String())
	assert.Equal(t, "private", ModePrivate.String())
}

func TestModeManager_ErrorsAreJoined(t *testing.T) {
	m, ch := newTestModeManager(t)
	require.NoError(t, m.EnterPrivateMode())
	ch.writeErr = errDevice
	ch.setAttrErr = errors.New("tcsetattr")

	err := m.ExitPrivateMode()
	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 6)
}
