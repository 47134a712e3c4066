package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService records lifecycle calls into a shared log
type fakeService struct {
	name     string
	deps     []string
	log      *[]string
	initErr  error
	startErr error
	stopErr  error
	gotArgs  []any
}

func (s *fakeService) Name() string           { return s.name }
func (s *fakeService) Dependencies() []string { return s.deps }

func (s *fakeService) Init(args ...any) error {
	s.gotArgs = args
	*s.log = append(*s.log, "init "+s.name)
	return s.initErr
}

func (s *fakeService) Start() error {
	*s.log = append(*s.log, "start "+s.name)
	return s.startErr
}

func (s *fakeService) Stop() error {
	*s.log = append(*s.log, "stop "+s.name)
	return s.stopErr
}

func TestHub_DependencyOrder(t *testing.T) {
	var log []string
	h := NewHub()
	ui := &fakeService{name: "ui", deps: []string{"terminal", "status"}, log: &log}
	term := &fakeService{name: "terminal", deps: []string{"status"}, log: &log}
	stat := &fakeService{name: "status", log: &log}

	require.NoError(t, h.Register(ui))
	require.NoError(t, h.Register(term, "tty", 42))
	require.NoError(t, h.Register(stat))

	require.NoError(t, h.InitAll())
	require.NoError(t, h.StartAll())
	require.NoError(t, h.StopAll())

	assert.Equal(t, []string{
		"init status", "init terminal", "init ui",
		"start status", "start terminal", "start ui",
		"stop ui", "stop terminal", "stop status",
	}, log)
	assert.Equal(t, []any{"tty", 42}, term.gotArgs)
	assert.Equal(t, []string{"ui", "terminal", "status"}, h.Names())
}

func TestHub_IndependentServicesKeepRegistrationOrder(t *testing.T) {
	var log []string
	h := NewHub()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, h.Register(&fakeService{name: name, log: &log}))
	}

	require.NoError(t, h.InitAll())
	assert.Equal(t, []string{"init c", "init a", "init b"}, log)
}

func TestHub_DuplicateRegistration(t *testing.T) {
	var log []string
	h := NewHub()
	require.NoError(t, h.Register(&fakeService{name: "x", log: &log}))
	assert.Error(t, h.Register(&fakeService{name: "x", log: &log}))
}

func TestHub_DependencyErrors(t *testing.T) {
	var log []string

	h := NewHub()
	require.NoError(t, h.Register(&fakeService{name: "a", deps: []string{"missing"}, log: &log}))
	err := h.InitAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered service: missing")

	h = NewHub()
	require.NoError(t, h.Register(&fakeService{name: "a", deps: []string{"b"}, log: &log}))
	require.NoError(t, h.Register(&fakeService{name: "b", deps: []string{"a"}, log: &log}))
	err = h.InitAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
	assert.Empty(t, log)
}

func TestHub_InitFailureRollsBack(t *testing.T) {
	var log []string
	errBoom := errors.New("boom")
	h := NewHub()
	require.NoError(t, h.Register(&fakeService{name: "a", log: &log}))
	require.NoError(t, h.Register(&fakeService{name: "b", log: &log}))
	require.NoError(t, h.Register(&fakeService{name: "c", log: &log, initErr: errBoom}))

	err := h.InitAll()
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"init a", "init b", "init c", "stop b", "stop a"}, log)

	// Nothing left to stop
	log = nil
	require.NoError(t, h.StopAll())
	assert.Empty(t, log)
}

func TestHub_StartFailureStopsInitialized(t *testing.T) {
	var log []string
	errBoom := errors.New("boom")
	h := NewHub()
	require.NoError(t, h.Register(&fakeService{name: "a", log: &log}))
	require.NoError(t, h.Register(&fakeService{name: "b", log: &log, startErr: errBoom}))
	require.NoError(t, h.Register(&fakeService{name: "c", log: &log}))
	require.NoError(t, h.InitAll())
	log = nil

	err := h.StartAll()
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"start a", "start b", "stop c", "stop b", "stop a"}, log)
}

func TestHub_StartBeforeInit(t *testing.T) {
	assert.Error(t, NewHub().StartAll())
}

func TestHub_StopAllJoinsErrors(t *testing.T) {
	var log []string
	errA, errB := errors.New("a failed"), errors.New("b failed")
	h := NewHub()
	require.NoError(t, h.Register(&fakeService{name: "a", log: &log, stopErr: errA}))
	require.NoError(t, h.Register(&fakeService{name: "b", log: &log, stopErr: errB}))
	require.NoError(t, h.InitAll())

	err := h.StopAll()
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, []string{"init a", "init b", "stop b", "stop a"}, log)
}

func TestMustGet(t *testing.T) {
	var log []string
	h := NewHub()
	svc := &fakeService{name: "a", log: &log}
	require.NoError(t, h.Register(svc))

	assert.Same(t, svc, MustGet[*fakeService](h, "a"))
	got, ok := h.Get("a")
	assert.True(t, ok)
	assert.Equal(t, Service(svc), got)

	assert.Panics(t, func() { MustGet[*fakeService](h, "missing") })
	assert.Panics(t, func() { MustGet[*Hub](h, "a") })
}
