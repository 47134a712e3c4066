//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package terminal

import (
	"os"
	"os/signal"
	"syscall"
)

// Start begins dispatching on SIGWINCH. Calling Start twice is a no-op.
func (n *ResizeNotifier) Start() {
	n.watchMu.Lock()
	defer n.watchMu.Unlock()
	if n.stopCh != nil {
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	n.stopCh = make(chan struct{})
	n.doneCh = make(chan struct{})
	go n.watchLoop(sigCh, n.stopCh, n.doneCh)
}

// Stop ends signal dispatch and waits for an in-flight notification.
// When a signal dispatch is running (Stop called from a listener, directly or
// through Terminal.Close) it returns without waiting; the watch goroutine
// exits once the listeners return.
func (n *ResizeNotifier) Stop() {
	n.watchMu.Lock()
	stopCh, doneCh := n.stopCh, n.doneCh
	n.stopCh, n.doneCh = nil, nil
	n.watchMu.Unlock()
	if stopCh == nil {
		return
	}

	close(stopCh)
	if n.dispatching.Load() {
		return
	}
	<-doneCh
}

// watchLoop monitors for resize signals
func (n *ResizeNotifier) watchLoop(sigCh chan os.Signal, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-stopCh:
			return
		case <-sigCh:
			// The flag is raised before the stop check so a concurrent Stop
			// either sees it or prevents this dispatch
			n.dispatching.Store(true)
			select {
			case <-stopCh:
				n.dispatching.Store(false)
				return
			default:
			}
			n.Notify()
			n.dispatching.Store(false)
		}
	}
}
