// Copyright 2026 The PetHub Local Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package polling runs the radio's two contexts as goroutines: an interrupt
// watcher that services INTSTAT whenever the interrupt line fires (or on a
// timer when no line is wired), and an event pump that hands the results to
// an mrf24j.EventHandler.
package polling

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	mrf24j "github.com/pethublocal/go-mrf24j"
	"github.com/pethublocal/go-mrf24j/internal/syncutil"
)

// Radio is what a session drives. *mrf24j.Radio satisfies it.
type Radio interface {
	HandleInterrupt() (mrf24j.InterruptStatus, error)
	CheckFlags(h mrf24j.EventHandler) (rx, tx bool)
	Transport() mrf24j.Transport
}

// lineReporter is implemented by transports whose interrupt line is optional.
type lineReporter interface {
	HasInterruptLine() bool
}

// Metrics are cumulative session counters
type Metrics struct {
	Interrupts      int64 // INTSTAT reads that reported RX or TX
	InterruptErrors int64 // HandleInterrupt failures
	PumpCycles      int64
	RxDispatched    int64
	TxDispatched    int64
	Recoveries      int64
}

// Session owns the watcher and pump goroutines for one radio
type Session struct {
	radio     Radio
	handler   mrf24j.EventHandler
	config    *Config
	recoverer Recoverer
	onError   func(error)
	err       error
	mu        syncutil.Mutex

	kick     chan struct{}
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	state  atomic.Int32
	closed atomic.Bool

	interrupts      atomic.Int64
	interruptErrors atomic.Int64
	pumpCycles      atomic.Int64
	rxDispatched    atomic.Int64
	txDispatched    atomic.Int64
	recoveries      atomic.Int64
}

// NewSession creates a session. A nil config selects DefaultConfig. If the
// radio can restart itself and recovery is enabled, a DefaultRecoverer is
// installed.
func NewSession(radio Radio, handler mrf24j.EventHandler, config *Config) *Session {
	cfg := config.withDefaults()
	s := &Session{
		radio:    radio,
		handler:  handler,
		config:   cfg,
		kick:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	if r, ok := radio.(Restarter); ok && cfg.Recovery.Enabled {
		s.recoverer = NewDefaultRecoverer(r, cfg.Recovery.Backoff, cfg.Recovery.MaxAttempts)
	}
	return s
}

// SetRecoverer replaces the recoverer. Nil disables recovery.
func (s *Session) SetRecoverer(r Recoverer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recoverer = r
}

// SetOnError sets a callback for every interrupt-servicing error, fatal or
// not. It runs on the watcher goroutine.
func (s *Session) SetOnError(cb func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = cb
}

// Start launches the watcher and pump goroutines and returns. They stop when
// ctx is done, Close is called, or a fatal error cannot be recovered.
func (s *Session) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrSessionRunning
	}

	s.wg.Add(2)
	go s.watchInterrupts(ctx)
	go s.pumpLoop(ctx)
	go func() {
		s.wg.Wait()
		s.state.CompareAndSwap(int32(StateRunning), int32(StateStopped))
		s.state.CompareAndSwap(int32(StateRecovering), int32(StateStopped))
		close(s.done)
	}()
	return nil
}

// Run starts the session and blocks until it stops.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	return s.Wait()
}

// Wait blocks until a started session's goroutines have exited and returns
// the error that stopped it, if any.
func (s *Session) Wait() error {
	<-s.done
	return s.Err()
}

// Err returns the fatal error that stopped the session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// State returns the lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

// Metrics returns a snapshot of the counters
func (s *Session) Metrics() Metrics {
	return Metrics{
		Interrupts:      s.interrupts.Load(),
		InterruptErrors: s.interruptErrors.Load(),
		PumpCycles:      s.pumpCycles.Load(),
		RxDispatched:    s.rxDispatched.Load(),
		TxDispatched:    s.txDispatched.Load(),
		Recoveries:      s.recoveries.Load(),
	}
}

// Close stops both goroutines and waits for them
func (s *Session) Close() error {
	s.closed.Store(true)
	s.stop()
	if s.state.CompareAndSwap(int32(StateIdle), int32(StateStopped)) {
		return nil
	}
	<-s.done
	return nil
}

func (s *Session) stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Session) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-s.stopChan:
		return true
	default:
		return false
	}
}

func (s *Session) watchInterrupts(ctx context.Context) {
	defer s.wg.Done()

	line, hasLine := s.radio.Transport().(mrf24j.InterruptSource)
	if lr, ok := s.radio.Transport().(lineReporter); ok && !lr.HasInterruptLine() {
		hasLine = false
	}

	var tick <-chan time.Time
	if !hasLine {
		ticker := time.NewTicker(s.config.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if hasLine {
			line.WaitForInterrupt(s.config.InterruptTimeout)
			if s.stopping(ctx) {
				return
			}
		} else {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-tick:
			}
		}
		if !s.serviceInterrupt(ctx) {
			return
		}
	}
}

// serviceInterrupt runs the top half once. It returns false when the
// session must stop.
func (s *Session) serviceInterrupt(ctx context.Context) bool {
	status, err := s.radio.HandleInterrupt()
	if err == nil {
		if status.RX() || status.TX() {
			s.interrupts.Add(1)
			s.nudge()
		}
		return true
	}

	s.interruptErrors.Add(1)
	s.reportError(err)
	if !mrf24j.IsFatal(err) {
		return true
	}
	return s.recover(ctx, err)
}

func (s *Session) recover(ctx context.Context, cause error) bool {
	s.mu.Lock()
	rec := s.recoverer
	s.mu.Unlock()

	if rec == nil || !s.config.Recovery.Enabled {
		s.fail(cause)
		return false
	}

	s.state.Store(int32(StateRecovering))
	mrf24j.Debugf("polling: recovering after %v", cause)
	if err := rec.AttemptRecovery(ctx); err != nil {
		s.fail(err)
		return false
	}
	s.recoveries.Add(1)
	s.state.CompareAndSwap(int32(StateRecovering), int32(StateRunning))
	return true
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.state.Store(int32(StateFailed))
	s.stop()
}

func (s *Session) reportError(err error) {
	s.mu.Lock()
	cb := s.onError
	s.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

// nudge wakes the pump without waiting for its next tick.
func (s *Session) nudge() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Session) pumpLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
		case <-s.kick:
		}
		s.pump()
	}
}

func (s *Session) pump() {
	s.pumpCycles.Add(1)
	rx, tx := s.radio.CheckFlags(s.handler)
	if rx {
		s.rxDispatched.Add(1)
	}
	if tx {
		s.txDispatched.Add(1)
	}
}
