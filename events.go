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

package mrf24j

// EventHandler is the bottom half. CheckFlags calls it from the caller's
// goroutine with the interrupt mask released, so handlers may send frames,
// publish, or block.
type EventHandler interface {
	OnReceive(rx RxRecord)
	OnTransmitComplete(tx TxCompletion)
}

// EventHandlerFuncs adapts two functions to EventHandler. Nil functions are
// skipped.
type EventHandlerFuncs struct {
	Receive          func(RxRecord)
	TransmitComplete func(TxCompletion)
}

// OnReceive implements EventHandler
func (h EventHandlerFuncs) OnReceive(rx RxRecord) {
	if h.Receive != nil {
		h.Receive(rx)
	}
}

// OnTransmitComplete implements EventHandler
func (h EventHandlerFuncs) OnTransmitComplete(tx TxCompletion) {
	if h.TransmitComplete != nil {
		h.TransmitComplete(tx)
	}
}

// CheckFlags is the event pump. For each sticky counter that is nonzero it
// resets the counter and invokes the matching handler exactly once, however
// many events accumulated. It reports which handlers ran.
//
// The counters are swapped and the records copied under the interrupt mask,
// so a frame landing between the two cannot be delivered twice.
func (r *Radio) CheckFlags(h EventHandler) (rx, tx bool) {
	r.mask.Lock()
	nrx := r.rxEvents.Swap(0)
	var rec RxRecord
	if nrx > 0 {
		rec = r.rx.Clone()
	}
	ntx := r.txEvents.Swap(0)
	done := r.tx
	r.mask.Unlock()

	if nrx > 0 {
		rec.Overwritten = nrx - 1
		if nrx > 1 {
			Debugf("rx: %d frames overwritten before handling", nrx-1)
		}
		h.OnReceive(rec)
		rx = true
	}
	if ntx > 0 {
		h.OnTransmitComplete(done)
		tx = true
	}
	return rx, tx
}

// PendingEvents returns the sticky RX and TX counters without clearing them.
func (r *Radio) PendingEvents() (rx, tx uint32) {
	return r.rxEvents.Load(), r.txEvents.Load()
}
