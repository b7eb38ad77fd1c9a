//go:build deadlock

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

// Package syncutil provides the mutexes used to mask the radio's interrupt
// path. Building with -tags=deadlock swaps in go-deadlock, which reports lock
// order inversions between the interrupt goroutine and the pump.
package syncutil

import deadlock "github.com/sasha-s/go-deadlock"

// Mutex is a deadlock.Mutex under the deadlock build tag.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex is a deadlock.RWMutex under the deadlock build tag.
type RWMutex struct {
	deadlock.RWMutex
}
