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

package mqtt

import "strings"

// DefaultTopicPrefix is the base topic device messages are published under.
const DefaultTopicPrefix = "pethublocal/local"

// Topics builds hub topics under a prefix:
//
//	<prefix>               connection announcement
//	<prefix>/status        retained online/offline state (also the will)
//	<prefix>/<IDENTITY>    device payloads as uppercase hex
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.TrimSuffix(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

// Announce returns the topic the connection announcement goes to.
func (t Topics) Announce() string {
	return t.prefix()
}

// Status returns the retained status topic.
func (t Topics) Status() string {
	return t.prefix() + "/status"
}

// Device returns the topic for payloads from identity.
//
// Example: pethublocal/local/52E26AFEFF121F80
func (t Topics) Device(identity string) string {
	return t.prefix() + "/" + identity
}
