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

// Package protocol implements the SurePet device protocol spoken by pet
// doors and feeders: a per-device online/sequence table and the decoder that
// turns a received payload into a reply frame and a forwarded message.
package protocol

// Message type codes carried in payload[0].
const (
	CodeAssociation  byte = 0x01 // association request when offline, data frame when online
	CodeDataAck      byte = 0x02
	CodeBeacon       byte = 0x07
	CodeOnlineBeacon byte = 0x08
	CodeResync       byte = 0x0A
	CodeStart        byte = 0x13
)

// Reply codes.
const (
	replyMoreData     byte = 0x09
	replyAck          byte = 0x0A
	replyDataAck      byte = 0x02
	replyStartAck     byte = 0x14
	continuationFlag  byte = 0x01
	deviceKindDoor    byte = 0x0F
	deviceKindFeeder  byte = 0x2F
	beaconKindDoor    byte = 0x01
	beaconKindFeeder  byte = 0x02
	beaconKindGeneric byte = 0x00
)

var (
	beaconAckPrefix     = [...]byte{0xFF, 0x45, 0x00, 0x00, 0x7E}
	associationResponse = [...]byte{0x02, 0xFE, 0xFF, 0x00}
)

// MessageKind classifies a decoded payload
type MessageKind int

// Message kinds
const (
	KindUnknown MessageKind = iota
	KindEmpty
	KindBeacon
	KindAssociation
	KindStart
	KindOnlineBeacon
	KindData
	KindDataAck
	KindResync
)

var kindNames = [...]string{
	KindUnknown:      "unknown",
	KindEmpty:        "empty",
	KindBeacon:       "beacon",
	KindAssociation:  "association",
	KindStart:        "start",
	KindOnlineBeacon: "online-beacon",
	KindData:         "data",
	KindDataAck:      "data-ack",
	KindResync:       "resync",
}

func (k MessageKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// minLength is the shortest payload each kind can be decoded from.
var minLength = map[MessageKind]int{
	KindBeacon:       2,
	KindAssociation:  1,
	KindStart:        2,
	KindOnlineBeacon: 3,
	KindData:         3,
	KindDataAck:      3,
	KindResync:       2,
}

// classify applies the dispatch rules. The 0x01 ambiguity is settled by the
// stored online flag alone.
func classify(code byte, online bool) MessageKind {
	switch code {
	case CodeBeacon:
		return KindBeacon
	case CodeAssociation:
		if online {
			return KindData
		}
		return KindAssociation
	case CodeStart:
		return KindStart
	case CodeOnlineBeacon:
		return KindOnlineBeacon
	case CodeDataAck:
		return KindDataAck
	case CodeResync:
		return KindResync
	default:
		return KindUnknown
	}
}

func continuation(p []byte, yes, no byte) byte {
	if p[2]&continuationFlag != 0 {
		return yes
	}
	return no
}

func beaconKind(p []byte) byte {
	switch p[1] {
	case deviceKindDoor:
		return beaconKindDoor
	case deviceKindFeeder:
		return beaconKindFeeder
	default:
		return beaconKindGeneric
	}
}
