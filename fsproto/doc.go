// Copyright 2024 The fsyncer Authors.
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

// Package fsproto implements the wire codec for fsyncer's replication
// protocol: the length-prefixed, big-endian operation frames a server sends
// to its peers, plus the handshake, command, and ack frames that ride the
// same TCP stream.
//
// Encoding is deterministic and allocates exactly once per frame. Decoding
// copies every string and byte field out of the supplied buffer, so a
// decoded Op never aliases it; decoded values are not views into the input.
// Any attempt to read past the declared length, or a header declaring a
// length shorter than the header itself, reports a malformed frame rather
// than panicking, so a single corrupted frame never takes down the process —
// only the connection that produced it.
package fsproto
