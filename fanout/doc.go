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

// Package fanout implements the server-side replication engine (spec
// §4.5): the peer table, the cork/uncork barrier, and Broadcast, which
// fans a single encoded operation frame out to every connected peer in
// insertion order, enforcing per-peer FIFO delivery and per-peer
// synchronous acknowledgement.
package fanout
