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

// Package integration wires a Dispatcher, a fan-out Engine, a Server, and
// a real Client over a TCP loopback connection and checks that the two
// trees converge (spec §8's "Convergence" testable property), the
// end-to-end scenario spec.md §8 describes: MKDIR, CREATE, WRITE, and
// TRUNCATE replicated from a server root to a client root and compared by
// Metadata Digest.
package integration
