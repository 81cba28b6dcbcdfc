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

// Package mountops defines the Mutation Source Interface (spec §2, §4.4):
// the boundary through which an external mutation source — a kernel mount
// provider or equivalent, out of scope for this specification — delivers
// each intercepted filesystem mutation to the server. It mirrors
// github.com/jacobsa/fuse's fuseops request/response idiom, generalized
// from FUSE inode callbacks to fsyncer's path-based mutation set, and
// provides Dispatcher, the concrete Handler that applies each request
// locally and fans it out.
package mountops
