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

// Package testutil holds helpers for asserting that a server tree and a
// client tree have converged (spec §8's Convergence testable property),
// adapted from github.com/jacobsa/fuse/fusetesting's stat-comparison
// matchers: the same oglematchers.Matcher idiom, retargeted from
// os.FileInfo fields to the Metadata Digest and directory listings this
// system actually replicates.
package testutil
