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

// Package digest computes the 64-bit metadata digest used as an
// informational handshake field and, when handshake enforcement is enabled,
// as a startup sanity check between a client's tree and the server's (spec
// §6, §9).
//
// It is a pre-order, symlink-unaware (never-follow) walk that folds each
// visited entry's path-relative-to-root, size, and modification time into a
// running djb2-style hash seeded at 5381. Integers are folded byte by byte
// in the host's native byte order — the same portability caveat spec §9
// documents for the UTIMENS FixedBlob applies here: digests are only
// meaningful when compared between hosts of like endianness.
package digest
