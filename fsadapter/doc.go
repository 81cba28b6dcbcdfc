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

// Package fsadapter implements the minimal set of mutation operations
// against an underlying directory (spec §4.2): mknod, mkdir, unlink, rmdir,
// symlink, rename, link, chmod, chown, truncate, write, create, utimens,
// fallocate, setxattr, removexattr. Every operation takes a path already
// resolved against a configured root prefix and returns either 0 (or, for
// Write, a positive byte count) or a negative platform errno — never a Go
// error — so that the retcode can cross the wire unchanged in an Ack frame.
//
// Operations that touch metadata on a path rather than an already-open
// handle (Chmod, Chown, Setxattr, Removexattr, Utimens) never follow a
// terminal symlink, matching the xmp_* functions in the system this package
// replicates.
package fsadapter
