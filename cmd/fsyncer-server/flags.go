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

package main

import (
	"time"

	"golang.org/x/time/rate"
)

// parseAckTimeout parses s as a time.Duration, returning 0 (fanout's
// package default) when s is empty.
func parseAckTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// rateFromHz converts a WRITE-frames-per-second budget into a
// golang.org/x/time/rate.Limit, or 0 (no throttling) when hz is <= 0.
func rateFromHz(hz float64) rate.Limit {
	if hz <= 0 {
		return 0
	}
	return rate.Limit(hz)
}
