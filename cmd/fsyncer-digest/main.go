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

// Command fsyncer-digest prints a tree's Metadata Digest (spec §4.3)
// without starting a server or client, for operators who want to check
// convergence by hand (SPEC_FULL.md supplemented feature 1).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fsyncer/fsyncer/digest"
)

func main() {
	cmd := &cobra.Command{
		Use:   "fsyncer-digest <root>",
		Short: "Print the Metadata Digest of a directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := digest.Scan(args[0])
			if err != nil {
				return fmt.Errorf("scanning %s: %w", args[0], err)
			}
			fmt.Printf("%#016x\n", uint64(d))
			return nil
		},
	}
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
