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

// Command fsyncer-client connects to a fsyncer-server and replays every
// mutation it receives against a local destination root (spec §4.7).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fsyncer/fsyncer/client"
	"github.com/fsyncer/fsyncer/digest"
	"github.com/fsyncer/fsyncer/fsproto"
	"github.com/fsyncer/fsyncer/internal/config"
	"github.com/fsyncer/fsyncer/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		sync     bool
		host     string
		port     int
		dest     string
		debug    bool
		cfgPath  string
		cronSpec string
	)

	cmd := &cobra.Command{
		Use:   "fsyncer-client",
		Short: "Replay a fsyncer-server's mutation stream against a local tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd, clientFlags{
				sync:     sync,
				host:     host,
				port:     port,
				dest:     dest,
				debug:    debug,
				cfgPath:  cfgPath,
				cronSpec: cronSpec,
			})
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&sync, "sync", "s", false, "connect in SYNC mode (ack every op)")
	flags.StringVarP(&host, "host", "h", "", "server address (mandatory)")
	flags.IntVarP(&port, "port", "p", 2323, "server port")
	flags.StringVarP(&dest, "dest", "d", "", "destination root prefix (mandatory)")
	flags.BoolVar(&debug, "debug", false, "enable verbose debug logging")
	flags.StringVar(&cfgPath, "config", "", "optional YAML config file layered beneath these flags")
	flags.StringVar(&cronSpec, "digest-recheck-cron", "", "cron spec for periodic digest rechecks, e.g. \"0 * * * *\"")

	cmd.SilenceUsage = true
	return cmd
}

type clientFlags struct {
	sync     bool
	host     string
	port     int
	dest     string
	debug    bool
	cfgPath  string
	cronSpec string
}

func runClient(cmd *cobra.Command, f clientFlags) error {
	fileCfg, err := config.LoadClient(f.cfgPath)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", f.cfgPath, err)
	}

	host := firstNonEmpty(f.host, fileCfg.Host)
	dest := firstNonEmpty(f.dest, fileCfg.Dest)
	if host == "" || dest == "" {
		cmd.Usage()
		return fmt.Errorf("fsyncer-client: -h and -d are mandatory")
	}
	port := f.port
	if !cmd.Flags().Changed("port") && fileCfg.Port != 0 {
		port = fileCfg.Port
	}
	syncMode := f.sync || fileCfg.Sync
	debug := f.debug || fileCfg.Debug
	cronSpec := firstNonEmpty(f.cronSpec, fileCfg.CronSpec)

	logging.SetEnabled(debug)
	log := logging.New("fsyncer-client")

	startDigest, err := digest.Scan(dest)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dest, err)
	}
	log.Printf("destination %s starting digest %#x", dest, uint64(startDigest))

	mode := fsproto.ModeAsync
	if syncMode {
		mode = fsproto.ModeSync
	}

	c := client.New(client.Options{
		Mode:   mode,
		Digest: uint64(startDigest),
		Dest:   dest,
		Logger: log,
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := c.Connect(addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()
	log.Printf("connected to %s (mode=%v)", addr, mode)

	if cronSpec != "" {
		sched, err := client.NewDigestScheduler(cronSpec, dest, func() uint64 { return uint64(startDigest) }, func(got uint64) {
			log.Printf("destination %s digest diverged: now %#x", dest, got)
		})
		if err != nil {
			return fmt.Errorf("scheduling digest recheck %q: %w", cronSpec, err)
		}
		sched.Start()
		defer sched.Stop()
	}

	return c.Run(conn)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
