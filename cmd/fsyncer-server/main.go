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

// Command fsyncer-server runs the Server Front-End and fan-out Engine
// (spec §4.4, §4.5): it scans --path once for the handshake digest and
// listens for replication peers and control connections on --port. It
// does not intercept mutations applied under --path: no
// mountops.Dispatcher is created here, so nothing is broadcast to the
// registered peers by this command.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fsyncer/fsyncer/digest"
	"github.com/fsyncer/fsyncer/fanout"
	"github.com/fsyncer/fsyncer/internal/config"
	"github.com/fsyncer/fsyncer/internal/logging"
	"github.com/fsyncer/fsyncer/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		path       string
		port       int
		consistent bool
		dontCheck  bool
		debug      bool
		cfgPath    string
		ackTimeout string
	)

	cmd := &cobra.Command{
		Use:   "fsyncer-server",
		Short: "Replicate filesystem mutations to connected peers",
		Long: "fsyncer-server accepts SYNC and ASYNC replication peers and CONTROL\n" +
			"(CORK/UNCORK) connections. It does not itself intercept mutations\n" +
			"applied under --path.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, serverFlags{
				path:       path,
				port:       port,
				consistent: consistent,
				dontCheck:  dontCheck,
				debug:      debug,
				cfgPath:    cfgPath,
				ackTimeout: ackTimeout,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&path, "path", "", "root directory to replicate (mandatory)")
	flags.IntVar(&port, "port", 2323, "TCP port to listen on")
	flags.BoolVar(&consistent, "consistent", false, "accepted for CLI-surface compatibility; unused (see DESIGN.md)")
	flags.BoolVar(&dontCheck, "dont-check", false, "skip the startup digest handshake check")
	flags.BoolVar(&debug, "debug", false, "enable verbose debug logging")
	flags.StringVar(&cfgPath, "config", "", "optional YAML config file layered beneath these flags")
	flags.StringVar(&ackTimeout, "ack-timeout", "", "SYNC peer ack deadline, e.g. \"30s\" (default fanout.AckTimeout)")

	cmd.SilenceUsage = true
	return cmd
}

type serverFlags struct {
	path       string
	port       int
	consistent bool
	dontCheck  bool
	debug      bool
	cfgPath    string
	ackTimeout string
}

func runServer(cmd *cobra.Command, f serverFlags) error {
	fileCfg, err := config.LoadServer(f.cfgPath)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", f.cfgPath, err)
	}

	path := firstNonEmpty(f.path, fileCfg.Path)
	if path == "" {
		cmd.Usage()
		return fmt.Errorf("fsyncer-server: --path is mandatory")
	}
	port := f.port
	if !cmd.Flags().Changed("port") && fileCfg.Port != 0 {
		port = fileCfg.Port
	}
	dontCheck := f.dontCheck || fileCfg.DontCheck
	debug := f.debug || fileCfg.Debug

	logging.SetEnabled(debug)
	log := logging.New("fsyncer-server")

	ackTimeout, err := parseAckTimeout(firstNonEmpty(f.ackTimeout, fileCfg.AckTimeout))
	if err != nil {
		return fmt.Errorf("parsing --ack-timeout: %w", err)
	}

	localDigest, err := digest.Scan(path)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}
	log.Printf("root %s digest %#x", path, uint64(localDigest))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	snap, err := server.NewSnapshotCoordinator(ctx, path, fileCfg.Snapshot)
	if err != nil {
		return fmt.Errorf("configuring snapshot coordinator: %w", err)
	}

	engine := fanout.New(fanout.Options{
		AckTimeout:     ackTimeout,
		WriteRateLimit: rateFromHz(fileCfg.WriteRateHz),
	})
	engine.OnPeerError = func(pe fanout.PeerError) {
		log.Printf("peer dropped: %v", pe)
	}

	srv := server.New(server.Options{
		Engine:      engine,
		LocalDigest: uint64(localDigest),
		DontCheck:   dontCheck,
		Snapshot:    snap,
		Logger:      log,
	})

	addr := fmt.Sprintf(":%d", port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	log.Printf("listening on %s, replicating %s", addr, path)

	return srv.Serve(ctx, l)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
