package client

import (
	"log"

	"github.com/robfig/cron/v3"

	"github.com/fsyncer/fsyncer/digest"
	"github.com/fsyncer/fsyncer/internal/logging"
)

// DigestScheduler periodically recomputes the destination tree's digest
// and compares it against a reference value, supplementing spec §6/§9's
// one-shot startup check (SPEC_FULL.md's DOMAIN STACK table). It never
// interrupts replay: a mismatch is only logged.
type DigestScheduler struct {
	cron *cron.Cron
	log  *log.Logger
}

// NewDigestScheduler builds a scheduler that re-scans root on spec
// (standard 5-field cron syntax) and calls onMismatch with the freshly
// computed digest whenever it differs from reference().
func NewDigestScheduler(spec, root string, reference func() uint64, onMismatch func(got uint64)) (*DigestScheduler, error) {
	s := &DigestScheduler{
		cron: cron.New(),
		log:  logging.New("fsyncer-client-digest"),
	}

	_, err := s.cron.AddFunc(spec, func() {
		d, err := digest.Scan(root)
		if err != nil {
			s.log.Printf("periodic digest scan of %s failed: %v", root, err)
			return
		}
		if uint64(d) != reference() {
			s.log.Printf("digest recheck of %s diverged: got %#x, want %#x", root, uint64(d), reference())
			onMismatch(uint64(d))
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the cron scheduler in its own goroutine.
func (s *DigestScheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for any in-flight run to finish.
func (s *DigestScheduler) Stop() { <-s.cron.Stop().Done() }
