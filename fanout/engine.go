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

package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"
	"golang.org/x/time/rate"

	"github.com/fsyncer/fsyncer/fsproto"
	"github.com/fsyncer/fsyncer/internal/logging"
)

// AckTimeout is the default deadline a SYNC peer has to answer a
// Broadcast before it is dropped from the peer table (spec §9's open question on
// SYNC ack timeouts; see SPEC_FULL.md).
const AckTimeout = 30 * time.Second

// PeerError is reported to an Engine's OnPeerError hook, if set, whenever
// a peer's transport fails mid-broadcast and the peer is dropped from the
// table.
type PeerError struct {
	PeerID uint64
	Err    error
}

func (e *PeerError) Error() string {
	return fmt.Sprintf("peer %d: %v", e.PeerID, e.Err)
}

// Engine is the server-side replication fan-out (spec §3, §4.5). The zero
// value is not ready to use; call New.
type Engine struct {
	mu syncutil.InvariantMutex

	// peers is keyed by Peer.ID rather than holding *Peer slices directly,
	// so that a peer can be removed mid-iteration of a Broadcast without
	// invalidating any other peer's position — the hazard spec §9 calls
	// out in the original's intrusive linked-list peer table.
	peers  map[uint64]*Peer // GUARDED_BY(mu)
	order  []uint64         // insertion order of live peer IDs, GUARDED_BY(mu)
	nextID uint64           // GUARDED_BY(mu)
	cork   *corkState
	clock  timeutil.Clock

	// AckTimeout bounds how long Broadcast waits for a SYNC peer's Ack.
	// Zero means AckTimeout (the package default) is used.
	ackTimeout time.Duration

	// Limiters, one per peer ID, throttling WRITE frame delivery. Only
	// populated when a positive WriteRateLimit was supplied to New; nil
	// otherwise, in which case no throttling is applied.
	limiters   map[uint64]*rate.Limiter // GUARDED_BY(mu)
	writeLimit rate.Limit

	// OnPeerError, if non-nil, is invoked (outside the engine's mutex)
	// whenever a peer is dropped because its transport failed.
	OnPeerError func(PeerError)
}

// Options configures a new Engine.
type Options struct {
	Clock timeutil.Clock

	// AckTimeout overrides the default SYNC-peer ack deadline. Zero means
	// use the package default, AckTimeout.
	AckTimeout time.Duration

	// WriteRateLimit, if non-zero, bounds the rate (in WRITE ops/sec) at
	// which any single peer is sent WRITE frames. Other op kinds are
	// never throttled. Zero disables throttling.
	WriteRateLimit rate.Limit
}

// New constructs a ready-to-use Engine.
func New(opts Options) *Engine {
	e := &Engine{
		peers:      make(map[uint64]*Peer),
		nextID:     1,
		cork:       newCorkState(),
		clock:      opts.Clock,
		ackTimeout: opts.AckTimeout,
		writeLimit: opts.WriteRateLimit,
	}
	if e.clock == nil {
		e.clock = timeutil.RealClock()
	}
	if e.ackTimeout == 0 {
		e.ackTimeout = AckTimeout
	}
	if e.writeLimit > 0 {
		e.limiters = make(map[uint64]*rate.Limiter)
	}
	e.mu = syncutil.NewInvariantMutex(e.checkInvariants)
	return e
}

func (e *Engine) checkInvariants() {
	if len(e.order) != len(e.peers) {
		panic("fanout: order/peers length mismatch")
	}
	seen := make(map[uint64]bool, len(e.order))
	for _, id := range e.order {
		if seen[id] {
			panic("fanout: duplicate peer id in order")
		}
		seen[id] = true
		if _, ok := e.peers[id]; !ok {
			panic("fanout: order references unknown peer id")
		}
	}
}

// AddPeer registers a new peer, assigning it a fresh ID, and returns it.
// New peers are appended at the tail of the delivery order: any
// Broadcast already in flight when AddPeer runs either saw the table
// without this peer or, since AddPeer and Broadcast serialize on mu,
// completed entirely beforehand.
func (e *Engine) AddPeer(mode fsproto.PeerMode, digest uint64, t Transport) *Peer {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := &Peer{
		ID:        e.nextID,
		Mode:      mode,
		Digest:    digest,
		Transport: t,
	}
	e.nextID++
	e.peers[p.ID] = p
	e.order = append(e.order, p.ID)
	if e.limiters != nil {
		e.limiters[p.ID] = rate.NewLimiter(e.writeLimit, 1)
	}
	return p
}

// RemovePeer drops a peer from the table and closes its transport. It is
// safe to call at any time, including from within a failed Broadcast
// delivery.
func (e *Engine) RemovePeer(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removePeerLocked(id)
}

func (e *Engine) removePeerLocked(id uint64) {
	p, ok := e.peers[id]
	if !ok {
		return
	}
	p.Transport.Close()
	delete(e.peers, id)
	delete(e.limiters, id)
	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// PeerCount returns the number of currently registered peers.
func (e *Engine) PeerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order)
}

// Cork engages the replication barrier; see corkState. It reports
// whether the barrier was not already engaged.
func (e *Engine) Cork() bool { return e.cork.Cork() }

// Uncork releases the replication barrier. It reports whether the
// barrier was actually engaged beforehand.
func (e *Engine) Uncork() bool { return e.cork.Uncork() }

// Corked reports whether the replication barrier is currently engaged.
func (e *Engine) Corked() bool { return e.cork.Corked() }

// Broadcast encodes op once and delivers it to every peer in insertion
// order (spec §4.5). ASYNC and CONTROL peers are written to and
// forgotten; SYNC peers are written to and then blocked on until their Ack
// arrives or AckTimeout elapses. A peer whose transport fails, or whose
// SYNC ack times out, is removed from the table, has its transport closed,
// and is reported via OnPeerError; Broadcast itself never returns an error for a single dead
// peer, since one peer's failure must not stop replication to the rest.
//
// Broadcast blocks for as long as the engine is corked before sending
// anything, so that operations issued during a cork are held rather than
// dropped or reordered around the barrier.
//
// e.mu is held for the entire encode-iterate-write-ack sequence below, not
// just while the peer table is snapshotted: spec §4.5/§5 requires that the
// next mutation cannot be broadcast to a SYNC peer until the current one
// has acked, and that per-peer delivery stays FIFO. Since fan-out dispatch
// runs on whichever thread delivered the mutation (spec §5) and
// mountops.Dispatcher adds no serialization of its own, two concurrent
// Broadcast calls racing to write to the same peer's Transport would
// otherwise interleave their frames. Holding the lock for the whole call
// serializes Broadcast globally, at the cost of one slow SYNC peer
// throttling fan-out to every other peer too — acceptable here since
// AckTimeout bounds how long that throttle can last.
func (e *Engine) Broadcast(tid uint64, op fsproto.Op) {
	e.cork.wait()

	frame := fsproto.EncodeFrame(tid, op)
	_, isWrite := op.(*fsproto.WriteOp)

	e.mu.Lock()

	// order is copied once up front: removePeerLocked shifts order's
	// backing array in place, which would otherwise corrupt an in-progress
	// range over e.order itself when a peer drops mid-broadcast.
	ids := make([]uint64, len(e.order))
	copy(ids, e.order)

	var dropped []PeerError
	for _, id := range ids {
		p, ok := e.peers[id]
		if !ok {
			continue
		}
		var limiter *rate.Limiter
		if e.limiters != nil {
			limiter = e.limiters[id]
		}

		if isWrite && limiter != nil {
			_ = limiter.Wait(context.Background())
		}

		if err := writeAll(p.Transport, frame); err != nil {
			p.LastError = err
			e.removePeerLocked(id)
			dropped = append(dropped, PeerError{PeerID: id, Err: err})
			continue
		}

		if p.Mode != fsproto.ModeSync {
			continue
		}

		deadline := e.clock.Now().Add(e.ackTimeout)
		ack, err := readAck(p.Transport, deadline)
		if err != nil {
			p.LastError = err
			e.removePeerLocked(id)
			dropped = append(dropped, PeerError{PeerID: id, Err: err})
			continue
		}
		if ack.Retcode != 0 {
			logging.Default().Printf("peer %d diverged on tid %d: retcode %d", id, tid, ack.Retcode)
		}
	}

	e.mu.Unlock()

	if e.OnPeerError != nil {
		for _, pe := range dropped {
			e.OnPeerError(pe)
		}
	}
}
