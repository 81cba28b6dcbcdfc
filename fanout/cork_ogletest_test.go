package fanout_test

import (
	"net"
	"testing"

	"github.com/fsyncer/fsyncer/fanout"
	"github.com/fsyncer/fsyncer/fsproto"

	. "github.com/jacobsa/ogletest"
)

func TestOgleCork(t *testing.T) { RunTests(t) }

func init() { RegisterTestSuite(&CorkTest{}) }

// CorkTest exercises the cork/uncork barrier's idempotency (spec §4.5 /
// §9) with ogletest's suite idiom, the way jacobsa/fuse's own samples
// test stateful behavior: ExpectTrue/ExpectFalse on the reported
// state-changed booleans.
type CorkTest struct {
	engine *fanout.Engine
}

func (t *CorkTest) SetUp(ti *TestInfo) {
	t.engine = fanout.New(fanout.Options{})
}

func (t *CorkTest) CorkIsIdempotent() {
	ExpectTrue(t.engine.Cork())
	ExpectFalse(t.engine.Cork())
	ExpectFalse(t.engine.Cork())
	ExpectTrue(t.engine.Corked())
}

func (t *CorkTest) UncorkIsIdempotent() {
	ExpectFalse(t.engine.Uncork())

	t.engine.Cork()
	ExpectTrue(t.engine.Uncork())
	ExpectFalse(t.engine.Uncork())
	ExpectFalse(t.engine.Corked())
}

func (t *CorkTest) CorkThenUncorkRoundTrips() {
	ExpectTrue(t.engine.Cork())
	ExpectTrue(t.engine.Uncork())
	ExpectTrue(t.engine.Cork())
	ExpectTrue(t.engine.Uncork())
}

func (t *CorkTest) AddPeerDoesNotDisturbCorkState() {
	t.engine.Cork()

	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()
	t.engine.AddPeer(fsproto.ModeAsync, 0, client)

	ExpectTrue(t.engine.Corked())
	AssertEq(1, t.engine.PeerCount())
}
