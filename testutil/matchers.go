package testutil

import (
	"fmt"
	"reflect"

	"github.com/jacobsa/oglematchers"

	"github.com/fsyncer/fsyncer/digest"
)

// DigestEquals matches a digest.Digest value (or any value convertible to
// uint64) against a fresh scan of root, the same NewMatcher idiom
// fusetesting.MtimeIs uses to compare an os.FileInfo field against an
// expected value.
func DigestEquals(root string) oglematchers.Matcher {
	return oglematchers.NewMatcher(
		func(c interface{}) error { return digestEquals(c, root) },
		fmt.Sprintf("digest equals scan of %s", root))
}

func digestEquals(c interface{}, root string) error {
	var got uint64
	switch v := c.(type) {
	case digest.Digest:
		got = uint64(v)
	case uint64:
		got = v
	default:
		return fmt.Errorf("which is of type %v", reflect.TypeOf(c))
	}

	want, err := digest.Scan(root)
	if err != nil {
		return fmt.Errorf("scanning %s: %v", root, err)
	}
	if got != uint64(want) {
		return fmt.Errorf("which is %#x, but scanning %s gives %#x", got, root, uint64(want))
	}
	return nil
}
