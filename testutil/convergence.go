package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kylelemons/godebug/pretty"

	"github.com/fsyncer/fsyncer/digest"
)

// ListRelative returns every path under root, relative to root, sorted
// lexically. Used to compare a server tree against a client tree
// independently of the Metadata Digest, for tests that want to see
// exactly which entries differ.
func ListRelative(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, _ os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel != "." {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// DiffTrees returns a human-readable diff of two trees' relative-path
// listings using kylelemons/godebug/pretty, or "" if they match exactly.
func DiffTrees(serverRoot, clientRoot string) (string, error) {
	serverList, err := ListRelative(serverRoot)
	if err != nil {
		return "", fmt.Errorf("listing server root %s: %w", serverRoot, err)
	}
	clientList, err := ListRelative(clientRoot)
	if err != nil {
		return "", fmt.Errorf("listing client root %s: %w", clientRoot, err)
	}
	return pretty.Compare(serverList, clientList), nil
}

// DigestsConverged reports whether serverRoot and clientRoot currently
// scan to the same Metadata Digest.
func DigestsConverged(serverRoot, clientRoot string) (bool, error) {
	sd, err := digest.Scan(serverRoot)
	if err != nil {
		return false, fmt.Errorf("scanning server root %s: %w", serverRoot, err)
	}
	cd, err := digest.Scan(clientRoot)
	if err != nil {
		return false, fmt.Errorf("scanning client root %s: %w", clientRoot, err)
	}
	return sd == cd, nil
}

// WaitForConvergence polls DigestsConverged until it reports true or
// timeout elapses, returning the last diff (via DiffTrees) on timeout so
// a failing test can show exactly what's missing.
func WaitForConvergence(serverRoot, clientRoot string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := DigestsConverged(serverRoot, clientRoot)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			diff, derr := DiffTrees(serverRoot, clientRoot)
			if derr != nil {
				return fmt.Errorf("trees did not converge within %s, and diffing failed: %v", timeout, derr)
			}
			return fmt.Errorf("trees did not converge within %s:\n%s", timeout, diff)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
