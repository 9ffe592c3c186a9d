package shared

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Destination is a candidate download target with optional capacity figures.
type Destination struct {
	Path  string
	Label string
	Total uint64
	Free  uint64
}

var mountRoots = []string{"/media", "/run/media", "/mnt"}

// ListDestinations returns the given extra paths plus every mounted volume
// found under the usual removable-media roots. Extra paths are listed first
// and need not exist yet.
func ListDestinations(extra ...string) []Destination {
	var dests []Destination
	for _, p := range extra {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		d := Destination{Path: abs}
		if total, free, err := diskUsage(abs); err == nil {
			d.Total, d.Free = total, free
		}
		dests = append(dests, d)
	}

	for _, root := range mountRoots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			path := filepath.Join(root, entry.Name())
			if isMountPoint(path) {
				dests = append(dests, describeMount(path))
				continue
			}
			// /run/media nests mounts one level deeper, under the username
			nested, err := os.ReadDir(path)
			if err != nil {
				continue
			}
			for _, n := range nested {
				if !n.IsDir() {
					continue
				}
				sub := filepath.Join(path, n.Name())
				if isMountPoint(sub) {
					dests = append(dests, describeMount(sub))
				}
			}
		}
	}
	return dests
}

func describeMount(path string) Destination {
	d := Destination{Path: path, Label: filepath.Base(path)}
	if total, free, err := diskUsage(path); err == nil {
		d.Total, d.Free = total, free
	}
	return d
}

// isMountPoint reports whether path sits on a different device than its parent.
func isMountPoint(path string) bool {
	var st, parent unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return false
	}
	if err := unix.Lstat(filepath.Dir(path), &parent); err != nil {
		return false
	}
	return st.Dev != parent.Dev
}

func diskUsage(path string) (total, free uint64, err error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return 0, 0, err
	}
	bsize := uint64(fs.Bsize)
	return fs.Blocks * bsize, fs.Bavail * bsize, nil
}
