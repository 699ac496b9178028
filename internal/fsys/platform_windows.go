//go:build windows

package fsys

import (
	"io/fs"
	"os"
)

// lstat reads the metadata fields available on Windows. Ownership ids and
// distinct access/change times are not exposed by the portable stat, so
// access and change times fall back to the modification time and ownership
// is recorded as zero.
func lstat(path string) (*statResult, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}

	return &statResult{
		Kind:       kindOf(info.Mode().Type()),
		Size:       info.Size(),
		AccessTime: info.ModTime(),
		ModTime:    info.ModTime(),
		ChangeTime: info.ModTime(),
		Perm:       uint32(info.Mode() & fs.ModePerm),
	}, nil
}
