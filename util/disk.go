package meiliutil

import (
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/disk"
)

// Returns the number of bytes available on the filesystem holding the path.
func GetFreeDiskSpace(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot get the disk usage of %s", path)
	}
	return usage.Free, nil
}
