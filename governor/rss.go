package governor

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// procRSSMB returns this process's resident set size in MiB, or 0 if it
// cannot be determined.
func procRSSMB() uint64 {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	info, err := p.MemoryInfo()
	if err != nil || info == nil {
		return 0
	}
	return info.RSS / (1024 * 1024)
}
