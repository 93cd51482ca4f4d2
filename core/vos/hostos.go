package vos

import "os"

// HostOS is the VOS of the running process.
type HostOS struct {
	hostEnv
	hostProc
	VIOAdapter
}

var _ VOS = (*HostOS)(nil)

// NewHostOS creates a VOS reading from stdin and writing to the process's own
// stdout and stderr.
func NewHostOS(stdin *os.File) *HostOS {
	return &HostOS{
		VIOAdapter: VIOAdapter{
			IStdin:  stdin,
			IStdout: os.Stdout,
			IStderr: os.Stderr,
		},
	}
}
