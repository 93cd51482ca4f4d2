// Package vos is the shell's view of the host operating system: environment,
// standard streams and process-wide state such as the working directory.
package vos

// VOS provides the operating system interface the executor runs against.
type VOS interface {
	VEnv
	VIO
	VProc
}
