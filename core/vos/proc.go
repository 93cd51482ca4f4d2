package vos

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"
)

// ErrNoHomeDir is returned when a user's account has no home directory.
var ErrNoHomeDir = errors.New("no home directory")

// VProc holds state shared by the whole shell process.
type VProc interface {
	// Chdir changes the process working directory.
	Chdir(dir string) error

	// Getwd returns the process working directory.
	Getwd() (string, error)

	// Getuid returns the numeric user id of the caller.
	Getuid() int

	// LookupHomeDir returns the home directory registered for the account
	// with the given user id.
	LookupHomeDir(uid int) (string, error)
}

// hostProc is the VProc of the running process.
type hostProc struct{}

var _ VProc = hostProc{}

func (hostProc) Chdir(dir string) error { return os.Chdir(dir) }
func (hostProc) Getwd() (string, error) { return os.Getwd() }
func (hostProc) Getuid() int            { return os.Getuid() }

func (hostProc) LookupHomeDir(uid int) (string, error) {
	return LookupAccountHomeDir(uid)
}

// LookupAccountHomeDir queries the account database for the home directory of
// uid.
func LookupAccountHomeDir(uid int) (string, error) {
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return "", err
	}
	if u.HomeDir == "" {
		return "", fmt.Errorf("uid %d: %w", uid, ErrNoHomeDir)
	}
	return u.HomeDir, nil
}
