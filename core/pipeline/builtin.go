package pipeline

import (
	"fmt"
	"io"
	"sort"

	"github.com/josephlewis42/mush/core/vos"
	"github.com/pborman/getopt/v2"
)

const (
	// EnvHome names the variable that overrides the account home directory.
	EnvHome = "HOME"
	// EnvPwd names the variable cd keeps in step with the working directory.
	EnvPwd = "PWD"
)

// Builtin is a command executed inside the shell process because it changes
// state the shell owns. A child could not make such a change visible.
type Builtin interface {
	// Name is the exact program name the builtin answers to.
	Name() string
	// Main runs the builtin and returns its status. Failures are reported
	// on the VOS's stderr.
	Main(virtOS vos.VOS, args []string) int
}

// allBuiltins is the closed set of builtins keyed by name.
var allBuiltins = map[string]Builtin{
	Cd{}.Name(): Cd{},
}

// ListBuiltins returns the sorted names of all builtins.
func ListBuiltins() []string {
	var names []string
	for name := range allBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupBuiltin returns the builtin named exactly name.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := allBuiltins[name]
	return b, ok
}

// Cd changes the shell's working directory.
type Cd struct{}

var _ Builtin = Cd{}

func (Cd) Name() string { return "cd" }

// Main implements Builtin. With no directory it goes to $HOME, or to the home
// directory registered for the current user if HOME is unset. PWD is set to
// the new directory so later stages see it.
func (c Cd) Main(virtOS vos.VOS, args []string) int {
	w := virtOS.Stderr()

	opts := getopt.New()
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")
	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", c.Name(), err)
		}
		c.printUsage(w, opts)
		if err != nil {
			return 1
		}
		return 0
	}

	var dir string
	switch rest := opts.Args(); len(rest) {
	case 0:
		home, err := homeDir(virtOS)
		if err != nil {
			fmt.Fprintf(w, "%s: unable to determine home directory: %v\n", c.Name(), err)
			return 1
		}
		dir = home
	case 1:
		dir = rest[0]
	default:
		fmt.Fprintf(w, "%s: too many arguments\n", c.Name())
		return 1
	}

	if err := virtOS.Chdir(dir); err != nil {
		fmt.Fprintf(w, "%s: %v\n", c.Name(), err)
		return 1
	}

	wd, err := virtOS.Getwd()
	if err == nil {
		err = virtOS.Setenv(EnvPwd, wd)
	}
	if err != nil {
		fmt.Fprintf(w, "%s: %s: %v\n", c.Name(), EnvPwd, err)
		return 1
	}
	return 0
}

func (c Cd) printUsage(w io.Writer, opts *getopt.Set) {
	fmt.Fprintf(w, "usage: %s [DIR]\n", c.Name())
	fmt.Fprintln(w, "Change the shell working directory to DIR, or to the home directory.")
	opts.PrintOptions(w)
}

func homeDir(virtOS vos.VOS) (string, error) {
	if home, ok := virtOS.LookupEnv(EnvHome); ok {
		return home, nil
	}
	return virtOS.LookupHomeDir(virtOS.Getuid())
}
