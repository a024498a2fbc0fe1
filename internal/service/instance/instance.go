package instance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/ward-monitor/internal/logger"
)

// ErrAlreadyRunning is returned when another process has the same executable name.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lister returns the running processes.
type Lister func() ([]ps.Process, error)

// Guard checks the process table.
type Guard struct {
	list Lister
	self int
}

// NewGuard creates a guard over the real process table.
func NewGuard() *Guard {
	return &Guard{list: ps.Processes, self: os.Getpid()}
}

// EnsureSingle fails with ErrAlreadyRunning if a process other than this one
// runs the executable name. An empty name means this executable.
func (g *Guard) EnsureSingle(ctx context.Context, name string) error {
	if name == "" {
		name = CurrentExecutable()
	}

	processes, err := g.list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, p := range processes {
		if p.Pid() == g.self || p.Executable() != name {
			continue
		}

		logger.WarnKV(ctx, "Found a running instance", "executable", name, "pid", p.Pid())

		return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, name, p.Pid())
	}

	return nil
}

// EnsureSingle checks the real process table.
func EnsureSingle(ctx context.Context, name string) error {
	return NewGuard().EnsureSingle(ctx, name)
}

// CurrentExecutable returns the base name of this executable.
func CurrentExecutable() string {
	if path, err := os.Executable(); err == nil {
		return filepath.Base(path)
	}

	return filepath.Base(os.Args[0])
}
