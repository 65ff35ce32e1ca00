package swarm

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"swarmhammer/internal/config"
	"swarmhammer/internal/logger"
)

// Files inside every worker directory.
const (
	ConfigFileName = "config.yaml"
	LogFileName    = "echidna.out"
)

// ErrPrefixExists is returned when a worker directory is already present.
var ErrPrefixExists = errors.New("worker directory already exists")

// Launcher starts one engine worker per call.
type Launcher interface {
	Launch(ctx context.Context, prefix string, wc WorkerConfig) (*WorkerHandle, error)
}

// ProcessLauncher runs the fuzzing engine as a child process.
type ProcessLauncher struct {
	engine   string
	files    []string
	contract string
	logger   *log.Logger
}

// NewProcessLauncher creates a launcher for params.EngineCmd. A relative
// engine path is made absolute because workers run in their own directories.
func NewProcessLauncher(params *config.RunParameters) *ProcessLauncher {
	engine := params.EngineCmd
	if strings.ContainsRune(engine, filepath.Separator) {
		if abs, err := filepath.Abs(engine); err == nil {
			engine = abs
		}
	}
	return &ProcessLauncher{
		engine:   engine,
		files:    params.Files,
		contract: params.Contract,
		logger:   logger.NewStyledLogger("Launcher"),
	}
}

// CheckEngine verifies the engine can be executed.
func (l *ProcessLauncher) CheckEngine() error {
	if _, err := exec.LookPath(l.engine); err != nil {
		return fmt.Errorf("%w: %s: %v", config.ErrEngineNotFound, l.engine, err)
	}
	return nil
}

// Args returns the engine arguments for a worker.
func (l *ProcessLauncher) Args() []string {
	args := append([]string(nil), l.files...)
	args = append(args, "--config", ConfigFileName)
	if l.contract != "" {
		args = append(args, "--contract", l.contract, "--format", "text")
	}
	return args
}

// Launch creates prefix, writes the worker config into it and starts the
// engine there with stdout and stderr going to a single log file. It returns
// as soon as the process is running.
func (l *ProcessLauncher) Launch(_ context.Context, prefix string, wc WorkerConfig) (*WorkerHandle, error) {
	l.logger.Info("Launching worker", "prefix", prefix,
		"blacklisting", "["+strings.Join(wc.Excluded, ", ")+"]", "seqLen", wc.SeqLen)

	if err := os.Mkdir(prefix, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrPrefixExists, prefix)
		}
		return nil, fmt.Errorf("failed to create worker directory: %w", err)
	}

	data, err := yaml.Marshal(map[string]any(wc.Values))
	if err != nil {
		return nil, fmt.Errorf("failed to encode worker config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(prefix, ConfigFileName), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write worker config: %w", err)
	}

	logPath := filepath.Join(prefix, LogFileName)
	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker log: %w", err)
	}

	cmd := exec.Command(l.engine, l.Args()...)
	cmd.Dir = prefix
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("failed to start %s: %w", l.engine, err)
	}

	h := &WorkerHandle{
		Prefix:  prefix,
		LogPath: logPath,
		cmd:     cmd,
		logFile: logFile,
		done:    make(chan struct{}),
	}
	go h.reap()

	l.logger.Debug("Worker started", "prefix", prefix, "pid", cmd.Process.Pid)
	return h, nil
}

// WorkerHandle tracks one running worker.
type WorkerHandle struct {
	Prefix  string
	LogPath string

	cmd       *exec.Cmd
	logFile   *os.File
	done      chan struct{}
	exitCode  int
	closeOnce sync.Once
}

func (h *WorkerHandle) reap() {
	_ = h.cmd.Wait()
	h.exitCode = h.cmd.ProcessState.ExitCode()
	close(h.done)
}

// Done is closed once the process has exited.
func (h *WorkerHandle) Done() <-chan struct{} {
	return h.done
}

// Exited reports without blocking whether the process has exited.
func (h *WorkerHandle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits and returns its exit code.
func (h *WorkerHandle) Wait() int {
	<-h.done
	return h.exitCode
}

// ExitCode is the process exit code, -1 when it was killed by a signal. Only
// meaningful after Done is closed.
func (h *WorkerHandle) ExitCode() int {
	return h.exitCode
}

// Kill forcefully terminates the worker and anything it spawned.
func (h *WorkerHandle) Kill() error {
	if h.Exited() {
		return nil
	}
	err := killProcessGroup(h.cmd)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Close releases the log file. The process keeps its own descriptor.
func (h *WorkerHandle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		err = h.logFile.Close()
	})
	return err
}
