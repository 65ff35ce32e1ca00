// Package discovery builds the function universe: the ordered set of public
// and external functions a swarm may include or exclude.
package discovery

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"swarmhammer/internal/logger"
)

// ErrSlitherNotFound is returned when the slither binary cannot be executed.
var ErrSlitherNotFound = errors.New("slither not found")

// Discoverer produces the function universe for a set of target files.
type Discoverer interface {
	Discover(ctx context.Context, files []string, propertyPrefix string) ([]string, error)
}

// Static returns an operator supplied function list.
type Static struct {
	Names []string
}

// Discover implements Discoverer.
func (s Static) Discover(_ context.Context, _ []string, _ string) ([]string, error) {
	return Dedup(s.Names), nil
}

// Slither runs slither's function-summary printer on every target file.
type Slither struct {
	Cmd    string
	logger *log.Logger
}

// NewSlither creates a slither-backed discoverer.
func NewSlither(cmd string) *Slither {
	return &Slither{Cmd: cmd, logger: logger.NewStyledLogger("Discovery")}
}

// Discover implements Discoverer. slither's exit status is ignored because it
// reports detector findings through it; only a missing binary is fatal.
func (s *Slither) Discover(ctx context.Context, files []string, propertyPrefix string) ([]string, error) {
	var names []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, fmt.Errorf("specified file %s does not exist: %w", f, err)
		}

		cmd := exec.CommandContext(ctx, s.Cmd, f, "--print", "function-summary")
		out, err := cmd.CombinedOutput()
		if err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return nil, fmt.Errorf("%w: %v", ErrSlitherNotFound, err)
			}
			s.logger.Debug("slither exited with non-zero status", "file", f, "exit_code", exitErr.ExitCode())
		}

		found := ParseFunctionSummary(bytes.NewReader(out), propertyPrefix)
		s.logger.Debug("Parsed function summary", "file", f, "functions", len(found))
		names = append(names, found...)
	}

	names = Dedup(names)
	s.logger.Info("Identified public functions", "count", len(names), "functions", strings.Join(names, ", "))
	return names, nil
}

// ParseFunctionSummary extracts public and external function names from
// slither function-summary output. A table starts at the row whose second
// column reads "Function" and ends at its second "+-" border line. Names
// starting with propertyPrefix are engine properties and are skipped.
func ParseFunctionSummary(r io.Reader, propertyPrefix string) []string {
	var names []string
	inFunctions := false
	borders := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())

		if inFunctions {
			if len(fields) > 0 && strings.HasPrefix(fields[0], "+-") {
				borders++
			}
			if borders == 2 {
				inFunctions = false
			} else if len(fields) > 3 {
				name, _, _ := strings.Cut(fields[1], "(")
				if propertyPrefix != "" && strings.HasPrefix(name, propertyPrefix) {
					continue
				}
				if visibility := fields[3]; visibility == "public" || visibility == "external" {
					names = append(names, name)
				}
			}
		}

		if len(fields) > 1 && fields[1] == "Function" {
			inFunctions = true
			borders = 0
		}
	}
	return names
}

// Dedup removes repeated names, keeping first occurrences in order.
func Dedup(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
