package swarm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// FailureMarker identifies a failed property in engine output.
const FailureMarker = "failed"

// Scan returns every line of the worker log that contains FailureMarker,
// verbatim without its newline, duplicates included.
func Scan(logPath string) ([]string, error) {
	f, err := os.Open(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open worker log: %w", err)
	}
	defer f.Close()

	return ScanReader(f)
}

// ScanReader is Scan over an arbitrary stream.
func ScanReader(r io.Reader) ([]string, error) {
	var failures []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		line = strings.TrimSuffix(line, "\n")
		if strings.Contains(line, FailureMarker) {
			failures = append(failures, line)
		}
		if errors.Is(err, io.EOF) {
			return failures, nil
		}
		if err != nil {
			return failures, fmt.Errorf("failed to read worker log: %w", err)
		}
	}
}
