package testutils

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteScript writes an executable /bin/sh script named name into dir and
// returns its path.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := "#!/bin/sh\n" + body
	require.NoError(t, os.WriteFile(path, []byte(content), 0755))
	return path
}

// WorkerBehavior describes how a fake engine acts inside one worker directory.
type WorkerBehavior struct {
	Output   []string
	ExitCode int
	// Sleep in seconds before exiting; use a large value to simulate a stall.
	Sleep string
}

// WriteFakeEngine writes a fake fuzzing engine that dispatches on the name of
// its working directory ("initial", "gen.1.0", ...). Directories without an
// entry print "all properties passed" and exit 0. Every invocation writes its
// arguments to args.log in the worker directory.
func WriteFakeEngine(t *testing.T, dir string, behaviors map[string]WorkerBehavior) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("echo \"$@\" > args.log\n")
	b.WriteString("case \"$(basename \"$(pwd)\")\" in\n")
	for name, behavior := range behaviors {
		b.WriteString("  " + name + ")\n")
		for _, line := range behavior.Output {
			b.WriteString("    printf '%s\\n' " + shellQuote(line) + "\n")
		}
		if behavior.Sleep != "" {
			b.WriteString("    sleep " + behavior.Sleep + "\n")
		}
		b.WriteString("    exit " + strconv.Itoa(behavior.ExitCode) + "\n")
		b.WriteString("    ;;\n")
	}
	b.WriteString("esac\n")
	b.WriteString("echo 'all properties passed'\n")
	b.WriteString("exit 0\n")

	return WriteScript(t, dir, "fake-echidna", b.String())
}

// WriteTarget writes a placeholder contract source and returns its path.
func WriteTarget(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "Token.sol")
	require.NoError(t, os.WriteFile(path, []byte("contract Token {}\n"), 0644))
	return path
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
