package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/SeJohnEff/simprov/internal/domain"
	"github.com/SeJohnEff/simprov/internal/ports"
)

const (
	DefaultTimeout     = 30 * time.Second
	defaultInterpreter = "python3"

	// EnvToolPath names the environment variable checked when no tool
	// root is configured explicitly.
	EnvToolPath = "SYSMO_USIM_TOOL_PATH"
)

const notFoundGuidance = "sysmo-usim-tool not found. Set " + EnvToolPath +
	" or tool.path in the config file, or install it under ~/sysmo-usim-tool."

type runFunc func(ctx context.Context, dir, name string, args ...string) (stdout string, stderr string, err error)

// Invoker runs scripts of the external card tool as short-lived
// subprocesses. Each call blocks until the process exits or the timeout
// kills it; no process outlives Run.
type Invoker struct {
	root        string
	interpreter string
	timeout     time.Duration
	run         runFunc
}

var _ ports.ToolRunner = (*Invoker)(nil)

type Option func(*Invoker)

func WithTimeout(timeout time.Duration) Option {
	return func(i *Invoker) {
		if timeout > 0 {
			i.timeout = timeout
		}
	}
}

func WithInterpreter(interpreter string) Option {
	return func(i *Invoker) {
		if interpreter != "" {
			i.interpreter = interpreter
		}
	}
}

// NewInvoker builds an invoker for the given tool root directory. An empty
// root is allowed: every Run then fails with domain.ErrToolNotFound and a
// configuration hint, so offline batch editing keeps working.
func NewInvoker(root string, opts ...Option) *Invoker {
	i := &Invoker{
		root:        root,
		interpreter: defaultInterpreter,
		timeout:     DefaultTimeout,
		run:         runSubprocess,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ResolveRoot picks the tool root directory: the explicit value first,
// then the environment variable, then conventional install locations.
// The first existing directory wins.
func ResolveRoot(explicit string) string {
	candidates := []string{explicit, os.Getenv(EnvToolPath)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, "sysmo-usim-tool"))
	}
	candidates = append(candidates, "/opt/sysmo-usim-tool")

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Clean(candidate)
		}
	}
	return ""
}

func (i *Invoker) Run(ctx context.Context, script string, args ...string) (string, error) {
	if i.root == "" {
		return notFoundGuidance, domain.ErrToolNotFound
	}

	scriptPath := filepath.Join(i.root, script)
	if info, err := os.Stat(scriptPath); err != nil || info.IsDir() {
		return fmt.Sprintf("Script not found: %s", script), domain.ErrScriptNotFound
	}

	runCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	stdout, stderr, err := i.run(runCtx, i.root, i.interpreter, append([]string{scriptPath}, args...)...)
	output := strings.TrimSpace(stdout + stderr)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "Command timed out", domain.ErrTimeout
	}
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Sprintf("Script not found: %s", script), domain.ErrScriptNotFound
		}
		if output == "" {
			output = err.Error()
		}
		return output, fmt.Errorf("%w: %s", domain.ErrToolExecutionFailed, output)
	}

	return output, nil
}

func runSubprocess(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
