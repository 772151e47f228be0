package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
)

// ArgPrefix prefixes the environment variables that carry tool arguments.
const ArgPrefix = "CANOPY_ARG_"

// DefaultGracePeriod is how long a cancelled process gets between the interrupt
// and the kill.
const DefaultGracePeriod = 5 * time.Second

var unsafeKey = regexp.MustCompile(`[^A-Z0-9_]`)

// Runner executes allow-listed local processes. It implements ports.ToolInvoker.
// Arguments never reach the command line; they are passed as CANOPY_ARG_*
// environment variables so they cannot inject flags.
type Runner struct {
	registry map[string]Command
	baseDir  string
	grace    time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithCommands populates the allow-list.
func WithCommands(cmds ...Command) RunnerOption {
	return func(r *Runner) {
		for _, c := range cmds {
			r.registry[c.Name] = c
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithGracePeriod sets the delay between interrupt and kill on cancellation.
func WithGracePeriod(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.grace = d
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]Command),
		grace:    DefaultGracePeriod,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name, command string, args ...string) {
	r.registry[name] = Command{Name: name, Command: command, Args: args}
}

// Has reports whether name is allow-listed.
func (r *Runner) Has(name string) bool {
	_, ok := r.registry[name]
	return ok
}

// Invoke runs the named command. A non-zero exit is an error carrying stderr.
// Stdout that looks like JSON is decoded with numbers preserved; anything else
// is returned as a trimmed string.
func (r *Runner) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	out, err := r.run(ctx, name, args)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(out)
	if looksLikeJSON(trimmed) {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err == nil {
			return v, nil
		}
	}
	return string(trimmed), nil
}

func (r *Runner) run(ctx context.Context, name string, args map[string]any) ([]byte, error) {
	proc, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	// Ask politely first; WaitDelay escalates to a kill.
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = r.grace

	env := cmd.Environ()
	for k, v := range proc.Environment {
		env = append(env, k+"="+v)
	}
	env = append(env, Env(args)...)
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", name, ctxErr)
		}
		return nil, fmt.Errorf("%s: execution failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Env renders tool arguments as CANOPY_ARG_<KEY>=<value> pairs. Scalars are
// formatted plainly; maps and slices are JSON-encoded.
func Env(args map[string]any) []string {
	env := make([]string, 0, len(args))
	for k, v := range args {
		key := unsafeKey.ReplaceAllString(strings.ToUpper(k), "_")
		var val string
		switch tv := v.(type) {
		case nil:
		case string:
			val = tv
		case json.Number:
			val = tv.String()
		case int, int64, float64, bool:
			val = fmt.Sprintf("%v", tv)
		default:
			if b, err := json.Marshal(tv); err == nil {
				val = string(b)
			} else {
				val = fmt.Sprintf("%v", tv)
			}
		}
		env = append(env, ArgPrefix+key+"="+val)
	}
	return env
}

func looksLikeJSON(b []byte) bool {
	return (bytes.HasPrefix(b, []byte("{")) && bytes.HasSuffix(b, []byte("}"))) ||
		(bytes.HasPrefix(b, []byte("[")) && bytes.HasSuffix(b, []byte("]")))
}
