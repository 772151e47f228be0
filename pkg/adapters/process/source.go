package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Source is a CRM data source backed by an allow-listed process. The process
// prints JSON records on stdout; they are handed on byte-for-byte.
type Source struct {
	cmd    Command
	runner *Runner
}

// NewSources registers each command with a dedicated runner and wraps it as a
// data source.
func NewSources(cmds []Command, opts ...RunnerOption) []*Source {
	runner := NewRunner(append(opts, WithCommands(cmds...))...)
	out := make([]*Source, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, &Source{cmd: c, runner: runner})
	}
	return out
}

func (s *Source) Name() string       { return s.cmd.Name }
func (s *Source) Keywords() []string { return s.cmd.Keywords }

// Fetch runs the process and returns its stdout as json.RawMessage.
func (s *Source) Fetch(ctx context.Context) (any, error) {
	out, err := s.runner.run(ctx, s.cmd.Name, nil)
	if err != nil {
		return nil, err
	}
	out = bytes.TrimSpace(out)
	if !json.Valid(out) {
		return nil, fmt.Errorf("%s: output is not JSON", s.cmd.Name)
	}
	return json.RawMessage(out), nil
}
