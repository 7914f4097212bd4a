package awscli

import (
	"context"
	"errors"
	"strings"
)

type call struct {
	Name string
	Args []string
}

// fakeRunner answers by aws subcommand ("create-snapshot", ...).
type fakeRunner struct {
	calls   []call
	outputs map[string]string
	fail    map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{Name: name, Args: args})
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}
	out := f.outputs[sub]
	if f.fail[sub] {
		return []byte(out), errors.New("exit status 255")
	}
	return []byte(out), nil
}

func (c call) String() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}
