package keys

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Entry is a key as listed by the keyring, before its balance is known.
type Entry struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Address string `json:"address"`
	PubKey  string `json:"pubkey"`
}

// KeyringReader lists the keys of a local keyring.
type KeyringReader interface {
	ListKeys(ctx context.Context) ([]Entry, error)
}

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// CLIKeyring reads keys through the chain daemon's keys subcommand, which
// understands every key algorithm the chain supports.
type CLIKeyring struct {
	Binary  string
	Home    string
	Backend string
	Run     Runner
}

// NewCLIKeyring returns a keyring reader for the daemon home at home.
func NewCLIKeyring(binary, home, backend string) *CLIKeyring {
	return &CLIKeyring{Binary: binary, Home: home, Backend: backend, Run: execRunner}
}

func (k *CLIKeyring) ListKeys(ctx context.Context) ([]Entry, error) {
	args := []string{"keys", "list", "--home", k.Home, "--output", "json"}
	if k.Backend != "" {
		args = append(args, "--keyring-backend", k.Backend)
	}

	run := k.Run
	if run == nil {
		run = execRunner
	}
	out, err := run(ctx, k.Binary, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s keys list: %w", ErrKeyringUnavailable, k.Binary, err)
	}

	var entries []Entry
	if err := json.Unmarshal(jsonPayload(out), &entries); err != nil {
		return nil, fmt.Errorf("%w: failed to parse key list: %w", ErrKeyringUnavailable, err)
	}
	return entries, nil
}

// jsonPayload drops anything the daemon prints before the JSON document.
func jsonPayload(out []byte) []byte {
	if i := bytes.IndexAny(out, "[{"); i > 0 {
		return out[i:]
	}
	return out
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
