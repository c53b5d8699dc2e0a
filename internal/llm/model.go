// Package llm talks to an OpenAI-compatible chat completion API.
package llm

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownModel is returned for a model outside the allow-list.
var ErrUnknownModel = errors.New("unknown model")

// Model identifies a completion model by its provider name.
type Model string

// DefaultModel is used when no model is configured.
const DefaultModel Model = "gpt-4o"

// KnownModels is the built-in allow-list. The configuration can extend it.
var KnownModels = []Model{
	"gpt-4o",
	"gpt-4o-mini",
	"gpt-4-turbo",
	"gpt-4",
	"gpt-3.5-turbo",
}

// ParseModel validates name against KnownModels and extra.
func ParseModel(name string, extra ...string) (Model, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultModel, nil
	}
	m := Model(name)
	if slices.Contains(KnownModels, m) || slices.Contains(extra, name) {
		return m, nil
	}

	allowed := make([]string, 0, len(KnownModels)+len(extra))
	for _, k := range KnownModels {
		allowed = append(allowed, string(k))
	}
	allowed = append(allowed, extra...)
	return "", fmt.Errorf("%w %q: expected one of %s", ErrUnknownModel, name, strings.Join(allowed, ", "))
}

func (m Model) String() string { return string(m) }
