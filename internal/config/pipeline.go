package config

import (
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Pipeline is a named, ordered sequence of steps.
type Pipeline struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Description string `mapstructure:"description" yaml:"description,omitempty"`
	Steps       []Step `mapstructure:"steps" yaml:"steps"`
}

// Step is either a simple step (Run set) holding one literal self-invocation,
// or a named group of commands.
//
// A bare string in the config file decodes to a simple step.
type Step struct {
	Run string `mapstructure:"run" yaml:"run,omitempty"`

	Name     string    `mapstructure:"name" yaml:"name,omitempty"`
	Commands []Command `mapstructure:"commands" yaml:"commands,omitempty"`
	Parallel bool      `mapstructure:"parallel" yaml:"parallel,omitempty"`
	// OpenSession is the group default for commands that do not set their own.
	OpenSession *bool `mapstructure:"openSession" yaml:"openSession,omitempty"`
	// WaitFor is accepted and ignored; steps always run in declared order.
	WaitFor []string `mapstructure:"waitFor" yaml:"waitFor,omitempty"`
}

// IsSimple reports whether the step is a single literal command.
func (s Step) IsSimple() bool {
	return s.Run != ""
}

// DisplayName is the name recorded when the step fails.
func (s Step) DisplayName() string {
	if s.IsSimple() {
		return s.Run
	}
	return s.Name
}

// Command is one entry of a group step. A bare string in the config file
// decodes to a Command with OpenSession explicitly false, so plain strings
// always run inline regardless of the group default.
type Command struct {
	Repo        string `mapstructure:"repo" yaml:"repo,omitempty"`
	Path        string `mapstructure:"path" yaml:"path,omitempty"`
	Command     string `mapstructure:"command" yaml:"command"`
	Cwd         string `mapstructure:"cwd" yaml:"cwd,omitempty"`
	OpenSession *bool  `mapstructure:"openSession" yaml:"openSession,omitempty"`
	// Wait is accepted and ignored.
	Wait *bool `mapstructure:"wait" yaml:"wait,omitempty"`
}

// Bool returns a pointer to b, for building optional flags in code.
func Bool(b bool) *bool {
	return &b
}

var (
	stepType    = reflect.TypeOf(Step{})
	commandType = reflect.TypeOf(Command{})
)

// decodeHook accepts the string shorthand for steps and commands, and the
// legacy openWindow key as an alias of openSession.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		shorthandHook,
		openWindowHook,
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

func shorthandHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	s, _ := data.(string)
	switch to {
	case stepType:
		return map[string]any{"run": s}, nil
	case commandType:
		return map[string]any{"command": s, "openSession": false}, nil
	}
	return data, nil
}

func openWindowHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != stepType && to != commandType {
		return data, nil
	}
	m, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}

	var legacy any
	hasLegacy, hasCurrent := false, false
	for k, v := range m {
		switch strings.ToLower(k) {
		case "openwindow":
			legacy, hasLegacy = v, true
		case "opensession":
			hasCurrent = true
		}
	}
	if !hasLegacy || hasCurrent {
		return data, nil
	}

	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out["openSession"] = legacy
	return out, nil
}
