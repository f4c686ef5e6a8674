package confmode

import (
	"context"
	"strings"
	"time"

	"github.com/confmode/confmode/pkg/util"
)

// Stages are the four steps of one script, over its configuration type C.
// C is normally a pointer so Generate can store the rendered text in it.
type Stages[C any] struct {
	// GetConfig extracts the script's subtree with defaults merged in.
	GetConfig func(env *Env) (C, error)
	// Verify checks C without any I/O.
	Verify func(c C) error
	// Generate renders the backend configuration into C.
	Generate func(c C) error
	// Apply pushes the rendered configuration to the backend.
	Apply func(ctx context.Context, env *Env, c C) error
	// Rendered returns what Generate produced.
	Rendered func(c C) string
}

// Script is a runnable configuration script.
type Script struct {
	Name  string
	Short string
	Base  []string

	pipeline func(ctx context.Context, env *Env, apply bool) (string, error)
}

// BasePath returns the base path as the CLI writes it.
func (s Script) BasePath() string {
	return strings.Join(s.Base, " ")
}

// NewScript wires stages into a Script.
func NewScript[C any](name, short string, base []string, st Stages[C]) Script {
	s := Script{Name: name, Short: short, Base: base}
	s.pipeline = func(ctx context.Context, env *Env, apply bool) (string, error) {
		return runStages(ctx, env, name, st, apply)
	}
	return s
}

// Run executes every stage. All errors are configuration errors.
func (s Script) Run(ctx context.Context, env *Env) error {
	_, err := s.pipeline(ctx, env, true)
	return err
}

// Render runs GetConfig, Verify and Generate and returns the generated text.
func (s Script) Render(ctx context.Context, env *Env) (string, error) {
	return s.pipeline(ctx, env, false)
}

func runStages[C any](ctx context.Context, env *Env, name string, st Stages[C], apply bool) (string, error) {
	start := time.Now()
	scoped := *env
	scoped.Log = env.logger().WithField("script", name)
	env = &scoped

	util.WithStage(name, "get_config").Debug("extracting configuration")
	c, err := st.GetConfig(env)
	if err != nil {
		return "", asConfigError(err, "%s: reading configuration", name)
	}

	util.WithStage(name, "verify").Debug("verifying")
	if err := st.Verify(c); err != nil {
		return "", asConfigError(err, "%s: verify failed", name)
	}

	util.WithStage(name, "generate").Debug("generating")
	if err := st.Generate(c); err != nil {
		return "", asConfigError(err, "%s: generate failed", name)
	}
	text := ""
	if st.Rendered != nil {
		text = st.Rendered(c)
	}
	if !apply {
		return text, nil
	}

	util.WithStage(name, "apply").WithField("execute", env.Execute).Debug("applying")
	if err := st.Apply(ctx, env, c); err != nil {
		return text, asConfigError(err, "%s: apply failed", name)
	}

	util.WithScript(name).WithField("duration", time.Since(start)).Debug("done")
	return text, nil
}

// asConfigError passes configuration errors through unchanged and wraps
// anything else.
func asConfigError(err error, format string, args ...interface{}) error {
	if util.IsConfigError(err) {
		return err
	}
	return util.WrapConfigError(err, format, args...)
}
