// Package starlark parses software definitions written in a small Starlark DSL
// modelled after Omnibus software definitions:
//
//	name("restservice")
//	default_version(env = "CORE_TAG_NAME")
//	dependency("python")
//	source(git = "https://github.com/cloudify-cosmo/cloudify-manager")
//
//	def build():
//	    command(["${install_dir}/embedded/bin/pip", "install", "./rest-service"])
//
// Metadata builtins may only be called at the top level, command() only from build().
package starlark

import (
	"runtime"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"

	"github.com/ochairo/omnibuild/internal/domain/entities"
	"github.com/ochairo/omnibuild/internal/domain/interfaces"
)

const parserCtxKey = "parserCtx"

type parserCtx struct {
	spec       *entities.DefinitionSpec
	filepath   string
	buildPhase bool
	logger     interfaces.Logger
}

func getCtx(thread *starlark.Thread) *parserCtx {
	return thread.Local(parserCtxKey).(*parserCtx)
}

// DefinitionParser evaluates Starlark definition files
type DefinitionParser struct {
	logger interfaces.Logger
}

// NewDefinitionParser creates a new Starlark parser. print() output from
// definitions is sent to logger.
func NewDefinitionParser(logger interfaces.Logger) *DefinitionParser {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &DefinitionParser{logger: logger}
}

// Parse evaluates script, using filename for error positions
func (p *DefinitionParser) Parse(filename string, script []byte) (*entities.DefinitionSpec, error) {
	builtins := starlark.StringDict{
		"OS":              starlark.String(runtime.GOOS),
		"ARCH":            starlark.String(runtime.GOARCH),
		"name":            starlark.NewBuiltin("name", starName),
		"description":     starlark.NewBuiltin("description", starDescription),
		"default_version": starlark.NewBuiltin("default_version", starDefaultVersion),
		"dependency":      starlark.NewBuiltin("dependency", starDependency),
		"source":          starlark.NewBuiltin("source", starSource),
		"command":         starlark.NewBuiltin("command", starCommand),
	}

	ctx := &parserCtx{
		spec:     &entities.DefinitionSpec{},
		filepath: filename,
		logger:   p.logger,
	}

	thread := &starlark.Thread{
		Name: "definition",
		Print: func(thread *starlark.Thread, msg string) {
			ctx := getCtx(thread)
			ctx.logger.Info(msg, interfaces.F("file", ctx.filepath))
		},
	}
	thread.SetLocal(parserCtxKey, ctx)

	globals, err := starlark.ExecFile(thread, filename, script, builtins)
	if err != nil {
		if evalError, ok := err.(*starlark.EvalError); ok {
			return nil, eris.Errorf("failed to execute %s:\n%s", filename, evalError.Backtrace())
		}
		return nil, eris.Wrapf(err, "failed to execute %s", filename)
	}

	if ctx.spec.Name == "" {
		return nil, eris.Errorf("%s did not declare a name", filename)
	}

	if build, ok := globals["build"]; ok {
		buildFunc, ok := build.(starlark.Callable)
		if !ok {
			return nil, eris.Errorf("%s declares a build value but it's not a function", filename)
		}

		ctx.buildPhase = true
		_, err = starlark.Call(thread, buildFunc, starlark.Tuple{}, nil)
		if err != nil {
			if evalError, ok := err.(*starlark.EvalError); ok {
				return nil, eris.New(evalError.Backtrace())
			}
			return nil, eris.Wrapf(err, "failed build call in %s", filename)
		}
	}

	return ctx.spec, nil
}

func requireInitPhase(thread *starlark.Thread, fn *starlark.Builtin) error {
	if getCtx(thread).buildPhase {
		return eris.Errorf("%s() can only be called at the top level of a definition", fn.Name())
	}
	return nil
}

// * Builtin functions

func starName(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}
	if err := requireInitPhase(thread, fn); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, eris.New("name must not be empty")
	}

	getCtx(thread).spec.Name = name
	return starlark.None, nil
}

func starDescription(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var desc string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "description", &desc); err != nil {
		return nil, err
	}
	if err := requireInitPhase(thread, fn); err != nil {
		return nil, err
	}

	getCtx(thread).spec.Description = desc
	return starlark.None, nil
}

// starDefaultVersion merges into the declared version: a later literal
// replaces an earlier one, and env may be declared in a separate call.
func starDefaultVersion(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var literal, env string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "literal?", &literal, "env?", &env); err != nil {
		return nil, err
	}
	if err := requireInitPhase(thread, fn); err != nil {
		return nil, err
	}
	if literal == "" && env == "" {
		return nil, eris.Errorf("%s: either a literal version or env must be given", fn.Name())
	}

	version := &getCtx(thread).spec.Version
	if literal != "" {
		version.Literal = literal
	}
	if env != "" {
		version.Env = env
	}
	return starlark.None, nil
}

func starDependency(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}
	if err := requireInitPhase(thread, fn); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, eris.New("dependency name must not be empty")
	}

	spec := getCtx(thread).spec
	spec.Dependencies = append(spec.Dependencies, name)
	return starlark.None, nil
}

func starSource(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var source entities.SourceSpec
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs,
		"git?", &source.Git, "url?", &source.URL, "path?", &source.Path); err != nil {
		return nil, err
	}
	if err := requireInitPhase(thread, fn); err != nil {
		return nil, err
	}

	set := 0
	for _, v := range []string{source.Git, source.URL, source.Path} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, eris.Errorf("%s: exactly one of git, url or path must be given", fn.Name())
	}

	getCtx(thread).spec.Source = source
	return starlark.None, nil
}

func starCommand(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var rawParts starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &rawParts); err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	if !ctx.buildPhase {
		return nil, eris.Errorf("%s() can only be called from build()", fn.Name())
	}

	iterable, ok := rawParts.(starlarkIterable)
	if !ok {
		return nil, eris.Errorf("%s: expected a list of strings but found %s", fn.Name(), rawParts.Type())
	}

	parts, err := starlarkIterable2stringSlice(iterable, fn.Name())
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 || parts[0] == "" {
		return nil, eris.Errorf("%s: command #%d is empty", fn.Name(), len(ctx.spec.Commands)+1)
	}

	ctx.spec.Commands = append(ctx.spec.Commands, entities.BuildCommand{
		Executable: parts[0],
		Args:       parts[1:],
	})
	return starlark.None, nil
}

// * Helpers

type starlarkIterable interface {
	Len() int
	Iterate() starlark.Iterator
}

func starlarkIterable2stringSlice(input starlarkIterable, field string) ([]string, error) {
	result := make([]string, 0, input.Len())
	iter := input.Iterate()
	defer iter.Done()

	var item starlark.Value
	for iter.Next(&item) {
		switch value := item.(type) {
		case starlark.String:
			result = append(result, value.GoString())
		default:
			return nil, eris.Errorf("expected all items in %s to be strings but found %s", field, item.Type())
		}
	}
	return result, nil
}
