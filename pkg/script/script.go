// Package script wraps JavaScript transforms as pipeline tasks. A program
// is compiled once and executed on a small pool of sandboxed goja runtimes;
// scripts are pure value-to-value transforms with an empty resource-tree
// fragment.
package script

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/wehubfusion/Daedalus/pkg/task"
)

const poolSize = 4

// The entry point a script must define.
const entryFunction = "transform"

// Program is a compiled JavaScript transform. Safe for concurrent use.
type Program struct {
	name string
	prog *goja.Program
	pool chan *goja.Runtime
}

// Compile compiles source, which must define a function
// transform(input) returning the transformed value.
func Compile(name, source string) (*Program, error) {
	if name == "" {
		return nil, fmt.Errorf("script name cannot be empty")
	}
	prog, err := goja.Compile(name, source, true)
	if err != nil {
		return nil, fmt.Errorf("failed to compile script %q: %w", name, err)
	}
	p := &Program{
		name: name,
		prog: prog,
		pool: make(chan *goja.Runtime, poolSize),
	}
	// Validate eagerly so a missing entry function fails at build time,
	// not on the first pipeline element.
	vm, err := p.newRuntime()
	if err != nil {
		return nil, err
	}
	p.pool <- vm
	return p, nil
}

func (p *Program) newRuntime() (*goja.Runtime, error) {
	vm := goja.New()
	// Node-isms that must not leak into transforms.
	for _, name := range []string{"require", "module", "exports", "process", "global"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return nil, fmt.Errorf("failed to sandbox %s: %w", name, err)
		}
	}
	if _, err := vm.RunProgram(p.prog); err != nil {
		return nil, fmt.Errorf("script %q failed to initialise: %w", p.name, err)
	}
	entry := vm.Get(entryFunction)
	if entry == nil {
		return nil, fmt.Errorf("script %q does not define %s()", p.name, entryFunction)
	}
	if _, ok := goja.AssertFunction(entry); !ok {
		return nil, fmt.Errorf("script %q: %s is not a function", p.name, entryFunction)
	}
	return vm, nil
}

func (p *Program) acquire() (*goja.Runtime, error) {
	select {
	case vm := <-p.pool:
		return vm, nil
	default:
		return p.newRuntime()
	}
}

func (p *Program) release(vm *goja.Runtime) {
	select {
	case p.pool <- vm:
	default:
		// Pool full, drop the runtime.
	}
}

// Run executes the transform on one input value.
func (p *Program) Run(ctx context.Context, input any) (any, error) {
	vm, err := p.acquire()
	if err != nil {
		return nil, err
	}
	defer p.release(vm)

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-watchDone:
		}
	}()
	defer vm.ClearInterrupt()

	fn, _ := goja.AssertFunction(vm.Get(entryFunction))
	res, err := fn(goja.Undefined(), vm.ToValue(input))
	if err != nil {
		return nil, fmt.Errorf("script %q: %w", p.name, err)
	}
	return res.Export(), nil
}

// Transform compiles source and lifts it into a pipeline task with an
// empty tree fragment.
func Transform(name, source string) (task.Task[any, any], error) {
	p, err := Compile(name, source)
	if err != nil {
		return task.Task[any, any]{}, err
	}
	return task.Lift(p.Run), nil
}
