// Package vm provides a VirtualMachine that executes compiled expressions.
//
// Every call the VM makes passes through callObject, which consults the
// configured CallInterceptor before the callee runs. This includes calls to
// function literals, native builtins and bound methods, operators (reported
// as calls on their left operand) and calls that native functions make back
// into the VM, such as the function passed to list.map.
package vm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/errz"
	"github.com/deepnoodle-ai/peek/object"
	"github.com/deepnoodle-ai/peek/op"
)

const (
	MaxArgs       = 256
	MaxFrameDepth = 1024
	MaxStackDepth = 1024
	StopSignal    = -1

	// DefaultContextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000
)

type VirtualMachine struct {
	ip           int // instruction pointer
	sp           int // stack pointer
	fp           int // frame pointer
	halt         int32
	activeFrame  *frame
	activeCode   *code
	main         *bytecode.Code
	inputLocals  map[string]any
	inputGlobals map[string]any
	builtins     map[string]object.Object
	globals      []object.Object
	loadedCode   map[*bytecode.Code]*code
	running      bool
	stopped      chan struct{}
	runMutex     sync.Mutex
	stack        [MaxStackDepth]object.Object
	frames       [MaxFrameDepth]frame

	// contextCheckInterval is the number of instructions between deterministic
	// checks of ctx.Done(). A value of 0 disables deterministic checking,
	// relying only on the background goroutine.
	contextCheckInterval int

	// interceptor is consulted before every call. If nil, calls are not
	// checked.
	interceptor CallInterceptor
}

// raised is left on the stack in place of a try block's value while its
// finally block runs after an error. EndFinally raises the error again.
type raised struct {
	object.Object
	err error
}

// New creates a new Virtual Machine for the given main code.
func New(main *bytecode.Code, options ...Option) *VirtualMachine {
	vm := &VirtualMachine{
		sp:                   -1,
		main:                 main,
		inputLocals:          map[string]any{},
		inputGlobals:         map[string]any{},
		builtins:             map[string]object.Object{},
		loadedCode:           map[*bytecode.Code]*code{},
		contextCheckInterval: DefaultContextCheckInterval,
	}
	for _, opt := range options {
		opt(vm)
	}
	return vm
}

func (vm *VirtualMachine) start(ctx context.Context) error {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return fmt.Errorf("vm is already running")
	}
	vm.running = true
	vm.stopped = make(chan struct{})
	atomic.StoreInt32(&vm.halt, 0)
	// Halt execution when the context is cancelled
	if doneChan := ctx.Done(); doneChan != nil {
		stopped := vm.stopped
		go func() {
			select {
			case <-doneChan:
				atomic.StoreInt32(&vm.halt, 1)
			case <-stopped:
			}
		}()
	}
	return nil
}

func (vm *VirtualMachine) stop() {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	vm.running = false
	close(vm.stopped)
}

// Run evaluates the main code. On success the result is available via TOS.
// Panics raised while running are returned as errors.
func (vm *VirtualMachine) Run(ctx context.Context) (err error) {
	if vm.main == nil {
		return fmt.Errorf("no main code available")
	}
	if err := vm.start(ctx); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		vm.stop()
	}()

	vm.reset()
	main := vm.loadCode(vm.main)
	vm.activateCode(0, 0, main)
	locals := vm.activeFrame.locals
	for i := 0; i < vm.main.LocalNameCount() && i < len(locals); i++ {
		if value, found := vm.inputLocals[vm.main.LocalNameAt(i)]; found {
			locals[i] = object.FromGoType(value)
		}
	}
	return vm.eval(vm.initContext(ctx))
}

func (vm *VirtualMachine) reset() {
	for i := vm.sp; i >= 0; i-- {
		vm.stack[i] = nil
	}
	vm.sp = -1
	vm.ip = 0
	vm.fp = 0
	vm.activeFrame = nil
	vm.activeCode = nil
	vm.globals = nil
	vm.loadedCode = map[*bytecode.Code]*code{}
}

// TOS returns the object on the top of the stack, which after Run is the
// value of the program.
func (vm *VirtualMachine) TOS() (object.Object, bool) {
	if vm.sp >= 0 {
		return vm.stack[vm.sp], true
	}
	return nil, false
}

// eval runs the active code until it returns, recovering from errors that a
// try block of the active frame handles. The result is left on the stack.
func (vm *VirtualMachine) eval(ctx context.Context) error {
	for {
		err := vm.loop(ctx)
		if err == nil {
			return nil
		}
		err = vm.annotate(err)
		if !vm.handleError(err) {
			return err
		}
	}
}

func (vm *VirtualMachine) loop(ctx context.Context) error {
	// Instruction counter for deterministic context checking
	var instructionCount int
	checkInterval := vm.contextCheckInterval
	doneChan := ctx.Done()

	for vm.ip < len(vm.activeCode.Instructions) {

		if atomic.LoadInt32(&vm.halt) == 1 {
			return ctx.Err()
		}

		// Deterministic check of ctx.Done() every N instructions.
		if checkInterval > 0 && doneChan != nil {
			instructionCount++
			if instructionCount >= checkInterval {
				instructionCount = 0
				select {
				case <-doneChan:
					atomic.StoreInt32(&vm.halt, 1)
					return ctx.Err()
				default:
				}
			}
		}

		opcode := vm.activeCode.Instructions[vm.ip]

		// Advance past the opcode before dispatch; relative jumps account
		// for this.
		vm.ip++

		switch opcode {
		case op.Nop:
		case op.Halt:
			return nil
		case op.LoadAttr:
			obj := vm.pop()
			name := vm.activeCode.Names[vm.fetch()]
			value, found := obj.GetAttr(name)
			if !found {
				return vm.typeError("attribute %q not found on %s object",
					name, obj.Type())
			}
			vm.push(value)
		case op.LoadConst:
			vm.push(vm.activeCode.Constants[vm.fetch()])
		case op.LoadFast:
			vm.push(vm.activeFrame.Local(vm.fetch()))
		case op.LoadGlobal:
			vm.push(vm.activeCode.Globals[vm.fetch()])
		case op.LoadFree:
			idx := vm.fetch()
			vm.push(vm.activeFrame.fn.FreeVar(int(idx)).Value())
		case op.StoreFast, op.StoreConst:
			idx := vm.fetch()
			vm.activeFrame.locals[idx] = vm.pop()
		case op.StoreGlobal:
			vm.activeCode.Globals[vm.fetch()] = vm.pop()
		case op.StoreFree:
			idx := vm.fetch()
			vm.activeFrame.fn.FreeVar(int(idx)).Set(vm.pop())
		case op.StoreAttr:
			name := vm.activeCode.Names[vm.fetch()]
			obj := vm.pop()
			value := vm.pop()
			event := receiverEvent(obj, name+"=", []object.Object{value})
			if err := vm.intercept(ctx, event); err != nil {
				return err
			}
			if err := obj.SetAttr(name, value); err != nil {
				return err
			}
		case op.LoadClosure:
			constIndex := vm.fetch()
			freeCount := int(vm.fetch())
			free := make([]*object.Cell, freeCount)
			for i := freeCount - 1; i >= 0; i-- {
				cell, ok := vm.pop().(*object.Cell)
				if !ok {
					return vm.evalError("expected cell")
				}
				free[i] = cell
			}
			template, ok := vm.activeCode.Constants[constIndex].(*object.Closure)
			if !ok {
				return vm.evalError("expected function constant")
			}
			vm.push(object.NewClosure(template.Function(), free))
		case op.MakeCell:
			idx := vm.fetch()
			source := uint16(vm.fetch())
			if source == op.CellFromFree {
				if vm.activeFrame.fn == nil {
					return vm.evalError("no enclosing function for free variable %d", idx)
				}
				vm.push(vm.activeFrame.fn.FreeVar(int(idx)))
			} else {
				locals := vm.activeFrame.CaptureLocals()
				vm.push(object.NewCell(&locals[idx]))
			}
		case op.Nil:
			vm.push(object.Nil)
		case op.True:
			vm.push(object.True)
		case op.False:
			vm.push(object.False)
		case op.CompareOp:
			opType := op.CompareOpType(vm.fetch())
			b := vm.pop()
			a := vm.pop()
			if err := vm.intercept(ctx, receiverEvent(a, opType.String(), []object.Object{b})); err != nil {
				return err
			}
			result, err := object.Compare(opType, a, b)
			if err != nil {
				return err
			}
			vm.push(result)
		case op.BinaryOp:
			opType := op.BinaryOpType(vm.fetch())
			b := vm.pop()
			a := vm.pop()
			if err := vm.intercept(ctx, receiverEvent(a, opType.String(), []object.Object{b})); err != nil {
				return err
			}
			result, err := object.BinaryOp(opType, a, b)
			if err != nil {
				return err
			}
			vm.push(result)
		case op.InplaceOp:
			opType := op.BinaryOpType(vm.fetch())
			b := vm.pop()
			a := vm.pop()
			if err := vm.intercept(ctx, receiverEvent(a, opType.String()+"=", []object.Object{b})); err != nil {
				return err
			}
			result, err := object.InplaceOp(opType, a, b)
			if err != nil {
				return err
			}
			vm.push(result)
		case op.UnaryNegative:
			obj := vm.pop()
			if err := vm.intercept(ctx, receiverEvent(obj, MethodNegate, nil)); err != nil {
				return err
			}
			result, err := object.Negate(obj)
			if err != nil {
				return err
			}
			vm.push(result)
		case op.UnaryNot:
			vm.push(object.Not(vm.pop()))
		case op.BuildList:
			count := int(vm.fetch())
			items := make([]object.Object, count)
			for i := count - 1; i >= 0; i-- {
				items[i] = vm.pop()
			}
			vm.push(object.NewList(items))
		case op.BuildMap:
			count := int(vm.fetch())
			base := vm.sp - 2*count + 1
			items := make(map[string]object.Object, count)
			for i := 0; i < count; i++ {
				key := vm.stack[base+2*i]
				str, ok := key.(*object.String)
				if !ok {
					return vm.typeError("map keys must be strings (got %s)", key.Type())
				}
				items[str.Value()] = vm.stack[base+2*i+1]
			}
			vm.truncate(base - 1)
			vm.push(object.NewMap(items))
		case op.BinarySubscr:
			idx := vm.pop()
			lhs := vm.pop()
			container, ok := lhs.(object.Container)
			if !ok {
				return vm.typeError("object is not subscriptable (got %s)", lhs.Type())
			}
			if err := vm.intercept(ctx, receiverEvent(lhs, MethodIndex, []object.Object{idx})); err != nil {
				return err
			}
			result, err := container.GetItem(idx)
			if err != nil {
				return err
			}
			vm.push(result)
		case op.StoreSubscr:
			value := vm.pop()
			idx := vm.pop()
			lhs := vm.pop()
			container, ok := lhs.(object.Container)
			if !ok {
				return vm.typeError("object does not support item assignment (got %s)", lhs.Type())
			}
			if err := vm.intercept(ctx, receiverEvent(lhs, MethodSetIndex, []object.Object{idx, value})); err != nil {
				return err
			}
			if err := container.SetItem(idx, value); err != nil {
				return err
			}
		case op.ContainsOp:
			invert := vm.fetch() == 1
			containerObj := vm.pop()
			item := vm.pop()
			container, ok := containerObj.(object.Container)
			if !ok {
				return vm.typeError("argument of type %s is not a container", containerObj.Type())
			}
			if err := vm.intercept(ctx, receiverEvent(containerObj, MethodContains, []object.Object{item})); err != nil {
				return err
			}
			value := container.Contains(item)
			if invert {
				value = !value
			}
			vm.push(object.NewBool(value))
		case op.Slice:
			high := vm.pop()
			low := vm.pop()
			lhs := vm.pop()
			container, ok := lhs.(object.Container)
			if !ok {
				return vm.typeError("object is not sliceable (got %s)", lhs.Type())
			}
			if err := vm.intercept(ctx, receiverEvent(lhs, MethodSlice, []object.Object{low, high})); err != nil {
				return err
			}
			result, err := container.GetSlice(object.Slice{Start: low, Stop: high})
			if err != nil {
				return err
			}
			vm.push(result)
		case op.Call:
			argc := int(vm.fetch())
			vm.fetch() // call flags are only used by static analysis
			if argc > MaxArgs {
				return vm.evalError("max args limit of %d exceeded (got %d)",
					MaxArgs, argc)
			}
			args := make([]object.Object, argc)
			for argIndex := argc - 1; argIndex >= 0; argIndex-- {
				args[argIndex] = vm.pop()
			}
			fn := vm.pop()
			result, err := vm.callObject(ctx, fn, args)
			if err != nil {
				return err
			}
			vm.push(result)
		case op.ReturnValue:
			// Each eval runs a single frame, so returning ends it. The
			// return value stays on the top of the stack.
			return nil
		case op.PopJumpForwardIfTrue:
			tos := vm.pop()
			delta := int(vm.fetch()) - 2
			if tos.IsTruthy() {
				vm.ip += delta
			}
		case op.PopJumpForwardIfFalse:
			tos := vm.pop()
			delta := int(vm.fetch()) - 2
			if !tos.IsTruthy() {
				vm.ip += delta
			}
		case op.JumpForward:
			base := vm.ip - 1
			delta := int(vm.fetch())
			vm.ip = base + delta
		case op.Copy:
			offset := int(vm.fetch())
			vm.push(vm.stack[vm.sp-offset])
		case op.PopTop:
			vm.pop()
		case op.DefineStruct:
			vm.push(vm.activeCode.Constants[vm.fetch()])
		case op.PushExcept:
			base := vm.ip - 1
			catchOffset := int(vm.fetch())
			finallyOffset := int(vm.fetch())
			h := handler{sp: vm.sp}
			if catchOffset > 0 {
				h.catchIP = base + catchOffset
			}
			if finallyOffset > 0 {
				h.finallyIP = base + finallyOffset
			}
			vm.activeFrame.pushHandler(h)
		case op.PopExcept:
			vm.activeFrame.popHandler()
		case op.Throw:
			return vm.throwError(vm.pop())
		case op.EndFinally:
			if pending, ok := vm.stack[vm.sp].(*raised); ok {
				vm.pop()
				return pending.err
			}
		default:
			return vm.evalError("unknown opcode: %d", opcode)
		}
	}
	return nil
}

// handleError transfers control to the innermost try block of the active
// frame. It reports false when the error must propagate to the caller.
func (vm *VirtualMachine) handleError(err error) bool {
	if errz.IsFatal(err) {
		return false
	}
	f := vm.activeFrame
	h, ok := f.popHandler()
	if !ok {
		return false
	}
	vm.truncate(h.sp)
	if h.catchIP > 0 {
		// The catch block is still guarded by the finally block
		if h.finallyIP > 0 {
			f.pushHandler(handler{finallyIP: h.finallyIP, sp: h.sp})
		}
		vm.push(object.NewError(err))
		vm.ip = h.catchIP
		return true
	}
	vm.push(&raised{Object: object.Nil, err: err})
	vm.ip = h.finallyIP
	return true
}

// annotate adds the current location and stack to errors raised by object
// operations. Fatal errors are returned unchanged.
func (vm *VirtualMachine) annotate(err error) error {
	if errz.IsFatal(err) {
		return err
	}
	var structured *errz.StructuredError
	if errors.As(err, &structured) {
		if structured.Location.IsZero() {
			structured.Location = vm.currentLocation()
			structured.Stack = vm.captureStack()
		}
		return err
	}
	return errz.NewStructuredErrorf(errz.ErrRuntime, vm.currentLocation(),
		vm.captureStack(), "%s", err.Error()).WithCause(err)
}

func (vm *VirtualMachine) throwError(obj object.Object) error {
	switch obj := obj.(type) {
	case *object.Error:
		return obj.Value()
	case *object.String:
		return object.EvalErrorf("%s", obj.Value())
	default:
		return vm.typeError("throw requires an error or a string (got %s)", obj.Type())
	}
}

func (vm *VirtualMachine) intercept(ctx context.Context, event CallEvent) error {
	if vm.interceptor == nil {
		return nil
	}
	event.Location = vm.currentLocation()
	event.FrameDepth = vm.fp + 1
	return vm.interceptor.OnCall(ctx, event)
}

// callObject calls fn after consulting the interceptor. It is also installed
// as the object.CallFunc used by native functions.
func (vm *VirtualMachine) callObject(
	ctx context.Context,
	fn object.Object,
	args []object.Object,
) (object.Object, error) {
	switch callee := fn.(type) {
	case *object.Closure:
		event := CallEvent{
			Kind:         InstanceCall,
			ReceiverType: string(object.FUNCTION),
			Method:       MethodCall,
			Receiver:     callee,
			Function:     callee,
			Args:         args,
		}
		if err := vm.intercept(ctx, event); err != nil {
			return nil, err
		}
		return vm.callFunction(ctx, callee, args)
	case *object.Builtin:
		if err := vm.intercept(ctx, builtinEvent(callee, args)); err != nil {
			return nil, err
		}
		return nilToNil(callee.Call(ctx, args...))
	case *object.Class:
		constructor, ok := callee.Constructor()
		if !ok {
			return nil, vm.typeError("class %s is not callable", callee.Name())
		}
		return vm.callObject(ctx, constructor, args)
	case object.Callable:
		if err := vm.intercept(ctx, receiverEvent(fn, MethodCall, args)); err != nil {
			return nil, err
		}
		return nilToNil(callee.Call(ctx, args...))
	default:
		return nil, vm.typeError("object is not callable (got %s)", fn.Type())
	}
}

func nilToNil(result object.Object, err error) (object.Object, error) {
	if err != nil {
		return nil, err
	}
	if result == nil {
		return object.Nil, nil
	}
	return result, nil
}

// callFunction runs a function literal in a new frame and returns its result.
// The caller's frame is restored whether or not the call succeeds.
func (vm *VirtualMachine) callFunction(
	ctx context.Context,
	fn *object.Closure,
	args []object.Object,
) (object.Object, error) {
	if vm.fp+1 >= MaxFrameDepth {
		return nil, vm.evalError("max frame depth of %d exceeded", MaxFrameDepth)
	}
	if err := checkCallArgs(fn, len(args)); err != nil {
		return nil, err
	}
	baseFP, baseIP, baseSP := vm.fp, vm.ip, vm.sp

	vm.activateFunction(baseFP+1, 0, fn, args)

	// Setting StopSignal as the return address marks the frame as the
	// bottom of this eval call.
	vm.activeFrame.returnAddr = StopSignal

	err := vm.eval(ctx)
	var result object.Object = object.Nil
	if err == nil && vm.sp > baseSP {
		result = vm.pop()
	}
	vm.resumeFrame(baseFP, baseIP, baseSP)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Resume the frame at the given frame pointer, restoring the given IP and SP.
func (vm *VirtualMachine) resumeFrame(fp, ip, sp int) *frame {
	vm.truncate(sp)
	vm.fp = fp
	vm.ip = ip
	vm.activeFrame = &vm.frames[fp]
	vm.activeCode = vm.activeFrame.code
	return vm.activeFrame
}

// Activate a frame with the given code. This is used to begin running the
// main code.
func (vm *VirtualMachine) activateCode(fp, ip int, code *code) *frame {
	vm.fp = fp
	vm.ip = ip
	vm.activeFrame = &vm.frames[fp]
	vm.activeFrame.ActivateCode(code)
	vm.activeCode = code
	return vm.activeFrame
}

// Activate a frame with the given function, to implement a function call.
func (vm *VirtualMachine) activateFunction(fp, ip int, fn *object.Closure, locals []object.Object) *frame {
	code := vm.loadCode(fn.Code())
	returnAddr := vm.ip
	returnSp := vm.sp
	vm.fp = fp
	vm.ip = ip
	vm.activeFrame = &vm.frames[fp]
	vm.activeFrame.ActivateFunction(fn, code, returnAddr, returnSp, locals)
	vm.activeCode = code
	return vm.activeFrame
}

// Wrap the *bytecode.Code in a *vm.code object to make it usable by the VM.
// The root code resolves the globals, which its children share.
func (vm *VirtualMachine) loadCode(bc *bytecode.Code) *code {
	if c, ok := vm.loadedCode[bc]; ok {
		return c
	}
	if bc.IsRoot() {
		vm.globals = resolveGlobals(bc, object.FromGoMap(vm.inputGlobals), vm.builtins)
	}
	c := wrapCode(bc, vm.globals)
	vm.loadedCode[bc] = c
	return c
}

func (vm *VirtualMachine) initContext(ctx context.Context) context.Context {
	return object.WithCallFunc(ctx, vm.callObject)
}

func (vm *VirtualMachine) fetch() uint16 {
	ip := vm.ip
	vm.ip++
	return uint16(vm.activeCode.Instructions[ip])
}

func (vm *VirtualMachine) pop() object.Object {
	obj := vm.stack[vm.sp]
	vm.stack[vm.sp] = nil
	vm.sp--
	return obj
}

func (vm *VirtualMachine) push(obj object.Object) {
	if vm.sp+1 >= MaxStackDepth {
		panic(fmt.Sprintf("stack overflow: max depth of %d exceeded", MaxStackDepth))
	}
	vm.sp++
	vm.stack[vm.sp] = obj
}

// truncate drops stack entries above sp.
func (vm *VirtualMachine) truncate(sp int) {
	for i := vm.sp; i > sp; i-- {
		vm.stack[i] = nil
	}
	vm.sp = sp
}

// captureStack builds a stack trace from the current call frames.
func (vm *VirtualMachine) captureStack() []errz.StackFrame {
	var frames []errz.StackFrame
	// The active frame reports the current instruction; each caller reports
	// the call site saved in the frame above it.
	ip := vm.ip - 1
	for i := vm.fp; i >= 0; i-- {
		frame := &vm.frames[i]
		if frame.code == nil {
			continue
		}
		if ip < 0 {
			ip = 0
		}
		frames = append(frames, errz.StackFrame{
			Function: frame.Name(),
			Location: frame.code.LocationAt(ip),
		})
		ip = frame.callSiteIP - 1
	}
	return frames
}

// currentLocation returns the source location of the current instruction.
func (vm *VirtualMachine) currentLocation() errz.SourceLocation {
	if vm.activeCode == nil {
		return errz.SourceLocation{}
	}
	ip := vm.ip - 1 // Current instruction (ip was already incremented)
	if ip < 0 {
		ip = 0
	}
	return vm.activeCode.LocationAt(ip)
}

// runtimeError creates a StructuredError with source location and stack trace.
func (vm *VirtualMachine) runtimeError(kind errz.ErrorKind, format string, args ...any) *errz.StructuredError {
	return errz.NewStructuredErrorf(kind, vm.currentLocation(), vm.captureStack(), format, args...)
}

// typeError creates a type error with location and stack trace.
func (vm *VirtualMachine) typeError(format string, args ...any) *errz.StructuredError {
	return vm.runtimeError(errz.ErrType, format, args...)
}

// evalError creates an evaluation error with location and stack trace.
func (vm *VirtualMachine) evalError(format string, args ...any) *errz.StructuredError {
	return vm.runtimeError(errz.ErrRuntime, format, args...)
}
