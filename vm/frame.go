package vm

import (
	"github.com/deepnoodle-ai/peek/object"
)

const (
	// DefaultFrameLocals is the number of local variables that can be stored
	// directly in the frame's fixed storage array, avoiding heap allocation.
	DefaultFrameLocals = 8

	// MinExtendedLocalsCapacity is the minimum capacity allocated for extended
	// locals when heap allocation is needed.
	MinExtendedLocalsCapacity = 32
)

// handler is an active try block. Offsets are absolute instruction indexes
// in the frame's code; zero means the clause is absent.
type handler struct {
	catchIP   int
	finallyIP int
	sp        int
}

type frame struct {
	returnAddr     int
	returnSp       int
	callSiteIP     int // IP of the call instruction in the caller's code (for stack traces)
	localsCount    uint16
	fn             *object.Closure
	code           *code
	storage        [DefaultFrameLocals]object.Object
	locals         []object.Object
	extendedLocals []object.Object
	capturedLocals []object.Object
	handlers       []handler
}

func (f *frame) ActivateCode(code *code) {
	f.code = code
	f.fn = nil
	f.returnAddr = 0
	f.callSiteIP = 0
	f.localsCount = uint16(code.LocalCount())
	f.capturedLocals = nil
	f.handlers = f.handlers[:0]

	// Use the fixed storage when it is large enough, otherwise reuse or grow
	// extendedLocals. Afterwards f.locals points at the right storage.
	if f.localsCount > DefaultFrameLocals {
		if cap(f.extendedLocals) >= int(f.localsCount) {
			f.extendedLocals = f.extendedLocals[:f.localsCount]
			for i := range f.extendedLocals {
				f.extendedLocals[i] = nil
			}
		} else {
			allocSize := int(f.localsCount)
			if allocSize < MinExtendedLocalsCapacity {
				allocSize = MinExtendedLocalsCapacity
			}
			f.extendedLocals = make([]object.Object, f.localsCount, allocSize)
		}
		f.locals = f.extendedLocals
	} else {
		for i := uint16(0); i < f.localsCount; i++ {
			f.storage[i] = nil
		}
		f.extendedLocals = nil
		f.locals = f.storage[:f.localsCount]
	}
}

func (f *frame) ActivateFunction(fn *object.Closure, code *code, returnAddr, returnSp int, localValues []object.Object) {
	f.ActivateCode(code)
	f.fn = fn
	f.returnAddr = returnAddr
	f.returnSp = returnSp
	f.callSiteIP = returnAddr
	copy(f.locals, localValues)
}

// Local returns the local at idx, treating an unset slot as Nil.
func (f *frame) Local(idx uint16) object.Object {
	if obj := f.locals[idx]; obj != nil {
		return obj
	}
	return object.Nil
}

// CaptureLocals moves the locals to heap storage so that cells created for
// closures stay valid after the frame is reused.
func (f *frame) CaptureLocals() []object.Object {
	if f.capturedLocals != nil {
		return f.capturedLocals
	}
	if f.extendedLocals != nil {
		// Extended storage may be reused by a later call on this frame slot
		f.extendedLocals = nil
		f.capturedLocals = f.locals
		return f.capturedLocals
	}
	newStorage := make([]object.Object, len(f.locals))
	copy(newStorage, f.locals)
	f.capturedLocals = newStorage
	f.locals = newStorage
	return newStorage
}

func (f *frame) pushHandler(h handler) {
	f.handlers = append(f.handlers, h)
}

func (f *frame) popHandler() (handler, bool) {
	n := len(f.handlers)
	if n == 0 {
		return handler{}, false
	}
	h := f.handlers[n-1]
	f.handlers = f.handlers[:n-1]
	return h, true
}

// Name returns the function name used in stack traces.
func (f *frame) Name() string {
	if f.fn != nil {
		if name := f.fn.Name(); name != "" {
			return name
		}
		return "<anonymous>"
	}
	return "<main>"
}
