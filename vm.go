package loxx

import (
	"errors"
	"fmt"
	"os"
)

const (
	framesMax int = 64
	stackMax      = framesMax * uint8Count
)

var (
	ErrInterpretRuntimeError = errors.New("loxx runtime error")
	ErrInterpretCompileError = errors.New("loxx compile error")
)

type callFrame struct {
	closure *objClosure
	ip      int // instruction pointer
	slots   int // first stack slot this frame's locals start at
}

func (f *callFrame) readByte() uint8 {
	f.ip++
	return f.closure.function.chunk.code[f.ip-1]
}

func (f *callFrame) readShort() uint16 {
	big := f.readByte()
	small := f.readByte()
	return uint16(big)<<8 | uint16(small)
}

func (f *callFrame) readConstant() Value {
	return f.closure.function.chunk.constants[f.readByte()]
}

func (f *callFrame) readString() string {
	s, _ := f.readConstant().asString()
	return s.chars
}

// VM is a stack machine executing the bytecode a Compiler produced. It
// owns the value stack, the call-frame stack, the global environment
// and the open-upvalue list, and shares a heap with whichever
// Compiler fed it (so the compiler's in-progress function stays
// rooted across any allocation it triggers).
type VM struct {
	heap *heap

	stack        []Value
	frames       []callFrame
	globals      map[string]Value
	openUpvalues *objUpvalue
}

func NewVM() *VM {
	h := newHeap()
	vm := &VM{
		heap:    h,
		stack:   make([]Value, 0, stackMax),
		frames:  make([]callFrame, 0, framesMax),
		globals: make(map[string]Value),
	}
	h.vm = vm
	vm.defineNative("clock", 0, nativeClock)
	return vm
}

// Interpret compiles source and runs the resulting top-level function.
func (vm *VM) Interpret(source []byte) error {
	c := newCompiler(source, vm.heap)
	fn := c.compile()
	if fn == nil {
		return ErrInterpretCompileError
	}

	if debugPrintCode {
		disassembleFunction(fn)
	}

	closure := vm.heap.allocateClosure(fn)
	vm.push(ObjValue(closure))
	if err := vm.callClosure(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) run() error {
	frame := vm.currentFrame()

	for {
		if debugTraceExecution {
			for _, slot := range vm.stack {
				fmt.Printf("[%s]", sprintValue(slot))
			}
			fmt.Println()
			disassembleInstruction(&frame.closure.function.chunk, frame.ip)
		}

		switch instruction := frame.readByte(); instruction {
		case opConstant:
			vm.push(frame.readConstant())
		case opNil:
			vm.push(NilValue())
		case opTrue:
			vm.push(BoolValue(true))
		case opFalse:
			vm.push(BoolValue(false))
		case opPop:
			vm.pop()
		case opGetLocal:
			slot := int(frame.readByte())
			vm.push(vm.stack[frame.slots+slot])
		case opSetLocal:
			slot := int(frame.readByte())
			vm.stack[frame.slots+slot] = vm.peek(0)
		case opGetGlobal:
			name := frame.readString()
			value, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.push(value)
		case opDefineGlobal:
			name := frame.readString()
			vm.globals[name] = vm.pop()
		case opSetGlobal:
			name := frame.readString()
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.globals[name] = vm.peek(0)
		case opGetUpvalue:
			slot := int(frame.readByte())
			vm.push(frame.closure.upvalues[slot].get())
		case opSetUpvalue:
			slot := int(frame.readByte())
			frame.closure.upvalues[slot].set(vm.peek(0))
		case opGetProperty:
			instance, ok := vm.peek(0).asInstance()
			if !ok {
				return vm.runtimeError("Only instances have properties.")
			}
			name := frame.readString()
			if value, ok := instance.fields[name]; ok {
				vm.pop()
				vm.push(value)
				break
			}
			if err := vm.bindMethod(instance.class, name); err != nil {
				return err
			}
		case opSetProperty:
			instance, ok := vm.peek(1).asInstance()
			if !ok {
				return vm.runtimeError("Only instances have fields.")
			}
			instance.fields[frame.readString()] = vm.peek(0)
			value := vm.pop()
			vm.pop()
			vm.push(value)
		case opGetSuper:
			name := frame.readString()
			superclass, _ := vm.pop().asClass()
			if err := vm.bindMethod(superclass, name); err != nil {
				return err
			}
		case opEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolValue(valuesEqual(a, b)))
		case opAdd:
			as, aIsStr := vm.peek(1).asString()
			bs, bIsStr := vm.peek(0).asString()
			if aIsStr && bIsStr {
				vm.pop()
				vm.pop()
				vm.push(ObjValue(vm.heap.allocateString(as.chars + bs.chars)))
			} else if vm.peek(1).IsNumber() && vm.peek(0).IsNumber() {
				b := vm.pop().AsNumber()
				a := vm.pop().AsNumber()
				vm.push(NumberValue(a + b))
			} else {
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}
		case opSubtract, opMultiply, opDivide, opGreater, opLess:
			if err := vm.numericBinaryOp(instruction); err != nil {
				return err
			}
		case opNot:
			vm.push(BoolValue(isFalsey(vm.pop())))
		case opNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(NumberValue(-vm.pop().AsNumber()))
		case opPrint:
			fmt.Println(sprintValue(vm.pop()))
		case opJump:
			frame.ip += int(frame.readShort())
		case opJumpIfFalse:
			offset := int(frame.readShort())
			if isFalsey(vm.peek(0)) {
				frame.ip += offset
			}
		case opLoop:
			frame.ip -= int(frame.readShort())
		case opCall:
			argCount := int(frame.readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = vm.currentFrame()
		case opInvoke:
			method := frame.readString()
			argCount := int(frame.readByte())
			if err := vm.invoke(method, argCount); err != nil {
				return err
			}
			frame = vm.currentFrame()
		case opSuperInvoke:
			method := frame.readString()
			argCount := int(frame.readByte())
			superclass, _ := vm.pop().asClass()
			if err := vm.invokeFromClass(superclass, method, argCount); err != nil {
				return err
			}
			frame = vm.currentFrame()
		case opClosure:
			fnValue := frame.readConstant()
			fn := fnValue.obj.(*objFunction)
			closure := vm.heap.allocateClosure(fn)
			vm.push(ObjValue(closure))
			for i := range closure.upvalues {
				isLocal := frame.readByte()
				index := int(frame.readByte())
				if isLocal == 1 {
					closure.upvalues[i] = vm.captureUpvalue(frame.slots + index)
				} else {
					closure.upvalues[i] = frame.closure.upvalues[index]
				}
			}
		case opCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()
		case opReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				vm.pop()
				return nil
			}
			vm.stack = vm.stack[:frame.slots]
			vm.push(result)
			frame = vm.currentFrame()
		case opClass:
			name := frame.readString()
			vm.push(ObjValue(vm.heap.allocateClass(vm.heap.allocateString(name))))
		case opInherit:
			superclass, ok := vm.peek(1).asClass()
			if !ok {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass, _ := vm.peek(0).asClass()
			for name, method := range superclass.methods {
				subclass.methods[name] = method
			}
			vm.pop()
		case opMethod:
			vm.defineMethod(frame.readString())
		default:
			return vm.runtimeError("Unknown opcode %d.", instruction)
		}
	}
}

func (vm *VM) currentFrame() *callFrame {
	return &vm.frames[len(vm.frames)-1]
}

func (vm *VM) push(value Value) {
	vm.stack = append(vm.stack, value)
}

func (vm *VM) pop() Value {
	value := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return value
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) runtimeError(format string, a ...any) error {
	fmt.Fprintf(os.Stderr, format+"\n", a...)

	for i := len(vm.frames) - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		function := frame.closure.function
		loc := function.chunk.locationAt(frame.ip - 1)
		fmt.Fprintf(os.Stderr, "  [%s] in %s\n", loc, functionName(function))
	}

	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil

	return ErrInterpretRuntimeError
}

func (vm *VM) invoke(name string, argCount int) error {
	receiver, ok := vm.peek(argCount).asInstance()
	if !ok {
		return vm.runtimeError("Only instances have methods.")
	}
	if field, ok := receiver.fields[name]; ok {
		vm.stack[len(vm.stack)-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(receiver.class, name, argCount)
}

func (vm *VM) invokeFromClass(class *objClass, name string, argCount int) error {
	method, ok := class.methods[name]
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name)
	}
	return vm.callClosure(method, argCount)
}

func (vm *VM) bindMethod(class *objClass, name string) error {
	method, ok := class.methods[name]
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name)
	}
	bound := vm.heap.allocateBoundMethod(vm.peek(0), method)
	vm.pop()
	vm.push(ObjValue(bound))
	return nil
}

func (vm *VM) defineMethod(name string) {
	method, _ := vm.peek(0).asClosure()
	class, _ := vm.peek(1).asClass()
	class.methods[name] = method
	vm.pop()
}

// captureUpvalue returns the open upvalue for the stack slot at
// location, creating one if none exists yet; the open-upvalue list
// stays ordered by strictly descending location.
func (vm *VM) captureUpvalue(location int) *objUpvalue {
	var prev *objUpvalue
	upvalue := vm.openUpvalues

	for upvalue != nil && upvalue.location > location {
		prev = upvalue
		upvalue = upvalue.nextOpen
	}

	if upvalue != nil && upvalue.location == location {
		return upvalue
	}

	created := vm.heap.allocateUpvalue(location, &vm.stack)
	created.nextOpen = upvalue
	if prev != nil {
		prev.nextOpen = created
	} else {
		vm.openUpvalues = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above the stack slot
// last, copying the live stack value into the upvalue itself so it
// survives that slot's frame going away.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.location >= last {
		upvalue := vm.openUpvalues
		upvalue.closed = (*upvalue.stack)[upvalue.location]
		upvalue.location = -1
		vm.openUpvalues = upvalue.nextOpen
	}
}

func (vm *VM) callValue(value Value, argCount int) error {
	if value.IsObj() {
		switch callee := value.obj.(type) {
		case *objBoundMethod:
			vm.stack[len(vm.stack)-argCount-1] = callee.receiver
			return vm.callClosure(callee.method, argCount)
		case *objClass:
			instance := vm.heap.allocateInstance(callee)
			vm.stack[len(vm.stack)-argCount-1] = ObjValue(instance)
			if init, ok := callee.methods[stringInit]; ok {
				return vm.callClosure(init, argCount)
			}
			if argCount != 0 {
				return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			}
			return nil
		case *objClosure:
			return vm.callClosure(callee, argCount)
		case *objNative:
			return vm.callNative(callee, argCount)
		}
	}
	return vm.runtimeError("Can only call functions and classes.")
}

func (vm *VM) callClosure(closure *objClosure, argCount int) error {
	if argCount != closure.function.arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.function.arity, argCount)
	}
	if len(vm.frames) == framesMax {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames = append(vm.frames, callFrame{
		closure: closure,
		ip:      0,
		slots:   len(vm.stack) - argCount - 1,
	})
	return nil
}

func (vm *VM) callNative(native *objNative, argCount int) error {
	if argCount != native.arity {
		return vm.runtimeError("Expected %d arguments but got %d.", native.arity, argCount)
	}
	result, err := native.fn(vm.stack[len(vm.stack)-argCount:])
	if err != nil {
		return vm.runtimeError("In native function: %s.", err)
	}
	vm.stack = vm.stack[:len(vm.stack)-argCount-1]
	vm.push(result)
	return nil
}

func (vm *VM) numericBinaryOp(op uint8) error {
	if !vm.peek(1).IsNumber() || !vm.peek(0).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	switch op {
	case opGreater:
		vm.push(BoolValue(a > b))
	case opLess:
		vm.push(BoolValue(a < b))
	case opSubtract:
		vm.push(NumberValue(a - b))
	case opMultiply:
		vm.push(NumberValue(a * b))
	case opDivide:
		vm.push(NumberValue(a / b))
	}
	return nil
}
