package loxx

// objType is the closed set of heap-object kinds. Every heap value
// carries exactly one of these tags in its header; dispatch for
// equality, marking, blackening and formatting is a switch on the
// concrete Go type (which corresponds 1:1 to a tag), never a virtual
// method resolved at each call site.
type objType uint8

const (
	objTypeString objType = iota
	objTypeFunction
	objTypeClosure
	objTypeUpvalue
	objTypeNative
	objTypeClass
	objTypeInstance
	objTypeBoundMethod
)

// object is implemented by every heap-allocated kind. header returns the
// shared bookkeeping the heap and collector need (tag, mark bit,
// intrusive sweep-list link); it is a structural accessor, not a
// dispatch point — all GC and formatting logic type-switches on the
// concrete pointer type instead of calling through this interface.
type object interface {
	header() *objHeader
}

type objHeader struct {
	kind     objType
	isMarked bool
	// size is the byte cost charged against the heap's bytesAllocated
	// counter at allocation time; sweep subtracts exactly this amount
	// back out when the object is collected.
	size int
	// next links every live object into the heap's single intrusive
	// list, newest allocation first, so sweep can walk and free them.
	next object
}

func (h *objHeader) header() *objHeader { return h }

// objString is an immutable, byte-transparent string. Lox strings are
// not required to be interned (no identity guarantee is promised by
// the spec); equality between strings always compares contents.
type objString struct {
	objHeader
	chars string
}

// objFunction is a compiled function: its arity, how many upvalues it
// closes over, and the chunk of bytecode that implements its body.
type objFunction struct {
	objHeader
	arity        int
	upvalueCount int
	chunk        chunk
	name         *objString
}

// objUpvalue is open while location >= 0 (it aliases a live stack slot
// through the VM's stack pointer) and closed once location == -1, at
// which point it owns its value directly.
type objUpvalue struct {
	objHeader
	location int
	stack    *[]Value
	closed   Value
	// nextOpen links this upvalue into the VM's open-upvalue list,
	// ordered by strictly descending location. Distinct from
	// objHeader.next, which links it into the all-objects sweep list.
	nextOpen *objUpvalue
}

func (u *objUpvalue) get() Value {
	if u.location == -1 {
		return u.closed
	}
	return (*u.stack)[u.location]
}

func (u *objUpvalue) set(v Value) {
	if u.location == -1 {
		u.closed = v
		return
	}
	(*u.stack)[u.location] = v
}

// objClosure pairs a compiled function with the upvalues it captured
// at the point it was created.
type objClosure struct {
	objHeader
	function *objFunction
	upvalues []*objUpvalue
}

type nativeFn func(args []Value) (Value, error)

// objNative wraps a host-implemented callable with a fixed arity.
type objNative struct {
	objHeader
	name  string
	arity int
	fn    nativeFn
}

// objClass holds a method table keyed by name; methods are resolved at
// call time, never cached per-instance.
type objClass struct {
	objHeader
	name    *objString
	methods map[string]*objClosure
}

// objInstance is a class reference plus a mutable bag of fields.
type objInstance struct {
	objHeader
	class  *objClass
	fields map[string]Value
}

// objBoundMethod remembers the receiver a method lookup resolved
// against, so a later call can supply it as the implicit first
// argument without re-resolving `this`.
type objBoundMethod struct {
	objHeader
	receiver Value
	method   *objClosure
}
