package loxx

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/dustin/go-humanize"
)

// minHeapGrow is the smallest threshold the collector will ever set as
// next_gc, so a program with a tiny live set doesn't collect on every
// single allocation.
const minHeapGrow = 1 << 20 // 1 MiB

// heap owns every object this interpretation session allocates and
// runs the tracing collector over it. It is the "explicit context"
// the design favors over a process-wide singleton: a VM and the
// compiler that feeds it both hold a pointer to the same heap, and
// both register themselves as root sources on it, rather than reach
// for global state.
type heap struct {
	objects        object
	bytesAllocated int
	nextGC         int

	gray []object

	vm       *VM
	compiler *compiler
}

func newHeap() *heap {
	return &heap{nextGC: minHeapGrow}
}

// track runs the collector if this allocation would cross the
// next-GC watermark, then links o into the object list and charges
// size against bytesAllocated. The threshold check happens before o
// is linked in, mirroring the reference design: a freshly allocated
// object that nothing has rooted yet is simply invisible to this
// collection (neither marked nor swept), and becomes subject to
// sweeps starting with the next cycle.
func (h *heap) track(o object, size int) {
	if debugStressGC || h.bytesAllocated+size >= h.nextGC {
		h.collectGarbage()
	}
	hdr := o.header()
	hdr.size = size
	hdr.next = h.objects
	h.objects = o
	h.bytesAllocated += size
	if debugLogGC {
		fmt.Printf("%p allocate %s for %T\n", o, humanize.Bytes(uint64(size)), o)
	}
}

func (h *heap) allocateString(chars string) *objString {
	s := &objString{chars: chars}
	s.kind = objTypeString
	h.track(s, int(unsafe.Sizeof(*s))+len(chars))
	return s
}

func (h *heap) allocateFunction() *objFunction {
	f := &objFunction{chunk: newChunk()}
	f.kind = objTypeFunction
	h.track(f, int(unsafe.Sizeof(*f)))
	return f
}

func (h *heap) allocateClosure(fn *objFunction) *objClosure {
	c := &objClosure{function: fn, upvalues: make([]*objUpvalue, fn.upvalueCount)}
	c.kind = objTypeClosure
	h.track(c, int(unsafe.Sizeof(*c)))
	return c
}

func (h *heap) allocateUpvalue(location int, stack *[]Value) *objUpvalue {
	u := &objUpvalue{location: location, stack: stack}
	u.kind = objTypeUpvalue
	h.track(u, int(unsafe.Sizeof(*u)))
	return u
}

func (h *heap) allocateNative(name string, arity int, fn nativeFn) *objNative {
	n := &objNative{name: name, arity: arity, fn: fn}
	n.kind = objTypeNative
	h.track(n, int(unsafe.Sizeof(*n)))
	return n
}

func (h *heap) allocateClass(name *objString) *objClass {
	c := &objClass{name: name, methods: make(map[string]*objClosure)}
	c.kind = objTypeClass
	h.track(c, int(unsafe.Sizeof(*c)))
	return c
}

func (h *heap) allocateInstance(class *objClass) *objInstance {
	i := &objInstance{class: class, fields: make(map[string]Value)}
	i.kind = objTypeInstance
	h.track(i, int(unsafe.Sizeof(*i)))
	return i
}

func (h *heap) allocateBoundMethod(receiver Value, method *objClosure) *objBoundMethod {
	b := &objBoundMethod{receiver: receiver, method: method}
	b.kind = objTypeBoundMethod
	h.track(b, int(unsafe.Sizeof(*b)))
	return b
}

// collectGarbage runs one full tri-colour mark-and-sweep cycle: mark
// every root, drain the gray set by blackening each object it holds,
// then sweep anything left unmarked. Observable program state is
// never altered by a cycle — it only reclaims objects nothing can
// reach anymore.
func (h *heap) collectGarbage() {
	if debugLogGC {
		fmt.Println("-- gc begin")
	}
	before := h.bytesAllocated

	h.markRoots()
	h.traceReferences()
	h.sweep()

	h.nextGC = h.bytesAllocated * 2
	if h.nextGC < minHeapGrow {
		h.nextGC = minHeapGrow
	}

	if debugLogGC {
		fmt.Printf(
			"-- gc end   collected %s (from %s to %s) next at %s\n",
			humanize.Bytes(uint64(before-h.bytesAllocated)),
			humanize.Bytes(uint64(before)),
			humanize.Bytes(uint64(h.bytesAllocated)),
			humanize.Bytes(uint64(h.nextGC)),
		)
	}
}

// markRoots marks every value reachable without going through another
// heap object: the VM's value stack, each call frame's closure, the
// open-upvalue list, the globals table, and the chain of functions
// currently being built by the compiler (if one is active).
func (h *heap) markRoots() {
	if h.vm != nil {
		for _, v := range h.vm.stack {
			h.markValue(v)
		}
		for _, f := range h.vm.frames {
			h.markObject(f.closure)
		}
		for u := h.vm.openUpvalues; u != nil; u = u.nextOpen {
			h.markObject(u)
		}
		for _, v := range h.vm.globals {
			h.markValue(v)
		}
	}
	for c := h.compiler; c != nil; c = c.enclosing {
		h.markObject(c.function)
	}
}

func (h *heap) markValue(v Value) {
	if v.kind == valObj {
		h.markObject(v.obj)
	}
}

func (h *heap) markObject(o object) {
	if o == nil || reflect.ValueOf(o).IsNil() {
		return
	}
	hdr := o.header()
	if hdr.isMarked {
		return
	}
	hdr.isMarked = true
	if debugLogGC {
		fmt.Printf("%p mark %T\n", o, o)
	}
	h.gray = append(h.gray, o)
}

func (h *heap) traceReferences() {
	for len(h.gray) > 0 {
		o := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		h.blacken(o)
	}
}

// blacken marks every object directly reachable from o. Which fields
// that means is a switch on o's concrete type, the Go equivalent of a
// match on a closed tag set rather than a virtual "trace" method.
func (h *heap) blacken(o object) {
	if debugLogGC {
		fmt.Printf("%p blacken %T\n", o, o)
	}
	switch o := o.(type) {
	case *objString, *objNative:
		// no outgoing references
	case *objUpvalue:
		h.markValue(o.closed)
	case *objFunction:
		h.markObject(o.name)
		for _, c := range o.chunk.constants {
			h.markValue(c)
		}
	case *objClosure:
		h.markObject(o.function)
		for _, u := range o.upvalues {
			h.markObject(u)
		}
	case *objClass:
		h.markObject(o.name)
		for _, m := range o.methods {
			h.markObject(m)
		}
	case *objInstance:
		h.markObject(o.class)
		for _, v := range o.fields {
			h.markValue(v)
		}
	case *objBoundMethod:
		h.markValue(o.receiver)
		h.markObject(o.method)
	}
}

// sweep walks the intrusive all-objects list, clearing the mark on
// every surviving object and unlinking (and charging back) every one
// that was never marked this cycle.
func (h *heap) sweep() {
	var prev object
	cur := h.objects
	for cur != nil {
		hdr := cur.header()
		if hdr.isMarked {
			hdr.isMarked = false
			prev = cur
			cur = hdr.next
			continue
		}
		unreached := cur
		cur = hdr.next
		if prev != nil {
			prev.header().next = cur
		} else {
			h.objects = cur
		}
		h.bytesAllocated -= unreached.header().size
		if debugLogGC {
			fmt.Printf("%p free %T\n", unreached, unreached)
		}
	}
}
