package loxx

import "testing"

func countObjects(h *heap) int {
	n := 0
	for o := h.objects; o != nil; o = o.header().next {
		n++
	}
	return n
}

func TestCollectGarbageSweepsUnreachable(t *testing.T) {
	h := newHeap()
	vm := &VM{heap: h, globals: make(map[string]Value)}
	h.vm = vm

	kept := h.allocateString("kept")
	vm.globals["g"] = ObjValue(kept)

	h.allocateString("unreachable")

	if countObjects(h) != 2 {
		t.Fatalf("expected 2 live objects before collection, got %d", countObjects(h))
	}

	h.collectGarbage()

	if countObjects(h) != 1 {
		t.Fatalf("expected 1 live object after collection, got %d", countObjects(h))
	}
	if h.objects != kept {
		t.Error("the surviving object is not the one rooted by globals")
	}
	if h.bytesAllocated != kept.header().size {
		t.Errorf("bytesAllocated = %d, want %d", h.bytesAllocated, kept.header().size)
	}
}

func TestCollectGarbageMarksStackAndFrames(t *testing.T) {
	h := newHeap()
	vm := &VM{heap: h, globals: make(map[string]Value)}
	h.vm = vm

	fn := h.allocateFunction()
	closure := h.allocateClosure(fn)
	vm.push(ObjValue(closure))
	vm.frames = append(vm.frames, callFrame{closure: closure})

	h.allocateString("garbage")

	h.collectGarbage()

	if countObjects(h) != 2 {
		t.Fatalf("expected closure and function to survive, got %d objects", countObjects(h))
	}
}

func TestCollectGarbagePreservesCompilerChain(t *testing.T) {
	h := newHeap()
	outer := &compiler{heap: h, function: h.allocateFunction()}
	inner := &compiler{heap: h, function: h.allocateFunction(), enclosing: outer}
	h.compiler = inner

	h.allocateString("garbage")

	h.collectGarbage()

	if countObjects(h) != 2 {
		t.Fatalf("expected both in-progress functions to survive, got %d objects", countObjects(h))
	}
}

func TestHeapPacingKeepsNextGCAtFloor(t *testing.T) {
	h := newHeap()
	h.vm = &VM{heap: h, globals: make(map[string]Value)}
	before := h.nextGC

	h.allocateString("a reasonably sized string to move the needle")
	h.collectGarbage()

	if h.nextGC < minHeapGrow {
		t.Errorf("nextGC dropped below the floor: %d", h.nextGC)
	}
	_ = before
}
