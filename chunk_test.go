package loxx

import "testing"

func TestChunkLocationRunLength(t *testing.T) {
	c := newChunk()
	loc1 := SourceLocation{Line: 1, Column: 1}
	loc2 := SourceLocation{Line: 2, Column: 1}

	c.writeCode(opNil, loc1)
	c.writeCode(opPop, loc1)
	c.writeCode(opReturn, loc2)

	if len(c.locations) != 2 {
		t.Fatalf("expected 2 location runs, got %d", len(c.locations))
	}
	if got := c.locationAt(0); got != loc1 {
		t.Errorf("locationAt(0) = %v, want %v", got, loc1)
	}
	if got := c.locationAt(1); got != loc1 {
		t.Errorf("locationAt(1) = %v, want %v", got, loc1)
	}
	if got := c.locationAt(2); got != loc2 {
		t.Errorf("locationAt(2) = %v, want %v", got, loc2)
	}
}

func TestChunkAddConstantDedup(t *testing.T) {
	c := newChunk()
	i1, ok1 := c.addConstant(NumberValue(1))
	i2, ok2 := c.addConstant(NumberValue(2))
	i3, ok3 := c.addConstant(NumberValue(1))

	if !ok1 || !ok2 || !ok3 {
		t.Fatal("addConstant unexpectedly rejected a constant")
	}
	if i1 != i3 {
		t.Errorf("addConstant did not dedup equal constants: %d != %d", i1, i3)
	}
	if i1 == i2 {
		t.Errorf("addConstant merged distinct constants")
	}
	if len(c.constants) != 2 {
		t.Errorf("expected 2 distinct constants, got %d", len(c.constants))
	}
}

func TestChunkAddConstantOverflow(t *testing.T) {
	c := newChunk()
	for i := 0; i < uint8Count; i++ {
		if _, ok := c.addConstant(NumberValue(float64(i))); !ok {
			t.Fatalf("addConstant rejected constant %d before reaching the limit", i)
		}
	}
	if _, ok := c.addConstant(NumberValue(float64(uint8Count))); ok {
		t.Error("addConstant accepted a 257th distinct constant")
	}
}
