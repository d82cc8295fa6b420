package loxx

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// captureStdout redirects os.Stdout for the duration of fn and returns
// everything written to it, mirroring how the VM's opPrint case writes
// directly to stdout rather than through an injectable writer.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	old := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func runSource(t *testing.T, source string) (string, error) {
	t.Helper()
	_, out, err := runSourceOn(t, source)
	return out, err
}

func runSourceOn(t *testing.T, source string) (*VM, string, error) {
	t.Helper()
	vm := NewVM()
	var err error
	out := captureStdout(t, func() {
		err = vm.Interpret([]byte(source))
	})
	return vm, out, err
}

func TestVMScenarios(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "arithmetic",
			source: `print 1 + 2;`,
			want:   "3\n",
		},
		{
			name:   "string concatenation",
			source: `var a = "he"; var b = "llo"; print a + b;`,
			want:   "hello\n",
		},
		{
			name: "closures capture and mutate an upvalue",
			source: `
				fun counter() {
					var i = 0;
					fun tick() {
						i = i + 1;
						return i;
					}
					return tick;
				}
				var t = counter();
				print t();
				print t();
				print t();
			`,
			want: "1\n2\n3\n",
		},
		{
			name: "instance fields and methods",
			source: `
				class A {
					greet() {
						print "hi " + this.name;
					}
				}
				var a = A();
				a.name = "Lox";
				a.greet();
			`,
			want: "hi Lox\n",
		},
		{
			name: "super calls reach the parent method",
			source: `
				class A {
					m() { print "A"; }
				}
				class B < A {
					m() {
						super.m();
						print "B";
					}
				}
				B().m();
			`,
			want: "A\nB\n",
		},
		{
			name:   "for loop desugars into initializer, condition and increment",
			source: `for (var i = 0; i < 3; i = i + 1) print i;`,
			want:   "0\n1\n2\n",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := runSource(t, c.source)
			if err != nil {
				t.Fatalf("Interpret returned error: %v", err)
			}
			if got != c.want {
				t.Errorf("output = %q, want %q", got, c.want)
			}
		})
	}
}

func TestVMStackAndFramesEmptyAfterExecution(t *testing.T) {
	vm := NewVM()
	captureStdout(t, func() {
		if err := vm.Interpret([]byte(`var a = 1; { var b = 2; print a + b; }`)); err != nil {
			t.Fatalf("Interpret: %v", err)
		}
	})
	if len(vm.stack) != 0 {
		t.Errorf("stack not empty after execution: %d values left", len(vm.stack))
	}
	if len(vm.frames) != 0 {
		t.Errorf("frames not empty after execution: %d frames left", len(vm.frames))
	}
}

func TestVMRuntimeErrorUnwindsStack(t *testing.T) {
	vm, _, err := runSourceOn(t, `1 + "a";`)
	if err != ErrInterpretRuntimeError {
		t.Fatalf("expected runtime error, got %v", err)
	}
	if len(vm.stack) != 0 {
		t.Errorf("stack not cleared after runtime error: %d values left", len(vm.stack))
	}
}

func TestVMCompileErrorReturnsNoFunction(t *testing.T) {
	_, err := runSource(t, `var = ;`)
	if err != ErrInterpretCompileError {
		t.Fatalf("expected compile error, got %v", err)
	}
}

func TestVMUndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := runSource(t, `print undefinedThing;`)
	if err != ErrInterpretRuntimeError {
		t.Fatalf("expected runtime error, got %v", err)
	}
}

func TestVMArityMismatchIsRuntimeError(t *testing.T) {
	_, err := runSource(t, `fun f(a, b) { return a + b; } f(1);`)
	if err != ErrInterpretRuntimeError {
		t.Fatalf("expected runtime error, got %v", err)
	}
}

func TestVMDeepRecursionOverflowsAfterFramesMax(t *testing.T) {
	vm, _, err := runSourceOn(t, `
		fun recurse(n) {
			return recurse(n + 1);
		}
		recurse(0);
	`)
	if err != ErrInterpretRuntimeError {
		t.Fatalf("expected runtime error, got %v", err)
	}
	if len(vm.stack) != 0 {
		t.Errorf("stack not cleared after stack overflow: %d values left", len(vm.stack))
	}
}

func TestVMTruthinessLaw(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{`print !nil;`, "true\n"},
		{`print !false;`, "true\n"},
		{`print !true;`, "false\n"},
		{`print !0;`, "false\n"},
		{`print !"";`, "false\n"},
	}
	for _, c := range cases {
		t.Run(c.source, func(t *testing.T) {
			got, err := runSource(t, c.source)
			if err != nil {
				t.Fatalf("Interpret: %v", err)
			}
			if got != c.want {
				t.Errorf("output = %q, want %q", got, c.want)
			}
		})
	}
}
