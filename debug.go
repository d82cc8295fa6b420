package loxx

import "fmt"

func disassembleFunction(f *objFunction) {
	name := "<script>"
	if f.name != nil {
		name = f.name.chars
	}
	disassembleChunk(&f.chunk, name)
	for _, c := range f.chunk.constants {
		if nested, ok := c.obj.(*objFunction); ok && c.kind == valObj {
			disassembleFunction(nested)
		}
	}
}

func disassembleChunk(chunk *chunk, name string) {
	fmt.Println(cover(name, 16, "="))

	for offset := 0; offset < len(chunk.code); {
		offset = disassembleInstruction(chunk, offset)
		fmt.Println()
	}
}

func disassembleInstruction(chunk *chunk, offset int) int {
	fmt.Printf("%04d", offset)
	if offset > 0 && chunk.locationAt(offset) == chunk.locationAt(offset-1) {
		fmt.Printf("   | ")
	} else {
		fmt.Printf("%6s ", chunk.locationAt(offset))
	}

	switch instruction := chunk.code[offset]; instruction {
	case opNil, opTrue, opFalse, opPop, opEqual, opGreater, opLess,
		opAdd, opSubtract, opMultiply, opDivide, opNot, opNegate, opPrint,
		opReturn, opInherit, opCloseUpvalue:
		return simpleInstruction(chunk, offset)
	case opConstant, opGetGlobal, opDefineGlobal, opSetGlobal, opClass,
		opSetProperty, opGetProperty, opMethod, opGetSuper:
		return constantInstruction(chunk, offset)
	case opGetLocal, opSetLocal, opGetUpvalue, opSetUpvalue, opCall:
		return byteInstruction(chunk, offset)
	case opJump, opJumpIfFalse, opLoop:
		sign := 1
		if instruction == opLoop {
			sign = -1
		}
		return jumpInstruction(chunk, offset, sign)
	case opInvoke, opSuperInvoke:
		return invokeInstruction(chunk, offset)
	case opClosure:
		name := instructionNames[chunk.code[offset]]
		offset++
		constant := chunk.code[offset]
		offset++
		fmt.Printf("%-16s |> %04d ", name, constant)
		fmt.Print(sprintValue(chunk.constants[constant]))
		function := chunk.constants[constant].obj.(*objFunction)
		for i := 0; i < function.upvalueCount; i++ {
			isLocal := chunk.code[offset+i*2]
			index := chunk.code[offset+i*2+1]
			status := "upvalue"
			if isLocal == 1 {
				status = "local"
			}
			fmt.Printf("\n%04d   |                  |> %s %d", offset-2, status, index)
		}
		return offset + (2 * function.upvalueCount)
	default:
		panic("disassemble instruction: unknown instruction")
	}
}

func constantInstruction(chunk *chunk, offset int) int {
	name := instructionNames[chunk.code[offset]]
	constant := chunk.code[offset+1]
	fmt.Printf("%-16s |> %04d '%s'", name, constant, sprintValue(chunk.constants[constant]))

	return offset + 2
}

func simpleInstruction(chunk *chunk, offset int) int {
	name := instructionNames[chunk.code[offset]]
	fmt.Printf("%-16s |", name)
	return offset + 1
}

func byteInstruction(chunk *chunk, offset int) int {
	name := instructionNames[chunk.code[offset]]
	slot := chunk.code[offset+1]
	fmt.Printf("%-16s |> %04d", name, slot)
	return offset + 2
}

func jumpInstruction(chunk *chunk, offset int, sign int) int {
	name := instructionNames[chunk.code[offset]]
	jump := uint16(chunk.code[offset+1]) << 8
	jump |= uint16(chunk.code[offset+2])
	fmt.Printf("%-16s |> %04d -> %04d", name, offset, offset+3+sign*int(jump))
	return offset + 3
}

func invokeInstruction(chunk *chunk, offset int) int {
	name := instructionNames[chunk.code[offset]]
	constant := chunk.code[offset+1]
	argCount := chunk.code[offset+2]
	fmt.Printf("%-16s |> (%04d args) %04d '%s'", name, argCount, constant, sprintValue(chunk.constants[constant]))
	return offset + 3
}

var instructionNames = [...]string{
	opConstant:     "OP_CONSTANT",
	opNil:          "OP_NIL",
	opTrue:         "OP_TRUE",
	opFalse:        "OP_FALSE",
	opPop:          "OP_POP",
	opGetLocal:     "OP_GET_LOCAL",
	opSetLocal:     "OP_SET_LOCAL",
	opGetGlobal:    "OP_GET_GLOBAL",
	opDefineGlobal: "OP_DEFINE_GLOBAL",
	opSetGlobal:    "OP_SET_GLOBAL",
	opGetUpvalue:   "OP_GET_UPVALUE",
	opSetUpvalue:   "OP_SET_UPVALUE",
	opGetProperty:  "OP_GET_PROPERTY",
	opSetProperty:  "OP_SET_PROPERTY",
	opGetSuper:     "OP_GET_SUPER",
	opEqual:        "OP_EQUAL",
	opGreater:      "OP_GREATER",
	opLess:         "OP_LESS",
	opAdd:          "OP_ADD",
	opSubtract:     "OP_SUBSTRACT",
	opMultiply:     "OP_MULTIPLY",
	opDivide:       "OP_DIVIDE",
	opNot:          "OP_NOT",
	opNegate:       "OP_NEGATE",
	opPrint:        "OP_PRINT",
	opJump:         "OP_JUMP",
	opJumpIfFalse:  "OP_JUMP_IF_FALSE",
	opLoop:         "OP_LOOP",
	opCall:         "OP_CALL",
	opInvoke:       "OP_INVOKE",
	opSuperInvoke:  "OP_SUPER_INVOKE",
	opClosure:      "OP_CLOSURE",
	opCloseUpvalue: "OP_CLOSE_UPVALUE",
	opReturn:       "OP_RETURN",
	opClass:        "OP_CLASS",
	opInherit:      "OP_INHERIT",
	opMethod:       "OP_METHOD",
}
