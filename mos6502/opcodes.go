package mos6502

// 6502 opcodes used by the back-end.
// http://6502.org/tutorials/6502opcodes.html
const (
	OpADCImm byte = 0x69

	OpSTYZpg byte = 0x84
	OpSTAZpg byte = 0x85
	OpSTXZpg byte = 0x86

	OpLDXImm byte = 0xa2

	OpLDAImm  byte = 0xa9
	OpLDAZpg  byte = 0xa5
	OpLDAZpgX byte = 0xb5

	OpNOP byte = 0xea
)
