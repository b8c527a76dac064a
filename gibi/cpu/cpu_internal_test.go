package cpu

// execOpcode runs the main-table opcode op directly against c. The dispatch
// table is built at init time, so tests look an entry up by its opcode byte.
func execOpcode(c *CPU, op uint8) int {
	return opcodeTable[op](c)
}
