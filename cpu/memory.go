package cpu

// MEMORY_CELLS is the default number of memory cells.
const MEMORY_CELLS = 256

// Memory is a word addressed store. Each cell holds one 32-bit word.
type Memory struct {
	Cell []uint32
}

// NewMemory creates a zeroed memory of the given number of cells.
func NewMemory(cells int) *Memory {
	return &Memory{
		Cell: make([]uint32, cells),
	}
}

// Len returns the number of cells.
func (mem *Memory) Len() int {
	return len(mem.Cell)
}

// Contains returns true if index is a valid cell index.
func (mem *Memory) Contains(index uint32) bool {
	return uint64(index) < uint64(len(mem.Cell))
}

// Read returns a cell. An out of range index panics.
func (mem *Memory) Read(index int) uint32 {
	return mem.Cell[index]
}

// Write sets a cell. An out of range index panics.
func (mem *Memory) Write(index int, value uint32) {
	mem.Cell[index] = value
}

// Clear zeroes every cell.
func (mem *Memory) Clear() {
	clear(mem.Cell)
}
