package circuit

import "redchips.ai/internal/sim/world"

// Substrate is the slice of the world the circuit engine touches. *world.World
// satisfies it; tests may substitute their own.
type Substrate interface {
	BlockAt(p world.Vec3i) uint16
	SetBlock(p world.Vec3i, b uint16)
	PowerLevel(p world.Vec3i) int
	SetPower(p world.Vec3i, level int)
	SignText(p world.Vec3i) string
	SetSignText(p world.Vec3i, text string)
	ChunkLoaded(k world.ChunkKey) bool
	ForceChunk(k world.ChunkKey)
	ReleaseChunk(k world.ChunkKey)
	OnNextTick(fn func())
	Tick() uint64
}

// Materials tells the scanner which block kinds play which role.
type Materials struct {
	Body      uint16
	Input     uint16
	Output    uint16
	Interface uint16
	Sign      uint16
	Wire      uint16
}

func DefaultMaterials() Materials {
	return Materials{
		Body:      world.Sandstone,
		Input:     world.IronBlock,
		Output:    world.GoldBlock,
		Interface: world.LapisBlock,
		Sign:      world.WallSign,
		Wire:      world.Wire,
	}
}

// Sender receives human-readable feedback from activation and destruction.
// A nil Sender routes messages to the log instead.
type Sender interface {
	SendMessage(msg string)
}
