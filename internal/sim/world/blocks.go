package world

// Block ids are indexes into Palette. The palette is fixed at compile time;
// configs refer to blocks by name and are resolved through BlockID.
const (
	Air uint16 = iota
	Stone
	Sandstone
	IronBlock
	GoldBlock
	LapisBlock
	WallSign
	Wire
	Lever
)

var Palette = []string{
	"AIR",
	"STONE",
	"SANDSTONE",
	"IRON_BLOCK",
	"GOLD_BLOCK",
	"LAPIS_BLOCK",
	"WALL_SIGN",
	"WIRE",
	"LEVER",
}

var paletteIndex = func() map[string]uint16 {
	m := make(map[string]uint16, len(Palette))
	for i, name := range Palette {
		m[name] = uint16(i)
	}
	return m
}()

func BlockID(name string) (uint16, bool) {
	id, ok := paletteIndex[name]
	return id, ok
}

func BlockName(id uint16) string {
	if int(id) >= len(Palette) {
		return "UNKNOWN"
	}
	return Palette[id]
}
