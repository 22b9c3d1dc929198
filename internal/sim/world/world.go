package world

import (
	"github.com/sirupsen/logrus"
)

// RedstoneHandler receives every power-level change on the substrate.
// Levels are 0..15 like the levels the host event source reports.
type RedstoneHandler func(pos Vec3i, oldLevel, newLevel int)

// World is the mutable voxel substrate circuits are detected in and bound to.
// All methods must be called from the single simulation goroutine; the server
// loop serializes external stimuli through its inbox.
type World struct {
	log *logrus.Logger

	tick   uint64
	chunks *ChunkStore
	signs  map[Vec3i]*Sign
	power  map[Vec3i]int

	deferred []func()

	onRedstone RedstoneHandler
}

func New(log *logrus.Logger, height, boundaryR int) *World {
	if log == nil {
		log = logrus.New()
	}
	return &World{
		log:    log,
		chunks: NewChunkStore(height, boundaryR),
		signs:  map[Vec3i]*Sign{},
		power:  map[Vec3i]int{},
	}
}

func (w *World) Tick() uint64 { return w.tick }

func (w *World) SetRedstoneHandler(h RedstoneHandler) { w.onRedstone = h }

func (w *World) BlockAt(p Vec3i) uint16 {
	return w.chunks.GetBlock(p)
}

func (w *World) SetBlock(p Vec3i, b uint16) {
	old := w.chunks.GetBlock(p)
	if old == b {
		return
	}
	w.chunks.SetBlock(p, b)
	if old == WallSign {
		w.removeSign(p)
	}
	if b == Air {
		// Breaking a powered block is a falling edge; it must dispatch
		// like any other change or listeners keep a stale high bit.
		w.SetPower(p, 0)
	}
}

// PowerLevel reports the redstone level at a location, 0..15.
func (w *World) PowerLevel(p Vec3i) int {
	return w.power[p]
}

// SetPower records a new level and notifies the redstone handler on any
// level change, mirroring the host's redstone-change event.
func (w *World) SetPower(p Vec3i, level int) {
	if level < 0 {
		level = 0
	}
	if level > 15 {
		level = 15
	}
	old := w.power[p]
	if old == level {
		return
	}
	if level == 0 {
		delete(w.power, p)
	} else {
		w.power[p] = level
	}
	if w.onRedstone != nil {
		w.onRedstone(p, old, level)
	}
}

func (w *World) ChunkLoaded(k ChunkKey) bool { return w.chunks.Loaded(k) }
func (w *World) SetChunkLoaded(k ChunkKey, on bool) {
	w.chunks.SetLoaded(k, on)
}
func (w *World) ForceChunk(k ChunkKey)      { w.chunks.Force(k) }
func (w *World) ReleaseChunk(k ChunkKey)    { w.chunks.Release(k) }
func (w *World) ForcedCount(k ChunkKey) int { return w.chunks.ForcedCount(k) }
func (w *World) Chunks() *ChunkStore        { return w.chunks }

// OnNextTick defers fn to the start of the next Step. The host convention is
// that visual updates must not run mid-event; circuits use this for sign
// refreshes.
func (w *World) OnNextTick(fn func()) {
	w.deferred = append(w.deferred, fn)
}

// Step advances the world one tick and runs callbacks deferred before this
// step. Callbacks scheduled while running are kept for the following tick.
func (w *World) Step() {
	w.tick++
	due := w.deferred
	w.deferred = nil
	for _, fn := range due {
		fn()
	}
}
