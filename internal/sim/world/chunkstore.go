package world

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
)

type Chunk struct {
	CX, CZ int
	Height int
	Blocks []uint16 // len = 16*16*Height, indexed x + z*16 + y*256

	dirty bool
	hash  [32]byte
}

func (c *Chunk) index(x, y, z int) int {
	return x + z*16 + y*256
}

func (c *Chunk) Get(x, y, z int) uint16 {
	return c.Blocks[c.index(x, y, z)]
}

func (c *Chunk) Set(x, y, z int, b uint16) {
	i := c.index(x, y, z)
	if c.Blocks[i] == b {
		return
	}
	c.Blocks[i] = b
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

type ChunkStore struct {
	Height    int
	BoundaryR int // blocks; 0 means unbounded

	Chunks map[ChunkKey]*Chunk

	loaded map[ChunkKey]bool
	forced map[ChunkKey]int
}

func NewChunkStore(height, boundaryR int) *ChunkStore {
	if height <= 0 {
		height = 8
	}
	return &ChunkStore{
		Height:    height,
		BoundaryR: boundaryR,
		Chunks:    map[ChunkKey]*Chunk{},
		loaded:    map[ChunkKey]bool{},
		forced:    map[ChunkKey]int{},
	}
}

func (s *ChunkStore) InBounds(p Vec3i) bool {
	if p.Y < 0 || p.Y >= s.Height {
		return false
	}
	if s.BoundaryR > 0 {
		if p.X < -s.BoundaryR || p.X > s.BoundaryR || p.Z < -s.BoundaryR || p.Z > s.BoundaryR {
			return false
		}
	}
	return true
}

func (s *ChunkStore) GetBlock(p Vec3i) uint16 {
	if !s.InBounds(p) {
		return Air
	}
	ch := s.GetOrGenChunk(ChunkOf(p))
	return ch.Get(Mod(p.X, 16), p.Y, Mod(p.Z, 16))
}

func (s *ChunkStore) SetBlock(p Vec3i, b uint16) {
	if !s.InBounds(p) {
		return
	}
	ch := s.GetOrGenChunk(ChunkOf(p))
	ch.Set(Mod(p.X, 16), p.Y, Mod(p.Z, 16), b)
}

func (s *ChunkStore) GetOrGenChunk(k ChunkKey) *Chunk {
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := &Chunk{
		CX:     k.CX,
		CZ:     k.CZ,
		Height: s.Height,
		Blocks: make([]uint16, 16*16*s.Height),
	}
	// Flat worldgen: a stone floor at y=0, air above.
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			ch.Blocks[ch.index(x, 0, z)] = Stone
		}
	}
	ch.dirty = true
	_ = ch.Digest()
	s.Chunks[k] = ch
	s.loaded[k] = true
	return ch
}

// Loaded reports whether a chunk is resident or held by a force count.
// Chunks that were never materialized are not loaded.
func (s *ChunkStore) Loaded(k ChunkKey) bool {
	return s.loaded[k] || s.forced[k] > 0
}

// SetLoaded marks a materialized chunk resident or evicted. Block contents
// survive eviction; only the loaded flag changes.
func (s *ChunkStore) SetLoaded(k ChunkKey, on bool) {
	if _, ok := s.Chunks[k]; !ok && on {
		s.GetOrGenChunk(k)
		return
	}
	if on {
		s.loaded[k] = true
	} else {
		delete(s.loaded, k)
	}
}

// Force pins a chunk loaded until a matching Release. Counted, so nested
// holders do not release each other's pins.
func (s *ChunkStore) Force(k ChunkKey) {
	s.forced[k]++
	if _, ok := s.Chunks[k]; !ok {
		s.GetOrGenChunk(k)
		delete(s.loaded, k) // still evicted once all pins drop
	}
}

func (s *ChunkStore) Release(k ChunkKey) {
	if s.forced[k] <= 1 {
		delete(s.forced, k)
		return
	}
	s.forced[k]--
}

func (s *ChunkStore) ForcedCount(k ChunkKey) int {
	return s.forced[k]
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.loaded))
	for k := range s.loaded {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}
