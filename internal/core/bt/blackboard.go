package bt

import (
	"math"
	"sync"
)

// Blackboard is the typed value store of a Run. Application facts and the
// engine's per-node run state both live here.
//
// Int, Float and Bool values share one 32-bit slot per key, so writing a Float
// and reading an Int under the same key reinterprets the bits. Vectors and
// object handles have their own tables and never collide with scalars.
// Reads of absent keys return the zero value of the requested type.
type Blackboard struct {
	mu      sync.RWMutex
	scalars map[Key]uint32
	vectors map[Key]Vector3
	objects map[Key]any

	// dense scalar block for the reserved engine keys [base, base+len(block))
	base  Key
	block []uint32
}

// NewBlackboard creates an empty blackboard without a reserved block.
func NewBlackboard() *Blackboard {
	return &Blackboard{
		scalars: make(map[Key]uint32),
		vectors: make(map[Key]Vector3),
		objects: make(map[Key]any),
	}
}

// newReservedBlackboard creates a blackboard whose scalars for the n keys
// starting at base are kept in a slice.
func newReservedBlackboard(base Key, n int) *Blackboard {
	bb := NewBlackboard()
	bb.base = base
	bb.block = make([]uint32, n)
	return bb
}

func (bb *Blackboard) slot(key Key) (int, bool) {
	i := int64(key) - int64(bb.base)
	if i < 0 || i >= int64(len(bb.block)) {
		return 0, false
	}
	return int(i), true
}

func (bb *Blackboard) setScalar(key Key, bits uint32) {
	bb.mu.Lock()
	if i, ok := bb.slot(key); ok {
		bb.block[i] = bits
	} else {
		bb.scalars[key] = bits
	}
	bb.mu.Unlock()
}

func (bb *Blackboard) scalar(key Key) uint32 {
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	if i, ok := bb.slot(key); ok {
		return bb.block[i]
	}
	return bb.scalars[key]
}

func (bb *Blackboard) SetInt(key Key, value int32) { bb.setScalar(key, uint32(value)) }

func (bb *Blackboard) GetInt(key Key) int32 { return int32(bb.scalar(key)) }

func (bb *Blackboard) SetFloat(key Key, value float32) {
	bb.setScalar(key, math.Float32bits(value))
}

func (bb *Blackboard) GetFloat(key Key) float32 { return math.Float32frombits(bb.scalar(key)) }

func (bb *Blackboard) SetBool(key Key, value bool) {
	var bits uint32
	if value {
		bits = 1
	}
	bb.setScalar(key, bits)
}

// GetBool reports whether the low byte of the scalar slot under key is
// nonzero, so a float or a multiple of 256 stored there reads as false.
func (bb *Blackboard) GetBool(key Key) bool { return bb.scalar(key)&0xff != 0 }

func (bb *Blackboard) SetVector3(key Key, value Vector3) {
	bb.mu.Lock()
	bb.vectors[key] = value
	bb.mu.Unlock()
}

func (bb *Blackboard) GetVector3(key Key) Vector3 {
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	return bb.vectors[key]
}

// SetObject stores an opaque handle. A nil value is stored as is and reads
// back as nil.
func (bb *Blackboard) SetObject(key Key, value any) {
	bb.mu.Lock()
	bb.objects[key] = value
	bb.mu.Unlock()
}

func (bb *Blackboard) GetObject(key Key) any {
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	return bb.objects[key]
}
