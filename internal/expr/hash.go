package expr

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// computeHash derives the content hash from the node payload and the hashes
// of the nodes it references. Children are allocated before parents, so their
// hashes are already final.
func (b *Builder) computeHash(n *Node) uint64 {
	d := xxhash.New()
	var buf [8]byte

	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}

	_, _ = d.Write([]byte{byte(n.Kind)})
	writeU64(uint64(len(n.Name)))
	_, _ = d.WriteString(n.Name)
	writeU64(uint64(int64(n.Label)))

	writeU64(uint64(len(n.Indices)))
	for _, ix := range n.Indices {
		writeU64(uint64(int64(ix)))
	}

	writeU64(uint64(len(n.Operands)))
	for _, op := range n.Operands {
		writeU64(b.Hash(op))
	}

	if n.Kind == KindMarker {
		for _, p := range n.Params.Slice() {
			if p.IsValid() {
				_, _ = d.Write([]byte{1})
				writeU64(b.Hash(p))
			} else {
				_, _ = d.Write([]byte{0})
			}
		}
	}
	return d.Sum64()
}
