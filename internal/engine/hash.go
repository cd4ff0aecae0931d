package engine

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/termfx/symx/internal/core"
)

// Hash returns the content hash of the node: order-preserving over
// function operands, name-based for symbols. Structurally equal nodes
// hash equal. The value is memoised; nodes are immutable so the memo
// never invalidates.
func (x *Expr) Hash() uint64 {
	if x.hashed {
		return x.hash
	}
	h := fnv.New64a()
	x.hashInto(h)
	x.hash = h.Sum64()
	x.hashed = true
	return x.hash
}

type hash64 interface {
	Write(p []byte) (int, error)
	Sum64() uint64
}

func (x *Expr) hashInto(h hash64) {
	// A tensor hashes as its List view so the hash law holds across the
	// two interchangeable forms.
	if x.kind == core.KindTensor {
		x.AsList().hashInto(h)
		return
	}
	var kindByte [1]byte
	kindByte[0] = byte(x.kind)
	h.Write(kindByte[:])
	switch x.kind {
	case core.KindNumber:
		var form [1]byte
		form[0] = byte(x.num.Form())
		h.Write(form[:])
		h.Write([]byte(x.num.String()))
	case core.KindSymbol:
		h.Write([]byte(x.name))
	case core.KindString:
		h.Write([]byte(x.str))
	case core.KindDomain:
		h.Write([]byte(x.dom))
	case core.KindError:
		h.Write([]byte(x.errCode))
		h.Write([]byte(x.errMsg))
	case core.KindFunction:
		if x.compoundHead != nil {
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], x.compoundHead.Hash())
			h.Write(buf[:])
		} else {
			h.Write([]byte(x.head))
		}
		var buf [8]byte
		for _, op := range x.ops {
			binary.LittleEndian.PutUint64(buf[:], op.Hash())
			h.Write(buf[:])
		}
	}
}
