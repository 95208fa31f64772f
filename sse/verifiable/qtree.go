/*
 * Copyright (c) 2018 XLAB d.o.o
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package verifiable implements the Merkle-committed XSet membership
// layer (spec.md §4.4-4.5): a QTree authenticating individual XSet
// bits, and an AddressCommitment binding an update's full cross-tag
// set so the server cannot selectively withhold cross-tags at search
// time.
package verifiable

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"
)

// QTree is a full binary Merkle tree over a power-of-two-padded bit
// array, one bit per XSet address. Every mutation rehashes the single
// root-to-leaf path it touches rather than the whole tree.
//
// QTree is not safe for concurrent use; callers needing concurrent
// readers must hold their own lock, matching spec.md §5's "does not
// mandate this" concurrency stance.
type QTree struct {
	capacity int // always a power of two, >= the capacity requested at NewQTree
	height   int
	bits     []bool
	hashes   [][][]byte // hashes[level][index], level 0 = leaves, top level has 1 entry (the root)
	version  uint64
}

// NewQTree returns a QTree whose capacity is the next power of two at
// least as large as minCapacity (minCapacity=0 yields capacity 1). The
// tree starts fully zeroed with version 0; call Initialize to seed it
// from an existing bit array, or UpdateBit to populate it one address
// at a time (both bring version to >= 1).
func NewQTree(minCapacity int) *QTree {
	capacity := 1
	height := 0
	for capacity < minCapacity {
		capacity *= 2
		height++
	}

	q := &QTree{capacity: capacity, height: height, bits: make([]bool, capacity)}
	q.rebuild()
	return q
}

// Capacity returns the tree's padded leaf count (a power of two).
// Per spec.md §4.4's critical invariant, a verifier must be
// constructed with this same capacity to accept proofs generated here.
func (q *QTree) Capacity() int { return q.capacity }

// Version returns the number of XSet mutations observed (Initialize
// counts as exactly one).
func (q *QTree) Version() uint64 { return q.version }

// RootHash returns the current root hash R_X^(t).
func (q *QTree) RootHash() []byte {
	top := q.hashes[len(q.hashes)-1][0]
	out := make([]byte, len(top))
	copy(out, top)
	return out
}

// Initialize seeds the whole bit array at once (spec.md §4.4:
// "Pad bits to 2^h with zeros, build bottom-up, set version := 1").
func (q *QTree) Initialize(bits []bool) error {
	if len(bits) > q.capacity {
		return fmt.Errorf("verifiable: bit array of length %d exceeds capacity %d", len(bits), q.capacity)
	}
	copy(q.bits, bits)
	for i := len(bits); i < q.capacity; i++ {
		q.bits[i] = false
	}
	q.rebuild()
	q.version = 1
	return nil
}

// AddressIndex maps an address (a serialized XSet cross-tag, or any
// other opaque byte string) to a leaf index, the stable hash
// hash(address) mod 2^h of spec.md §4.4.
func (q *QTree) AddressIndex(address []byte) int {
	h := blake3.Sum256(address)
	v := binary.BigEndian.Uint64(h[:8])
	return int(v % uint64(q.capacity))
}

// UpdateBit sets the bit at address's mapped leaf and rehashes the
// single affected root-to-leaf path, advancing version by one.
func (q *QTree) UpdateBit(address []byte, value bool) {
	idx := q.AddressIndex(address)
	q.bits[idx] = value
	q.hashes[0][idx] = leafHash(idx, value)

	level := 0
	i := idx
	for level < q.height {
		parent := i / 2
		left, right := q.hashes[level][parent*2], q.hashes[level][parent*2+1]
		level++
		q.hashes[level][parent] = internalHash(left, right)
		i = parent
	}
	q.version++
}

// Proof is the ordered sequence of sibling hashes on an address's
// root-to-leaf path, plus the index and bit value needed to recompute
// the leaf hash independently (spec.md §4.4: verifyPath "recompute[s]
// the leaf hash from (idx, value)" rather than trusting a stored node,
// unlike the source this is grounded on — see DESIGN.md).
type Proof struct {
	Index   int
	Value   bool
	Capacity int
	Siblings [][]byte
}

// GenerateProof returns address's authentication path: h sibling
// hashes from leaf to root (spec.md §4.4).
func (q *QTree) GenerateProof(address []byte) Proof {
	idx := q.AddressIndex(address)
	siblings := make([][]byte, q.height)

	level := 0
	i := idx
	for level < q.height {
		var sibling []byte
		if i%2 == 0 {
			sibling = q.hashes[level][i+1]
		} else {
			sibling = q.hashes[level][i-1]
		}
		siblings[level] = sibling
		i /= 2
		level++
	}

	return Proof{Index: idx, Value: q.bits[idx], Capacity: q.capacity, Siblings: siblings}
}

// VerifyPath checks a Proof against a claimed root, bound to q's own
// capacity. A verifier instantiated with a different capacity rejects
// all proofs (spec.md §4.4) — this is checked explicitly against
// proof.Capacity before any hash is folded, rather than left to an
// incidental root mismatch, since a proof from a differently-shaped
// tree can otherwise fold into a path of the same length by
// coincidence and verify against the wrong root.
func (q *QTree) VerifyPath(proof Proof, root []byte) bool {
	if proof.Capacity != q.capacity {
		return false
	}
	if len(proof.Siblings) != q.height {
		return false
	}
	if proof.Index < 0 || proof.Index >= q.capacity {
		return false
	}

	current := leafHash(proof.Index, proof.Value)

	i := proof.Index
	for _, sibling := range proof.Siblings {
		if i%2 == 0 {
			current = internalHash(current, sibling)
		} else {
			current = internalHash(sibling, current)
		}
		i /= 2
	}

	return bytesEqual(current, root)
}

func (q *QTree) rebuild() {
	q.hashes = make([][][]byte, q.height+1)
	q.hashes[0] = make([][]byte, q.capacity)
	for i, bit := range q.bits {
		q.hashes[0][i] = leafHash(i, bit)
	}

	size := q.capacity
	for level := 0; level < q.height; level++ {
		size /= 2
		q.hashes[level+1] = make([][]byte, size)
		for i := 0; i < size; i++ {
			q.hashes[level+1][i] = internalHash(q.hashes[level][2*i], q.hashes[level][2*i+1])
		}
	}
}

// leafHash is H("0" || index || bit_value) (spec.md §4.4).
func leafHash(index int, value bool) []byte {
	bit := byte('0')
	if value {
		bit = '1'
	}
	input := fmt.Sprintf("0|%d|%c", index, bit)
	h := blake3.Sum256([]byte(input))
	return h[:]
}

// internalHash is H("1" || left || right) (spec.md §4.4).
func internalHash(left, right []byte) []byte {
	h := blake3.New()
	h.Write([]byte("1|"))
	h.Write(left)
	h.Write([]byte("|"))
	h.Write(right)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out[:]
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
