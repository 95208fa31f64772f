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

package verifiable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQTreeRoundsUpToPowerOfTwo(t *testing.T) {
	q := NewQTree(10)
	assert.Equal(t, 16, q.Capacity())
}

func TestInitializeSetsVersionOne(t *testing.T) {
	q := NewQTree(4)
	require.NoError(t, q.Initialize([]bool{true, false, true, false}))
	assert.EqualValues(t, 1, q.Version())
}

func TestInitializeRejectsOversizedBitArray(t *testing.T) {
	q := NewQTree(4)
	err := q.Initialize(make([]bool, 5))
	assert.Error(t, err)
}

func TestUpdateBitAdvancesVersionAndChangesRoot(t *testing.T) {
	q := NewQTree(8)
	root0 := q.RootHash()

	q.UpdateBit([]byte("xtag-1"), true)
	assert.EqualValues(t, 1, q.Version())
	assert.NotEqual(t, root0, q.RootHash())
}

func TestGenerateProofVerifiesAgainstRoot(t *testing.T) {
	q := NewQTree(8)
	q.UpdateBit([]byte("xtag-1"), true)
	q.UpdateBit([]byte("xtag-2"), true)

	proof := q.GenerateProof([]byte("xtag-1"))
	assert.True(t, q.VerifyPath(proof, q.RootHash()))
}

func TestVerifyPathRejectsWrongValue(t *testing.T) {
	q := NewQTree(8)
	q.UpdateBit([]byte("xtag-1"), true)

	proof := q.GenerateProof([]byte("xtag-1"))
	proof.Value = false
	assert.False(t, q.VerifyPath(proof, q.RootHash()))
}

func TestVerifyPathRejectsTamperedSibling(t *testing.T) {
	q := NewQTree(8)
	q.UpdateBit([]byte("xtag-1"), true)
	q.UpdateBit([]byte("xtag-2"), true)

	proof := q.GenerateProof([]byte("xtag-1"))
	require.NotEmpty(t, proof.Siblings)
	tampered := make([]byte, len(proof.Siblings[0]))
	copy(tampered, proof.Siblings[0])
	tampered[0] ^= 0xFF
	proof.Siblings[0] = tampered

	assert.False(t, q.VerifyPath(proof, q.RootHash()))
}

func TestNegativeProofAuthenticatesZeroBit(t *testing.T) {
	q := NewQTree(8)
	q.UpdateBit([]byte("xtag-1"), true)

	proof := q.GenerateProof([]byte("never-inserted"))
	assert.False(t, proof.Value)
	assert.True(t, q.VerifyPath(proof, q.RootHash()))
}

func TestProofFromDifferentCapacityTreeFailsVerification(t *testing.T) {
	small := NewQTree(4)
	small.UpdateBit([]byte("xtag-1"), true)

	large := NewQTree(64)
	large.UpdateBit([]byte("xtag-1"), true)

	proof := small.GenerateProof([]byte("xtag-1"))
	assert.False(t, large.VerifyPath(proof, large.RootHash()))
}
