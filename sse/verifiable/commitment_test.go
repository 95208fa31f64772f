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

func xtagSet() [][]byte {
	return [][]byte{[]byte("xtag-1"), []byte("xtag-2"), []byte("xtag-3")}
}

func TestCommitRejectsEmptyList(t *testing.T) {
	_, err := Commit(nil)
	assert.ErrorIs(t, err, ErrEmptyCrossTags)
}

func TestCommitIsDeterministic(t *testing.T) {
	c1, err := Commit(xtagSet())
	require.NoError(t, err)
	c2, err := Commit(xtagSet())
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestCommitBindsOrder(t *testing.T) {
	c1, err := Commit([][]byte{[]byte("a"), []byte("b")})
	require.NoError(t, err)
	c2, err := Commit([][]byte{[]byte("b"), []byte("a")})
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2)
}

func TestVerifyCommitmentRoundTrip(t *testing.T) {
	c, err := Commit(xtagSet())
	require.NoError(t, err)
	assert.True(t, VerifyCommitment(c, xtagSet()))
}

func TestVerifyCommitmentRejectsTamperedSet(t *testing.T) {
	c, err := Commit(xtagSet())
	require.NoError(t, err)
	tampered := [][]byte{[]byte("xtag-1"), []byte("xtag-2"), []byte("xtag-tampered")}
	assert.False(t, VerifyCommitment(c, tampered))
}

func TestCheckSubsetMembershipAccepts(t *testing.T) {
	full := xtagSet()
	sampled := [][]byte{full[1], full[2]}
	betas := []int{2, 3}
	assert.NoError(t, CheckSubsetMembership(sampled, betas, full))
}

func TestCheckSubsetMembershipRejectsLengthMismatch(t *testing.T) {
	full := xtagSet()
	err := CheckSubsetMembership(full[:1], []int{1, 2}, full)
	assert.Error(t, err)
}

func TestCheckSubsetMembershipRejectsOutOfRangeBeta(t *testing.T) {
	full := xtagSet()
	err := CheckSubsetMembership([][]byte{full[0]}, []int{0}, full)
	assert.Error(t, err)

	err = CheckSubsetMembership([][]byte{full[0]}, []int{4}, full)
	assert.Error(t, err)
}

func TestCheckSubsetMembershipRejectsWrongSample(t *testing.T) {
	full := xtagSet()
	err := CheckSubsetMembership([][]byte{full[0]}, []int{2}, full)
	assert.Error(t, err)
}
