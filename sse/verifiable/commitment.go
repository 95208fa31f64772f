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
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// ErrEmptyCrossTags signals Commit was called with no cross-tags to
// bind — an update always mints at least one, so this indicates a
// caller bug.
var ErrEmptyCrossTags = errors.New("verifiable: cannot commit to an empty cross-tag list")

// Commit returns Cm_{w,id} = H_c(xtag_1 || ... || xtag_l) (spec.md
// §4.5), the binding commitment stored alongside a TSet entry so the
// server cannot serve a truncated or substituted cross-tag set at
// search time.
func Commit(xtags [][]byte) ([]byte, error) {
	if len(xtags) == 0 {
		return nil, ErrEmptyCrossTags
	}
	h := blake3.New()
	for _, xtag := range xtags {
		h.Write(xtag)
	}
	return h.Sum(nil), nil
}

// VerifyCommitment recomputes the commitment over xtags and compares
// it against commitment.
func VerifyCommitment(commitment []byte, xtags [][]byte) bool {
	recomputed, err := Commit(xtags)
	if err != nil {
		return false
	}
	return bytesEqual(recomputed, commitment)
}

// CheckSubsetMembership verifies that each sampled cross-tag is the
// betaIndices[t]-th entry (1-indexed) of full, rejecting on length
// mismatch or an out-of-range beta (spec.md §4.5).
func CheckSubsetMembership(sampled [][]byte, betaIndices []int, full [][]byte) error {
	if len(sampled) != len(betaIndices) {
		return fmt.Errorf("verifiable: sampled/beta-index length mismatch: %d vs %d", len(sampled), len(betaIndices))
	}
	for t, beta := range betaIndices {
		if beta < 1 || beta > len(full) {
			return fmt.Errorf("verifiable: beta index %d out of range [1,%d]", beta, len(full))
		}
		if !bytesEqual(sampled[t], full[beta-1]) {
			return fmt.Errorf("verifiable: sampled cross-tag %d does not match full[%d]", t, beta-1)
		}
	}
	return nil
}
