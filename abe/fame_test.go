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

package abe

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFAMEEncryptDecryptSatisfiedPolicy(t *testing.T) {
	a := NewFAME()
	pk, sk, err := a.GenerateMasterKeys()
	require.NoError(t, err)

	msp, err := BooleanToMSP("1 AND (2 OR 3)", false)
	require.NoError(t, err)

	msg := "the quick brown fox"
	ct, err := a.Encrypt(msg, msp, pk)
	require.NoError(t, err)

	keys, err := a.GenerateAttributeKeys([]int{1, 2}, sk)
	require.NoError(t, err)

	decrypted, err := a.Decrypt(ct, keys, pk)
	require.NoError(t, err)
	assert.Equal(t, msg, decrypted)
}

func TestFAMEDecryptFailsWithInsufficientAttributes(t *testing.T) {
	a := NewFAME()
	pk, sk, err := a.GenerateMasterKeys()
	require.NoError(t, err)

	msp, err := BooleanToMSP("1 AND 2", false)
	require.NoError(t, err)

	ct, err := a.Encrypt("secret", msp, pk)
	require.NoError(t, err)

	keys, err := a.GenerateAttributeKeys([]int{1}, sk)
	require.NoError(t, err)

	_, err = a.Decrypt(ct, keys, pk)
	assert.Error(t, err)
}

func TestFAMEEncryptRejectsNonInjectiveAttributeMap(t *testing.T) {
	a := NewFAME()
	pk, _, err := a.GenerateMasterKeys()
	require.NoError(t, err)

	msp := &MSP{
		Mat:         Matrix{{bigInt(1)}, {bigInt(1)}},
		RowToAttrib: []int{5, 5},
	}
	_, err = a.Encrypt("x", msp, pk)
	assert.Error(t, err)
}

func TestBooleanToMSPRejectsMalformedExpression(t *testing.T) {
	_, err := BooleanToMSP("1 AND (2 OR", false)
	assert.Error(t, err)
}

func bigInt(v int64) *big.Int { return big.NewInt(v) }
