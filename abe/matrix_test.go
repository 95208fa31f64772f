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

func TestVectorDotRejectsLengthMismatch(t *testing.T) {
	_, err := Vector{big.NewInt(1)}.Dot(Vector{big.NewInt(1), big.NewInt(2)}, big.NewInt(97))
	assert.Error(t, err)
}

func TestVectorDotMod(t *testing.T) {
	p := big.NewInt(97)
	dot, err := Vector{big.NewInt(10), big.NewInt(20)}.Dot(Vector{big.NewInt(3), big.NewInt(4)}, p)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(110%97), dot)
}

func TestMatrixTranspose(t *testing.T) {
	m := Matrix{{big.NewInt(1), big.NewInt(2)}, {big.NewInt(3), big.NewInt(4)}}
	tr := m.Transpose()
	assert.Equal(t, big.NewInt(1), tr[0][0])
	assert.Equal(t, big.NewInt(3), tr[0][1])
	assert.Equal(t, big.NewInt(2), tr[1][0])
	assert.Equal(t, big.NewInt(4), tr[1][1])
}

func TestGaussianEliminationSolverRoundTrip(t *testing.T) {
	p := big.NewInt(97)
	mat := Matrix{
		{big.NewInt(1), big.NewInt(2)},
		{big.NewInt(3), big.NewInt(4)},
	}
	v := Vector{big.NewInt(5), big.NewInt(6)}

	x, err := gaussianEliminationSolver(mat, v, p)
	require.NoError(t, err)

	for i, row := range mat {
		got, err := row.Dot(x, p)
		require.NoError(t, err)
		want := new(big.Int).Mod(v[i], p)
		assert.Equal(t, 0, got.Cmp(want))
	}
}

func TestGaussianEliminationSolverNoSolution(t *testing.T) {
	p := big.NewInt(97)
	mat := Matrix{
		{big.NewInt(1), big.NewInt(1)},
		{big.NewInt(2), big.NewInt(2)},
	}
	v := Vector{big.NewInt(1), big.NewInt(3)}

	_, err := gaussianEliminationSolver(mat, v, p)
	assert.Error(t, err)
}
