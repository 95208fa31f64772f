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

// Package abe implements the FAME ciphertext-policy attribute-based
// encryption scheme (Agrawal-Chase, "FAME: Fast Attribute-based
// Message Encryption"). It is a reusable primitive specified only to
// the extent its key/ciphertext shapes constrain other components;
// nothing elsewhere in this module calls into it, but it is fully
// constructible, encryptable and decryptable on its own.
package abe

import (
	"fmt"
	"math/big"
)

// Vector is a row or column of scalars mod p.
type Vector []*big.Int

// Dot returns the dot product of v and w mod p.
func (v Vector) Dot(w Vector, p *big.Int) (*big.Int, error) {
	if len(v) != len(w) {
		return nil, fmt.Errorf("abe: vector length mismatch: %d vs %d", len(v), len(w))
	}
	sum := new(big.Int)
	for i := range v {
		sum.Add(sum, new(big.Int).Mul(v[i], w[i]))
	}
	return sum.Mod(sum, p), nil
}

func constantVector(n int, c *big.Int) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = new(big.Int).Set(c)
	}
	return v
}

// Matrix is a row-major matrix of scalars mod p. Every row must have
// the same length.
type Matrix []Vector

func newMatrix(rows []Vector) (Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("abe: matrix has no rows")
	}
	width := len(rows[0])
	for _, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("abe: ragged matrix rows")
		}
	}
	return Matrix(rows), nil
}

// Transpose returns the transpose of m.
func (m Matrix) Transpose() Matrix {
	if len(m) == 0 {
		return Matrix{}
	}
	out := make(Matrix, len(m[0]))
	for j := range out {
		out[j] = make(Vector, len(m))
		for i := range m {
			out[j][i] = m[i][j]
		}
	}
	return out
}

// Mul returns m * other over the integers, without reducing mod p
// (callers reduce afterwards if needed; the policy-matrix construction
// that uses it works over unreduced small integers).
func (m Matrix) Mul(other Matrix) (Matrix, error) {
	if len(m) == 0 || len(other) == 0 || len(m[0]) != len(other) {
		return nil, fmt.Errorf("abe: incompatible matrix dimensions for multiplication")
	}
	out := make(Matrix, len(m))
	for i := range m {
		out[i] = make(Vector, len(other[0]))
		for j := range out[i] {
			sum := new(big.Int)
			for k := range other {
				sum.Add(sum, new(big.Int).Mul(m[i][k], other[k][j]))
			}
			out[i][j] = sum
		}
	}
	return out, nil
}

// gaussianEliminationSolver solves mat * x = v over Z_p by Gaussian
// elimination, adapted from the Lewko-Waters MSP-to-key reduction
// used by FAME's Decrypt. Returns an error if no solution exists.
func gaussianEliminationSolver(mat Matrix, v Vector, p *big.Int) (Vector, error) {
	if len(mat) == 0 || len(mat[0]) == 0 {
		return nil, fmt.Errorf("abe: matrix must not be empty")
	}
	if len(mat) != len(v) {
		return nil, fmt.Errorf("abe: dimension mismatch: %d rows, vector length %d", len(mat), len(v))
	}

	m := make(Matrix, len(mat))
	u := make(Vector, len(mat))
	for i := range mat {
		m[i] = make(Vector, len(mat[0]))
		for j := range mat[0] {
			m[i][j] = new(big.Int).Set(mat[i][j])
		}
		u[i] = new(big.Int).Set(v[i])
	}

	ret := make(Vector, len(mat[0]))
	h, k := 0, 0
	for h < len(m) && k < len(m[0]) {
		pivot := -1
		for i := h; i < len(m); i++ {
			if m[i][k].Sign() != 0 {
				pivot = i
				break
			}
		}
		if pivot == -1 {
			ret[k] = big.NewInt(0)
			k++
			continue
		}
		m[h], m[pivot] = m[pivot], m[h]
		u[h], u[pivot] = u[pivot], u[h]

		inv := new(big.Int).ModInverse(m[h][k], p)
		if inv == nil {
			return nil, fmt.Errorf("abe: pivot has no inverse mod p")
		}
		for i := h + 1; i < len(m); i++ {
			f := new(big.Int).Mul(inv, m[i][k])
			m[i][k] = big.NewInt(0)
			for j := k + 1; j < len(m[0]); j++ {
				m[i][j].Sub(m[i][j], new(big.Int).Mul(f, m[h][j]))
				m[i][j].Mod(m[i][j], p)
			}
			u[i].Sub(u[i], new(big.Int).Mul(f, u[h]))
			u[i].Mod(u[i], p)
		}
		k++
		h++
	}

	for i := h; i < len(m); i++ {
		if u[i].Sign() != 0 {
			return nil, fmt.Errorf("abe: no solution (attributes insufficient for decryption)")
		}
	}
	for j := k; j < len(m[0]); j++ {
		ret[j] = big.NewInt(0)
	}

	for i := h - 1; i >= 0; i-- {
		for j := k - 1; j >= 0; j-- {
			if ret[j] == nil {
				tail, err := Vector(m[i][j+1:]).Dot(ret[j+1:], p)
				if err != nil {
					return nil, err
				}
				val := new(big.Int).Sub(u[i], tail)
				inv := new(big.Int).ModInverse(m[i][j], p)
				if inv == nil {
					return nil, fmt.Errorf("abe: pivot has no inverse mod p")
				}
				val.Mul(val, inv)
				val.Mod(val, p)
				ret[j] = val
				break
			}
		}
	}

	return ret, nil
}
