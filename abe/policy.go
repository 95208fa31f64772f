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
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// MSP is a monotone span program describing which attributes suffice
// to decrypt: a matrix and a mapping from its rows to attributes. A
// set of attributes A can decrypt iff the rows mapped to A span the
// target vector (see BooleanToMSP).
type MSP struct {
	Mat         Matrix
	RowToAttrib []int
}

// BooleanToMSP converts a boolean expression over attribute ids
// (parenthesized ANDs/ORs of integers, no NOT gate) into an MSP via
// the Lewko-Waters algorithm (Appendix G, https://eprint.iacr.org/2010/351.pdf).
// When convertToOnes is true the satisfying target is [1,1,...,1]
// rather than [1,0,...,0].
func BooleanToMSP(boolExp string, convertToOnes bool) (*MSP, error) {
	target := Vector{big.NewInt(1)}
	msp, _, err := booleanToMSPIterative(boolExp, target, 1)
	if err != nil {
		return nil, err
	}

	if convertToOnes {
		width := len(msp.Mat[0])
		invMat := make(Matrix, width)
		for i := 0; i < width; i++ {
			invMat[i] = make(Vector, width)
			for j := 0; j < width; j++ {
				if i == 0 || j == i {
					invMat[i][j] = big.NewInt(1)
				} else {
					invMat[i][j] = big.NewInt(0)
				}
			}
		}
		msp.Mat, err = msp.Mat.Mul(invMat)
		if err != nil {
			return nil, err
		}
	}

	return msp, nil
}

func booleanToMSPIterative(boolExp string, vec Vector, c int) (*MSP, int, error) {
	boolExp = strings.TrimSpace(boolExp)
	numBrackets := 0
	found := false

	var msp1, msp2 *MSP
	var c1, cOut int
	var err error

	for i, e := range boolExp {
		switch e {
		case '(':
			numBrackets++
			continue
		case ')':
			numBrackets--
			continue
		}
		if numBrackets == 0 && i < len(boolExp)-3 && boolExp[i:i+3] == "AND" {
			left, right := boolExp[:i], boolExp[i+3:]
			vec1, vec2 := splitForAnd(vec, c)
			msp1, c1, err = booleanToMSPIterative(left, vec1, c+1)
			if err != nil {
				return nil, 0, err
			}
			msp2, cOut, err = booleanToMSPIterative(right, vec2, c1)
			if err != nil {
				return nil, 0, err
			}
			found = true
		} else if numBrackets == 0 && i < len(boolExp)-2 && boolExp[i:i+2] == "OR" {
			left, right := boolExp[:i], boolExp[i+2:]
			msp1, c1, err = booleanToMSPIterative(left, vec, c)
			if err != nil {
				return nil, 0, err
			}
			msp2, cOut, err = booleanToMSPIterative(right, vec, c1)
			if err != nil {
				return nil, 0, err
			}
			found = true
		}
		if found {
			break
		}
	}

	if !found {
		if len(boolExp) > 0 && boolExp[0] == '(' && boolExp[len(boolExp)-1] == ')' {
			return booleanToMSPIterative(boolExp[1:len(boolExp)-1], vec, c)
		}

		attrib, err := strconv.Atoi(boolExp)
		if err != nil {
			return nil, 0, fmt.Errorf("abe: malformed policy expression %q: %w", boolExp, err)
		}

		row := make(Vector, c)
		for i := 0; i < c; i++ {
			if i < len(vec) {
				row[i] = new(big.Int).Set(vec[i])
			} else {
				row[i] = big.NewInt(0)
			}
		}
		return &MSP{Mat: Matrix{row}, RowToAttrib: []int{attrib}}, c, nil
	}

	mat := make(Matrix, len(msp1.Mat)+len(msp2.Mat))
	for i, row := range msp1.Mat {
		padded := make(Vector, cOut)
		copy(padded, row)
		for j := len(row); j < cOut; j++ {
			padded[j] = big.NewInt(0)
		}
		mat[i] = padded
	}
	for i, row := range msp2.Mat {
		mat[i+len(msp1.Mat)] = row
	}

	rowToAttrib := append(append([]int{}, msp1.RowToAttrib...), msp2.RowToAttrib...)
	return &MSP{Mat: mat, RowToAttrib: rowToAttrib}, cOut, nil
}

// splitForAnd builds the two sub-target-vectors an AND gate's left
// and right operands must each span, one step of the Lewko-Waters
// construction.
func splitForAnd(vec Vector, c int) (Vector, Vector) {
	left := constantVector(c+1, big.NewInt(0))
	right := constantVector(c+1, big.NewInt(0))
	for i := range vec {
		left[i].Set(vec[i])
		right[i].Set(vec[i])
	}
	left[c] = big.NewInt(-1)
	right[c] = big.NewInt(1)
	return left, right
}
