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

// Package curve wraps the opaque G1/Zp operations the Nomos protocol is
// built from: random scalars, hash-to-G1, hash-to-Zp, and a keyed PRF
// over Zp. Every exponentiation elsewhere in this module goes through
// this package so the rest of the codebase never touches bn256 curve
// internals directly.
package curve

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"github.com/fentec-project/bn256"
	"golang.org/x/crypto/hkdf"
)

// Order is the prime order p of the G1/G2/GT groups and the modulus
// all scalars (Zp elements) are reduced by.
var Order = bn256.Order

// RandScalar samples a uniformly random element of Zp.
func RandScalar() (*big.Int, error) {
	s, err := rand.Int(rand.Reader, Order)
	if err != nil {
		return nil, fmt.Errorf("curve: sample random scalar: %w", err)
	}
	return s, nil
}

// RandScalars samples n independent uniform elements of Zp.
func RandScalars(n int) ([]*big.Int, error) {
	out := make([]*big.Int, n)
	for i := range out {
		s, err := RandScalar()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// HashToG1 hashes an arbitrary byte string into a point of G1. It is
// the H(·) primitive of the spec: H(w), H(w||cnt||0), H(w||cnt||1), …
func HashToG1(msg []byte) (*bn256.G1, error) {
	p, err := bn256.HashG1(string(msg))
	if err != nil {
		return nil, fmt.Errorf("curve: hash to G1: %w", err)
	}
	return p, nil
}

// HashToZp hashes an arbitrary byte string into a nonzero element of
// Zp: SHA-256 of msg reduced mod p, with a zero result mapped to 1.
func HashToZp(msg []byte) *big.Int {
	h := sha256.Sum256(msg)
	z := new(big.Int).SetBytes(h[:])
	z.Mod(z, Order)
	if z.Sign() == 0 {
		z.SetInt64(1)
	}
	return z
}

// Fp is the keyed PRF {0,1}* x {0,1}* -> Zp the spec calls F_p. It is
// implemented as HKDF-SHA256 over the key bytes, salted by the input
// label, reduced into Zp. The spec applies it both to scalar keys
// (Fp(Ky, id)) and to serialized-point keys (Fp(strap_bytes, "1")), so
// it is keyed by raw bytes rather than by *big.Int.
func Fp(key, input []byte) *big.Int {
	reader := hkdf.New(sha256.New, key, input, []byte("nomos-Fp"))
	buf := make([]byte, 32)
	// hkdf.New's reader never errors for a stream of this size.
	_, _ = io.ReadFull(reader, buf)
	z := new(big.Int).SetBytes(buf)
	z.Mod(z, Order)
	if z.Sign() == 0 {
		z.SetInt64(1)
	}
	return z
}

// FpScalar is Fp keyed by a scalar (Zp element) rather than raw bytes,
// used wherever the spec keys F_p with Ky/Kz directly.
func FpScalar(key *big.Int, input []byte) *big.Int {
	return Fp(key.Bytes(), input)
}

// MarshalG1 serializes a G1 point to bn256's canonical uncompressed
// (x, y) byte encoding, used as the opaque map key for TSet addresses
// and XSet cross-tags.
func MarshalG1(p *bn256.G1) []byte {
	return p.Marshal()
}

// UnmarshalG1 parses bytes produced by MarshalG1 back into a G1 point.
func UnmarshalG1(b []byte) (*bn256.G1, error) {
	p := new(bn256.G1)
	_, ok := p.Unmarshal(b)
	if !ok {
		return nil, fmt.Errorf("curve: malformed G1 point encoding")
	}
	return p, nil
}

// ScalarMul computes p^k (additive notation: k*p) and returns a fresh
// point, never mutating p.
func ScalarMul(p *bn256.G1, k *big.Int) *bn256.G1 {
	return new(bn256.G1).ScalarMult(p, reduce(k))
}

// reduce normalizes a scalar into [0, Order) so negative or oversized
// exponents from chained PRF/Fp arithmetic behave consistently.
func reduce(k *big.Int) *big.Int {
	r := new(big.Int).Mod(k, Order)
	if r.Sign() < 0 {
		r.Add(r, Order)
	}
	return r
}

// MulMod multiplies scalars mod p, the exponent-composition operation
// used throughout Update/GenToken (e.g. Kx[idx] * alpha * i).
func MulMod(a, b *big.Int) *big.Int {
	return reduce(new(big.Int).Mul(a, b))
}

// AddMod adds scalars mod p.
func AddMod(a, b *big.Int) *big.Int {
	return reduce(new(big.Int).Add(a, b))
}

// InvMod returns the multiplicative inverse of a scalar mod p. Kept
// for the hardened OPRF envelope path (currently unused by the
// simplified token flow, same as the original implementation).
func InvMod(a *big.Int) (*big.Int, error) {
	inv := new(big.Int).ModInverse(reduce(a), Order)
	if inv == nil {
		return nil, fmt.Errorf("curve: scalar has no inverse (zero mod p)")
	}
	return inv, nil
}
