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
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/fentec-project/bn256"

	"github.com/ZBCccc/nomos/internal/curve"
)

// FAME is the ciphertext-policy scheme of Agrawal and Chase, "FAME:
// Fast Attribute-based Message Encryption". It is a public-key
// scheme: encryption needs no master secret, only the matching
// attribute keys can decrypt.
type FAME struct {
	P *big.Int
}

// NewFAME configures a FAME instance over this module's pairing group.
func NewFAME() *FAME {
	return &FAME{P: curve.Order}
}

// MasterSecretKey is FAME's master secret, used only to derive
// AttributeKeys.
type MasterSecretKey struct {
	PartInt [4]*big.Int
	PartG1  [3]*bn256.G1
}

// PublicKey is FAME's public key, used only to Encrypt.
type PublicKey struct {
	PartG2 [2]*bn256.G2
	PartGT [2]*bn256.GT
}

// GenerateMasterKeys samples a fresh (PublicKey, MasterSecretKey) pair.
func (f *FAME) GenerateMasterKeys() (*PublicKey, *MasterSecretKey, error) {
	val, err := curve.RandScalars(7)
	if err != nil {
		return nil, nil, fmt.Errorf("abe: sample master key material: %w", err)
	}

	partInt := [4]*big.Int{val[0], val[1], val[2], val[3]}
	partG1 := [3]*bn256.G1{
		new(bn256.G1).ScalarBaseMult(val[4]),
		new(bn256.G1).ScalarBaseMult(val[5]),
		new(bn256.G1).ScalarBaseMult(val[6]),
	}
	partG2 := [2]*bn256.G2{
		new(bn256.G2).ScalarBaseMult(val[0]),
		new(bn256.G2).ScalarBaseMult(val[1]),
	}
	t0 := curve.AddMod(curve.MulMod(val[0], val[4]), val[6])
	t1 := curve.AddMod(curve.MulMod(val[1], val[5]), val[6])
	partGT := [2]*bn256.GT{
		new(bn256.GT).ScalarBaseMult(t0),
		new(bn256.GT).ScalarBaseMult(t1),
	}

	return &PublicKey{PartG2: partG2, PartGT: partGT},
		&MasterSecretKey{PartInt: partInt, PartG1: partG1}, nil
}

// Ciphertext is a FAME-encrypted message bound to an MSP policy.
type Ciphertext struct {
	Ct0     [3]*bn256.G2
	Ct      [][3]*bn256.G1
	CtPrime *bn256.GT
	Msp     *MSP
	SymEnc  []byte
	IV      []byte
}

// Encrypt encrypts msg under policy msp, public key pk. The message
// is wrapped with AES-256-CBC under a key encapsulated via FAME;
// msp.RowToAttrib must be injective for the scheme's security proof
// to hold.
func (f *FAME) Encrypt(msg string, msp *MSP, pk *PublicKey) (*Ciphertext, error) {
	if len(msp.Mat) == 0 || len(msp.Mat[0]) == 0 {
		return nil, fmt.Errorf("abe: empty policy matrix")
	}
	seen := make(map[int]bool, len(msp.RowToAttrib))
	for _, attrib := range msp.RowToAttrib {
		if seen[attrib] {
			return nil, fmt.Errorf("abe: attribute %d maps to multiple policy rows, scheme is not secure", attrib)
		}
		seen[attrib] = true
	}

	_, keyGT, err := bn256.RandomGT(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("abe: sample encapsulation key: %w", err)
	}
	symKey := sha256.Sum256([]byte(keyGT.String()))

	symEnc, iv, err := cbcSeal(symKey[:], []byte(msg))
	if err != nil {
		return nil, err
	}

	s, err := curve.RandScalars(2)
	if err != nil {
		return nil, fmt.Errorf("abe: sample blinding scalars: %w", err)
	}
	ct0 := [3]*bn256.G2{
		new(bn256.G2).ScalarMult(pk.PartG2[0], s[0]),
		new(bn256.G2).ScalarMult(pk.PartG2[1], s[1]),
		new(bn256.G2).ScalarBaseMult(curve.AddMod(s[0], s[1])),
	}

	ct := make([][3]*bn256.G1, len(msp.Mat))
	for i := range msp.Mat {
		var row [3]*bn256.G1
		for l := 0; l < 3; l++ {
			h0, err := curve.HashToG1([]byte(strconv.Itoa(msp.RowToAttrib[i]) + " " + strconv.Itoa(l) + " 0"))
			if err != nil {
				return nil, err
			}
			h1, err := curve.HashToG1([]byte(strconv.Itoa(msp.RowToAttrib[i]) + " " + strconv.Itoa(l) + " 1"))
			if err != nil {
				return nil, err
			}
			acc := new(bn256.G1).Add(curve.ScalarMul(h0, s[0]), curve.ScalarMul(h1, s[1]))

			for j := 0; j < len(msp.Mat[0]); j++ {
				g0, err := curve.HashToG1([]byte("0 " + strconv.Itoa(j) + " " + strconv.Itoa(l) + " 0"))
				if err != nil {
					return nil, err
				}
				g1, err := curve.HashToG1([]byte("0 " + strconv.Itoa(j) + " " + strconv.Itoa(l) + " 1"))
				if err != nil {
					return nil, err
				}
				gs := new(bn256.G1).Add(curve.ScalarMul(g0, s[0]), curve.ScalarMul(g1, s[1]))

				power := new(big.Int).Set(msp.Mat[i][j])
				if power.Sign() < 0 {
					power.Neg(power)
					gs = new(bn256.G1).Neg(curve.ScalarMul(gs, power))
				} else {
					gs = curve.ScalarMul(gs, power)
				}
				acc.Add(acc, gs)
			}
			row[l] = acc
		}
		ct[i] = row
	}

	ctPrime := new(bn256.GT).Add(
		new(bn256.GT).ScalarMult(pk.PartGT[0], s[0]),
		new(bn256.GT).ScalarMult(pk.PartGT[1], s[1]),
	)
	ctPrime.Add(ctPrime, keyGT)

	return &Ciphertext{Ct0: ct0, Ct: ct, CtPrime: ctPrime, Msp: msp, SymEnc: symEnc, IV: iv}, nil
}

// AttributeKeys are the per-attribute decryption keys derived for one
// entity's set of possessed attributes.
type AttributeKeys struct {
	K0        [3]*bn256.G2
	K         [][3]*bn256.G1
	KPrime    [3]*bn256.G1
	AttribToI map[int]int
}

// GenerateAttributeKeys derives decryption keys for attribute set
// gamma from the master secret key; the resulting keys can decrypt
// any ciphertext whose policy gamma satisfies.
func (f *FAME) GenerateAttributeKeys(gamma []int, sk *MasterSecretKey) (*AttributeKeys, error) {
	r, err := curve.RandScalars(2)
	if err != nil {
		return nil, fmt.Errorf("abe: sample key material: %w", err)
	}
	sigma, err := curve.RandScalars(len(gamma))
	if err != nil {
		return nil, fmt.Errorf("abe: sample per-attribute blinding: %w", err)
	}

	pow0 := curve.MulMod(sk.PartInt[2], r[0])
	pow1 := curve.MulMod(sk.PartInt[3], r[1])
	pow2 := curve.AddMod(r[0], r[1])

	k0 := [3]*bn256.G2{
		new(bn256.G2).ScalarBaseMult(pow0),
		new(bn256.G2).ScalarBaseMult(pow1),
		new(bn256.G2).ScalarBaseMult(pow2),
	}

	a0Inv, err := curve.InvMod(sk.PartInt[0])
	if err != nil {
		return nil, fmt.Errorf("abe: master secret key is degenerate: %w", err)
	}
	a1Inv, err := curve.InvMod(sk.PartInt[1])
	if err != nil {
		return nil, fmt.Errorf("abe: master secret key is degenerate: %w", err)
	}
	aInv := [2]*big.Int{a0Inv, a1Inv}
	pows := [3]*big.Int{pow0, pow1, pow2}

	k := make([][3]*bn256.G1, len(gamma))
	attribToI := make(map[int]int, len(gamma))
	for i, y := range gamma {
		gSigma := new(bn256.G1).ScalarBaseMult(sigma[i])
		var row [3]*bn256.G1
		for t := 0; t < 2; t++ {
			acc, err := famePointHash(y, t, pows)
			if err != nil {
				return nil, err
			}
			acc.Add(acc, gSigma)
			row[t] = curve.ScalarMul(acc, aInv[t])
		}
		row[2] = new(bn256.G1).Neg(new(bn256.G1).ScalarBaseMult(sigma[i]))

		k[i] = row
		attribToI[y] = i
	}

	sigmaPrime, err := curve.RandScalar()
	if err != nil {
		return nil, fmt.Errorf("abe: sample sigma': %w", err)
	}
	gSigmaPrime := new(bn256.G1).ScalarBaseMult(sigmaPrime)

	var k2 [3]*bn256.G1
	for t := 0; t < 2; t++ {
		acc, err := famePointHashZero(t, pows)
		if err != nil {
			return nil, err
		}
		acc.Add(acc, gSigmaPrime)
		k2[t] = new(bn256.G1).Add(curve.ScalarMul(acc, aInv[t]), sk.PartG1[t])
	}
	k2[2] = new(bn256.G1).Add(new(bn256.G1).Neg(new(bn256.G1).ScalarBaseMult(sigmaPrime)), sk.PartG1[2])

	return &AttributeKeys{K0: k0, K: k, KPrime: k2, AttribToI: attribToI}, nil
}

// famePointHash computes H(y||idx||t)^{pows[idx]} summed over
// idx = 0,1,2 — the key-derivation hash term FAME needs per attribute
// y and decryption-share index t.
func famePointHash(y, t int, pows [3]*big.Int) (*bn256.G1, error) {
	var acc *bn256.G1
	for idx := 0; idx < 3; idx++ {
		h, err := curve.HashToG1([]byte(strconv.Itoa(y) + " " + strconv.Itoa(idx) + " " + strconv.Itoa(t)))
		if err != nil {
			return nil, err
		}
		term := curve.ScalarMul(h, pows[idx])
		if acc == nil {
			acc = term
		} else {
			acc.Add(acc, term)
		}
	}
	return acc, nil
}

// famePointHashZero sums H("0 0 idx t")^{pows[idx]} over idx = 0,1,2,
// the same shape as famePointHash but over the reserved "0 0" labels
// that Encrypt uses for matrix column 0; used by the KPrime key term.
func famePointHashZero(t int, pows [3]*big.Int) (*bn256.G1, error) {
	var acc *bn256.G1
	for idx := 0; idx < 3; idx++ {
		h, err := curve.HashToG1([]byte("0 0 " + strconv.Itoa(idx) + " " + strconv.Itoa(t)))
		if err != nil {
			return nil, err
		}
		term := curve.ScalarMul(h, pows[idx])
		if acc == nil {
			acc = term
		} else {
			acc.Add(acc, term)
		}
	}
	return acc, nil
}

// Decrypt recovers the plaintext msg encrypted in cipher if key's
// attributes satisfy cipher.Msp's policy; otherwise returns an error.
func (f *FAME) Decrypt(ct *Ciphertext, key *AttributeKeys, pk *PublicKey) (string, error) {
	owned := make(map[int]bool, len(key.AttribToI))
	for attrib := range key.AttribToI {
		owned[attrib] = true
	}

	var rows []int
	for i, attrib := range ct.Msp.RowToAttrib {
		if owned[attrib] {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("abe: no possessed attribute matches the policy")
	}

	matForKey := make(Matrix, len(rows))
	ctForKey := make([][3]*bn256.G1, len(rows))
	rowToAttrib := make([]int, len(rows))
	for i, r := range rows {
		matForKey[i] = ct.Msp.Mat[r]
		ctForKey[i] = ct.Ct[r]
		rowToAttrib[i] = ct.Msp.RowToAttrib[r]
	}

	target := constantVector(len(matForKey[0]), big.NewInt(0))
	target[0] = big.NewInt(1)
	alpha, err := gaussianEliminationSolver(matForKey.Transpose(), target, f.P)
	if err != nil {
		return "", fmt.Errorf("abe: attributes are insufficient for decryption: %w", err)
	}

	keyGT := new(bn256.GT).Set(ct.CtPrime)
	for j := 0; j < 3; j++ {
		ctProd := new(bn256.G1).ScalarBaseMult(big.NewInt(0))
		keyProd := new(bn256.G1).ScalarBaseMult(big.NewInt(0))
		for i, attrib := range rowToAttrib {
			ctProd.Add(ctProd, curve.ScalarMul(ctForKey[i][j], alpha[i]))
			keyProd.Add(keyProd, curve.ScalarMul(key.K[key.AttribToI[attrib]][j], alpha[i]))
		}
		keyProd.Add(keyProd, key.KPrime[j])

		ctPairing := bn256.Pair(ctProd, key.K0[j])
		keyPairing := new(bn256.GT).Neg(bn256.Pair(keyProd, ct.Ct0[j]))
		keyGT.Add(keyGT, ctPairing)
		keyGT.Add(keyGT, keyPairing)
	}

	symKey := sha256.Sum256([]byte(keyGT.String()))
	return cbcOpen(symKey[:], ct.SymEnc, ct.IV)
}

func cbcSeal(key, plaintext []byte) (ciphertext, iv []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	padLen := block.BlockSize() - (len(plaintext) % block.BlockSize())
	padded := make([]byte, len(plaintext)+padLen)
	copy(padded, plaintext)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}

	iv = make([]byte, block.BlockSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, err
	}

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, iv, nil
}

func cbcOpen(key, ciphertext, iv []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return "", fmt.Errorf("abe: malformed ciphertext length")
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	padLen := int(padded[len(padded)-1])
	if padLen <= 0 || padLen > len(padded) {
		return "", fmt.Errorf("abe: decryption failed (bad padding)")
	}
	return string(padded[:len(padded)-padLen]), nil
}
