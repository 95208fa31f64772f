package curve

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandScalarInRange(t *testing.T) {
	s, err := RandScalar()
	require.NoError(t, err)
	assert.True(t, s.Sign() >= 0)
	assert.True(t, s.Cmp(Order) < 0)
}

func TestRandScalarsDistinct(t *testing.T) {
	scalars, err := RandScalars(8)
	require.NoError(t, err)
	require.Len(t, scalars, 8)
	seen := make(map[string]bool)
	for _, s := range scalars {
		seen[s.String()] = true
	}
	// Overwhelmingly unlikely to collide for a 256-bit field.
	assert.Len(t, seen, 8)
}

func TestHashToG1Deterministic(t *testing.T) {
	p1, err := HashToG1([]byte("crypto"))
	require.NoError(t, err)
	p2, err := HashToG1([]byte("crypto"))
	require.NoError(t, err)
	assert.Equal(t, p1.Marshal(), p2.Marshal())

	p3, err := HashToG1([]byte("security"))
	require.NoError(t, err)
	assert.NotEqual(t, p1.Marshal(), p3.Marshal())
}

func TestHashToZpNonzeroAndDeterministic(t *testing.T) {
	z1 := HashToZp([]byte("crypto|1|0"))
	z2 := HashToZp([]byte("crypto|1|0"))
	assert.Equal(t, 0, z1.Cmp(z2))
	assert.NotEqual(t, 0, z1.Sign())
}

func TestFpDeterministicAndKeyed(t *testing.T) {
	key1 := big.NewInt(42)
	key2 := big.NewInt(43)

	a := FpScalar(key1, []byte("doc1"))
	b := FpScalar(key1, []byte("doc1"))
	c := FpScalar(key2, []byte("doc1"))

	assert.Equal(t, 0, a.Cmp(b))
	assert.NotEqual(t, 0, a.Cmp(c))
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	p, err := HashToG1([]byte("roundtrip"))
	require.NoError(t, err)

	encoded := MarshalG1(p)
	decoded, err := UnmarshalG1(encoded)
	require.NoError(t, err)

	assert.Equal(t, p.Marshal(), decoded.Marshal())
}

func TestUnmarshalG1Malformed(t *testing.T) {
	_, err := UnmarshalG1([]byte("not a point"))
	assert.Error(t, err)
}

func TestScalarMulAssociativity(t *testing.T) {
	p, err := HashToG1([]byte("w"))
	require.NoError(t, err)

	k1 := big.NewInt(3)
	k2 := big.NewInt(5)

	left := ScalarMul(ScalarMul(p, k1), k2)
	right := ScalarMul(p, MulMod(k1, k2))

	assert.Equal(t, left.Marshal(), right.Marshal())
}

func TestInvModRoundTrip(t *testing.T) {
	a := big.NewInt(7)
	inv, err := InvMod(a)
	require.NoError(t, err)

	prod := MulMod(a, inv)
	assert.Equal(t, 0, prod.Cmp(big.NewInt(1)))
}

func TestInvModZeroFails(t *testing.T) {
	_, err := InvMod(big.NewInt(0))
	assert.Error(t, err)
}
