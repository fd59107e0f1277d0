package common

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMulPercentage(t *testing.T) {
	assert.Equal(t, big.NewInt(74777), MulPercentage(big.NewInt(43987), 170))
	assert.Equal(t, big.NewInt(258281956132), MulPercentage(big.NewInt(782672594341), 33))
}

func TestSafeSubtract(t *testing.T) {
	assert.Equal(t, uint64(35), SafeSubtract(uint64(85), uint64(50), uint64(200)))
	assert.Equal(t, uint64(0), SafeSubtract(uint64(85), uint64(85), uint64(200)))
	assert.Equal(t, uint64(200), SafeSubtract(uint64(185), uint64(385), uint64(200)))
	assert.Equal(t, uint64(0), SafeSubtract(uint64(893), uint64(17833), uint64(0)))
}

func TestDecodeHex(t *testing.T) {
	bytes, err := DecodeHex("0xff01")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0x01}, bytes)

	bytes, err = DecodeHex("0A")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x0a}, bytes)

	_, err = DecodeHex("0xzz")
	assert.Error(t, err)
}

func TestIsContextDoneErr(t *testing.T) {
	assert.True(t, IsContextDoneErr(context.Canceled))
	assert.True(t, IsContextDoneErr(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.False(t, IsContextDoneErr(errors.New("connection refused")))
}

func TestOtherChainID(t *testing.T) {
	assert.Equal(t, ChainIDStrForeign, OtherChainID(ChainIDStrHome))
	assert.Equal(t, ChainIDStrHome, OtherChainID(ChainIDStrForeign))
	assert.True(t, IsKnownChainID(ChainIDStrHome))
	assert.False(t, IsKnownChainID("prime"))
}
