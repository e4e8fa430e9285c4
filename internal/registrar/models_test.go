package registrar

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"namegate/pkg/ens"
)

func TestListed(t *testing.T) {
	label := ens.LabelHash("example")

	assert.True(t, Domain{Name: "example"}.Listed(label))
	assert.False(t, Domain{Name: ""}.Listed(label), "unlisted slot")
	assert.False(t, Domain{Name: "other"}.Listed(label), "stale name")
}

func TestReferralFee(t *testing.T) {
	cases := []struct {
		price  int64
		feePPM uint32
		want   int64
	}{
		{10, 100_000, 1},       // 10%
		{10, 333_333, 3},       // floor
		{10, 0, 0},             // no fee rate
		{0, 100_000, 0},        // free listing
		{10, 1_000_000, 10},    // full price
		{3, 100_000, 0},        // floors to zero
		{1_000_000, 1, 1},      // smallest rate
	}
	for _, tc := range cases {
		got := ReferralFee(big.NewInt(tc.price), tc.feePPM)
		assert.Equal(t, tc.want, got.Int64(), "fee(%d, %d)", tc.price, tc.feePPM)
	}
}
