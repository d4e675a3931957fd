package harden

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zjy-dev/ripe-tester/internal/cet"
)

func TestSet_NothingSelected(t *testing.T) {
	s := Set{}

	assert.Empty(t, s.Enabled())
	assert.Equal(t, "", s.HardenFlags())
	assert.Equal(t, "out", s.OutputName())
	assert.Equal(t, cet.None, s.CETMode(true))
}

func TestSet_FixedOrder(t *testing.T) {
	s := Set{"mshstk": true, "stkcan": true, "dforti": true}

	assert.Equal(t, "-fstack-protector-strong -DFORTIFY_SOURCE=3 -O2 -fcf-protection=return", s.HardenFlags())
	assert.Equal(t, "out-stkcan-dforti-mshstk", s.OutputName())
}

func TestSet_AllSelected(t *testing.T) {
	s := Set{}
	for _, f := range Flags {
		s[f.ID] = true
	}

	assert.Equal(t, "out-stkcan-stkcla-dforti-fcfpro-mshstk", s.OutputName())
	assert.Len(t, s.Enabled(), 5)
}

func TestSet_CETMode(t *testing.T) {
	tests := []struct {
		name     string
		set      Set
		hardware bool
		want     cet.Mode
	}{
		{"no cet flags", Set{"stkcan": true, "stkcla": true}, true, cet.None},
		{"fcfpro emulated", Set{"fcfpro": true}, false, cet.Emulated},
		{"fcfpro hardware", Set{"fcfpro": true}, true, cet.Hardware},
		{"mshstk emulated", Set{"mshstk": true}, false, cet.Emulated},
		{"mshstk hardware", Set{"stkcan": true, "mshstk": true}, true, cet.Hardware},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.set.CETMode(tt.hardware))
		})
	}
}

func TestSet_IgnoresUnknownIDs(t *testing.T) {
	s := Set{"bogus": true, "stkcla": true}
	assert.Equal(t, "-fstack-clash-protection", s.HardenFlags())
	assert.Equal(t, "out-stkcla", s.OutputName())
}
