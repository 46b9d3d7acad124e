package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextAssetCode(t *testing.T) {
	tests := []struct {
		name string
		last string
		want string
	}{
		{"first code", "", "LA000001"},
		{"increment", "LA000041", "LA000042"},
		{"carry", "LA000099", "LA000100"},
		{"malformed suffix", "LA-bad", "LA000001"},
		{"prefix only", "LA", "LA000001"},
		{"other prefix", "MO000010", "LA000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextAssetCode("LA", tt.last))
		})
	}
}

func TestNextStaffCode(t *testing.T) {
	assert.Equal(t, "SD0001", NextStaffCode(""))
	assert.Equal(t, "SD0010", NextStaffCode("SD0009"))
}

func TestNextCode_Overflow(t *testing.T) {
	assert.Equal(t, "LA1000000", NextAssetCode("LA", "LA999999"))
	assert.Equal(t, "SD10000", NextStaffCode("SD9999"))
	assert.Equal(t, "SD10001", NextStaffCode("SD10000"))
}
