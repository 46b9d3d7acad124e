package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFoldName(t *testing.T) {
	assert.Equal(t, "nguyen", FoldName("Nguyễn"))
	assert.Equal(t, "dung", FoldName("Dũng"))
	assert.Equal(t, "dat", FoldName("Đạt"))
	assert.Equal(t, "maryanne", FoldName("Mary Anne"))
}

func TestBaseUsername(t *testing.T) {
	assert.Equal(t, "binhnv", BaseUsername("Bình", "Nguyễn Văn"))
	assert.Equal(t, "anht", BaseUsername("Anh", "  Trần "))
	assert.Equal(t, "thanhhoangd", BaseUsername("Thanh Hoang", "Đỗ"))
}

func TestDisambiguateUsername(t *testing.T) {
	tests := []struct {
		name  string
		taken []string
		want  string
	}{
		{"free", nil, "binhnv"},
		{"base taken", []string{"binhnv"}, "binhnv1"},
		{"max suffix plus one", []string{"binhnv", "binhnv1", "binhnv7"}, "binhnv8"},
		{"longer names ignored", []string{"binhnva", "binhnv01"}, "binhnv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisambiguateUsername("binhnv", tt.taken))
		})
	}
}

func TestDefaultPassword(t *testing.T) {
	dob := time.Date(1995, 7, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "binhnv@03071995", DefaultPassword("binhnv", dob))
}
