package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page, size int
		wantOffset int
		wantLimit  int
	}{
		{name: "defaults", page: 0, size: 0, wantOffset: 0, wantLimit: DefaultPageSize},
		{name: "first page", page: 1, size: 12, wantOffset: 0, wantLimit: 12},
		{name: "third page", page: 3, size: 10, wantOffset: 20, wantLimit: 10},
		{name: "oversized limit clamped", page: 1, size: 500, wantOffset: 0, wantLimit: DefaultPageSize},
		{name: "negative page", page: -2, size: 5, wantOffset: 0, wantLimit: 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
	assert.Equal(t, 7, ParseIntDefault("abc", 7))
}

func TestPages(t *testing.T) {
	t.Parallel()

	assert.EqualValues(t, 0, Pages(0, 12))
	assert.EqualValues(t, 1, Pages(12, 12))
	assert.EqualValues(t, 2, Pages(13, 12))
	assert.EqualValues(t, 3, Pages(5, 2))
	assert.EqualValues(t, 0, Pages(5, 0))
}
