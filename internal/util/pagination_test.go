package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		page, size         int
		wantOffset, wantLi int
	}{
		{1, 10, 0, 10},
		{3, 10, 20, 10},
		{0, 0, 0, DefaultPageSize},
		{-2, 500, 0, DefaultPageSize},
		{2, 100, 100, 100},
	}
	for _, tc := range cases {
		off, lim := Calculate(tc.page, tc.size)
		assert.Equal(t, tc.wantOffset, off)
		assert.Equal(t, tc.wantLi, lim)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 3, TotalPages(21, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("7", 1))
	assert.Equal(t, 1, ParseIntDefault("x", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))

	assert.True(t, *ParseBool("true"))
	assert.False(t, *ParseBool("false"))
	assert.Nil(t, ParseBool("yes"))
}
