package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtCapacity(t *testing.T) {
	tests := []struct {
		name           string
		confirmedCount int
		memberMaxSizes []int
		want           bool
	}{
		{"room for everyone", 3, []int{10, 8, 6}, false},
		{"smallest limit reached", 4, []int{10, 8, 4}, true},
		{"exactly at another member's cap", 5, []int{5, 10}, true},
		{"single founder with room", 1, []int{2}, false},
		{"single founder at cap", 2, []int{2}, true},
		{"no members", 0, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AtCapacity(tt.confirmedCount, tt.memberMaxSizes))
		})
	}
}
