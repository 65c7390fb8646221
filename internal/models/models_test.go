package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWinRate(t *testing.T) {
	tests := []struct {
		name   string
		played uint
		wins   uint
		want   float64
	}{
		{"no games played", 0, 0, 0},
		{"all wins", 10, 10, 100},
		{"even split", 4, 2, 50},
		{"rounds to two decimals", 3, 1, 33.33},
		{"rounds up", 3, 2, 66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := UserProfile{GamesPlayed: tt.played, Wins: tt.wins}
			assert.Equal(t, tt.want, p.WinRate())
		})
	}
}

func TestTagList(t *testing.T) {
	assert.Nil(t, (&Guide{}).TagList())
	assert.Equal(t, []string{"fleet", "opening"}, (&Guide{Tags: "fleet, opening"}).TagList())
	assert.Equal(t, []string{"solo"}, (&Guide{Tags: " solo , ,"}).TagList())
}

func TestValidCategory(t *testing.T) {
	for _, ok := range []string{"beginner", "strategy", "advanced", "character", "equipment", "team", "other"} {
		assert.True(t, ValidCategory(ok), ok)
	}
	for _, bad := range []string{"", "all", "Strategy", "speedrun"} {
		assert.False(t, ValidCategory(bad), bad)
	}
}
