package odds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameTeam(t *testing.T) {
	assert.True(t, SameTeam("Atlético Mineiro", "  atletico   MINEIRO "))
	assert.True(t, SameTeam("Grêmio", "Gremio"))
	assert.False(t, SameTeam("Grêmio", "Gremio Novorizontino"))
}

func TestNameDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"flamengo", "CR Flamengo", 0},
		{"Brasileirao", "Brasileirão Série A", 0},
		{"Brazileirao", "Brasileirão Série A", 1},
		{"Palmeiras", "Palmeiras", 0},
		{"abc", "", 3},
		{"Bahia", "Vitória", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NameDistance(tt.a, tt.b), "%s / %s", tt.a, tt.b)
	}
}
