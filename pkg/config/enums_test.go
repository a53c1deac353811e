package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplexityIsValid(t *testing.T) {
	tests := []struct {
		name  string
		c     Complexity
		valid bool
	}{
		{"simple", ComplexitySimple, true},
		{"medium", ComplexityMedium, true},
		{"complex", ComplexityComplex, true},
		{"invalid", Complexity("extreme"), false},
		{"empty", Complexity(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.c.IsValid())
		})
	}
}

func TestValidationLevelOrdering(t *testing.T) {
	levels := AllValidationLevels
	assert.Equal(t, LevelSyntax, levels[0])
	assert.True(t, LevelSyntax.Blocking())
	for _, lvl := range levels[1:] {
		assert.False(t, lvl.Blocking())
	}
}

func TestValidationLevelIsValid(t *testing.T) {
	assert.True(t, LevelImports.IsValid())
	assert.False(t, ValidationLevel("unknown").IsValid())
}

func TestIntegrationStrictnessIsValid(t *testing.T) {
	assert.True(t, IntegrationNameOnly.IsValid())
	assert.True(t, IntegrationNameAndArity.IsValid())
	assert.False(t, IntegrationStrictness("partial").IsValid())
}
