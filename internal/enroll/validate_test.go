package enroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	got, ok := NormalizeName("  Ivan   Petrov  ")
	assert.True(t, ok)
	assert.Equal(t, "Ivan Petrov", got)

	got, ok = NormalizeName("Anna Maria van Dam")
	assert.True(t, ok)
	assert.Equal(t, "Anna Maria van Dam", got)

	_, ok = NormalizeName("Ivan")
	assert.False(t, ok)

	_, ok = NormalizeName("   ")
	assert.False(t, ok)
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("+7 900 123-45-67"))
	assert.True(t, ValidPhone("89001234567"))
	assert.True(t, ValidPhone("(495) 123 45 67"))

	assert.False(t, ValidPhone("12345"))
	assert.False(t, ValidPhone("call me maybe"))
	assert.False(t, ValidPhone("+7900abc4567"))
	assert.False(t, ValidPhone(""))
}

func TestKnownGroup(t *testing.T) {
	for _, g := range Groups {
		assert.True(t, KnownGroup(g))
	}
	assert.False(t, KnownGroup("15–17 years"))
}
