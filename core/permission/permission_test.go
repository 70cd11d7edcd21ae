package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilityKnown(t *testing.T) {
	for _, cap := range AllCapabilities {
		if !cap.Known() {
			t.Errorf("Known() = false for %s", cap)
		}
	}
	assert.False(t, Capability("can_fly").Known())
	assert.False(t, Capability("").Known())
}

func TestDefaults(t *testing.T) {
	assert.True(t, Default(CapViewReports))
	assert.False(t, Default(CapRegisterStudents))
	assert.False(t, Default(CapInputScores))
	assert.False(t, Default("can_fly"))

	// Defaults() hands out copies
	d := Defaults()
	d[CapRegisterStudents] = true
	assert.False(t, Default(CapRegisterStudents))
}

func TestSetClone(t *testing.T) {
	assert.Nil(t, Set(nil).Clone())

	orig := Set{CapInputScores: true}
	clone := orig.Clone()
	clone[CapInputScores] = false
	assert.True(t, orig[CapInputScores])
}

func TestSetKnownOnly(t *testing.T) {
	s := Set{CapInputScores: true, "can_fly": true}
	assert.Equal(t, Set{CapInputScores: true}, s.KnownOnly())
	assert.Nil(t, Set(nil).KnownOnly())
}
