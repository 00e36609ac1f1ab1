package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabel_Valid(t *testing.T) {
	for _, l := range AllLabels() {
		assert.True(t, l.Valid(), "label %s", l)
	}
	for _, bad := range []Label{"", "A4", "a0", "B1", "unknown"} {
		assert.False(t, bad.Valid(), "label %q", bad)
	}
}

func TestSentinels(t *testing.T) {
	pe := SentinelParseError(3)
	assert.Equal(t, LabelA0, pe.Label)
	assert.Equal(t, 0.0, pe.Confidence)
	assert.Equal(t, RationaleParseError, pe.Rationale)
	assert.Equal(t, 3, pe.OriginalIndex)

	cf := SentinelContentFiltered(5)
	assert.Equal(t, LabelA2, cf.Label)
	assert.Equal(t, 0.8, cf.Confidence)
	assert.Equal(t, RationaleContentFiltered, cf.Rationale)

	fl := SentinelFailed(7, "Failed after 3 attempts")
	assert.Equal(t, LabelA0, fl.Label)
	assert.Equal(t, 0.0, fl.Confidence)
	assert.Equal(t, "Failed after 3 attempts", fl.Rationale)
}

func TestRow_Reviewed(t *testing.T) {
	assert.False(t, Row{}.Reviewed())
	assert.True(t, Row{HumanLabel: "A1"}.Reviewed())
}

func TestRow_EffectiveLabel(t *testing.T) {
	assert.Equal(t, "A2", Row{Label: "A2"}.EffectiveLabel())
	assert.Equal(t, "A3", Row{Label: "A2", HumanLabel: "A3"}.EffectiveLabel())
}
