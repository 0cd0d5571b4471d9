package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidation(t *testing.T) {
	valid := func() *Validation {
		return NewValidation("v-1", "ins-1", "agent-1", SignalConfirmed, "saw the same behavior", time.Now().UTC())
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateValidation(valid()))
	})

	t.Run("all signals accepted", func(t *testing.T) {
		for _, signal := range []ValidationSignal{SignalConfirmed, SignalContradicted, SignalRefined} {
			v := valid()
			v.Signal = signal
			assert.NoError(t, ValidateValidation(v))
		}
	})

	t.Run("unknown signal rejected", func(t *testing.T) {
		v := valid()
		v.Signal = "endorsed"
		assert.ErrorIs(t, ValidateValidation(v), ErrInvalidValidationSignal)
	})

	t.Run("context too long", func(t *testing.T) {
		v := valid()
		v.Context = strings.Repeat("x", MaxValidationContextChars+1)

		err := ValidateValidation(v)
		require.Error(t, err)

		var domainErr *DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, ErrCodeValidation, domainErr.Code)
	})

	t.Run("missing references", func(t *testing.T) {
		v := valid()
		v.InsightID = ""
		assert.Error(t, ValidateValidation(v))

		v = valid()
		v.AgentID = ""
		assert.Error(t, ValidateValidation(v))
	})
}

func TestValidationSummaryTotal(t *testing.T) {
	assert.Zero(t, ValidationSummary{}.Total())
	assert.Equal(t, 6, ValidationSummary{Confirmed: 3, Contradicted: 1, Refined: 2}.Total())
}
