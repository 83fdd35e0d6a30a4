package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	t.Run("parses wei-scale values", func(t *testing.T) {
		a, err := ParseAmount("100000000000000000000")
		require.NoError(t, err)
		assert.Equal(t, "100000000000000000000", a.String())
	})

	t.Run("rejects negative values", func(t *testing.T) {
		_, err := ParseAmount("-1")
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseAmount("1.5")
		assert.Error(t, err)
		_, err = ParseAmount("")
		assert.Error(t, err)
	})
}

func TestAmountArithmetic(t *testing.T) {
	t.Run("add and compare", func(t *testing.T) {
		a := NewAmount(40)
		b := NewAmount(60)
		sum := a.Add(b)
		assert.True(t, sum.Equal(NewAmount(100)))
		assert.Equal(t, 1, sum.Cmp(a))
		assert.Equal(t, -1, a.Cmp(b))
	})

	t.Run("zero value is usable", func(t *testing.T) {
		var a Amount
		assert.True(t, a.IsZero())
		assert.Equal(t, "0", a.String())
		assert.True(t, a.Add(NewAmount(5)).Equal(NewAmount(5)))
	})

	t.Run("sub panics on underflow", func(t *testing.T) {
		assert.Panics(t, func() {
			NewAmount(1).Sub(NewAmount(2))
		})
	})

	t.Run("sum folds a milestone schedule", func(t *testing.T) {
		total := SumAmounts([]Amount{NewAmount(40), NewAmount(60)})
		assert.True(t, total.Equal(NewAmount(100)))
	})
}

func TestAmountJSON(t *testing.T) {
	t.Run("encodes as decimal string", func(t *testing.T) {
		data, err := json.Marshal(NewAmount(42))
		require.NoError(t, err)
		assert.Equal(t, `"42"`, string(data))
	})

	t.Run("decodes 18-decimal values intact", func(t *testing.T) {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(`"123456789012345678901234567890"`), &a))
		assert.Equal(t, "123456789012345678901234567890", a.String())
	})

	t.Run("rejects negative input", func(t *testing.T) {
		var a Amount
		assert.Error(t, json.Unmarshal([]byte(`"-5"`), &a))
	})
}
