package actions

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddiville/sheets/internal/schema"
	"github.com/oddiville/sheets/internal/sheet"
)

func buttons(n int) []sheet.Button {
	out := make([]sheet.Button, n)
	for i := range out {
		out[i] = sheet.Button{Text: "b", Variant: sheet.VariantFill, Color: sheet.ColorGreen, Alignment: sheet.AlignFull}
	}
	return out
}

func TestFor_UpcomingOrder(t *testing.T) {
	assert.Equal(t,
		[]sheet.ActionKey{sheet.ActionShipOrder, sheet.ActionEditOrder, sheet.ActionCancelOrder},
		For(sheet.KindUpcomingOrder))
}

func TestFor_MatchesButtonPolicy(t *testing.T) {
	for _, d := range schema.Definitions {
		keys := For(d.Kind)
		if d.Buttons {
			assert.NotEmpty(t, keys, "%s allows buttons but has no action keys", d.Kind)
		} else {
			assert.Empty(t, keys, "%s has action keys but no buttons", d.Kind)
		}
	}
}

func TestFor_UnknownKind(t *testing.T) {
	assert.Empty(t, For("invoice"))
}

func TestAttach_UpcomingOrder(t *testing.T) {
	got, err := Attach(sheet.KindUpcomingOrder, buttons(3))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, sheet.ActionShipOrder, got[0].ActionKey)
	assert.Equal(t, sheet.ActionEditOrder, got[1].ActionKey)
	assert.Equal(t, sheet.ActionCancelOrder, got[2].ActionKey)
}

func TestAttach_DoesNotMutateInput(t *testing.T) {
	in := buttons(2)
	_, err := Attach(sheet.KindOrderReady, in)
	require.NoError(t, err)
	for _, b := range in {
		assert.Empty(t, b.ActionKey)
	}
}

func TestAttach_TooManyButtons(t *testing.T) {
	_, err := Attach(sheet.KindAddPackage, buttons(2))
	assert.ErrorIs(t, err, ErrActionMismatch)

	_, err = Attach(sheet.KindRating, buttons(1))
	assert.ErrorIs(t, err, ErrActionMismatch)
}

func TestAttach_NoButtons(t *testing.T) {
	got, err := Attach(sheet.KindRating, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAttach_PrefixProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	kinds := make([]interface{}, len(sheet.AllKinds))
	for i, k := range sheet.AllKinds {
		kinds[i] = k
	}

	properties.Property("button i carries key i, or attach fails when buttons outnumber keys", prop.ForAll(
		func(kind sheet.Kind, n int) bool {
			keys := For(kind)
			got, err := Attach(kind, buttons(n))
			if n > len(keys) {
				return err != nil
			}
			if err != nil || len(got) != n {
				return false
			}
			for i := range got {
				if got[i].ActionKey != keys[i] {
					return false
				}
			}
			return true
		},
		gen.OneConstOf(kinds...),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}
