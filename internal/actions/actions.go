// Package actions maps sheet kinds to the semantic commands their footer
// buttons trigger. Keys pair with buttons by position.
package actions

import (
	"errors"
	"fmt"

	"github.com/oddiville/sheets/internal/sheet"
)

// ErrActionMismatch is returned when a payload carries more buttons than its
// kind has action keys.
var ErrActionMismatch = errors.New("more buttons than action keys")

// For returns the ordered action keys for kind. Kinds without buttons, and
// unknown kinds, have none.
func For(kind sheet.Kind) []sheet.ActionKey {
	switch kind {
	// === Orders & dispatch ===
	case sheet.KindOrderReady:
		return []sheet.ActionKey{sheet.ActionDispatchOrder, sheet.ActionEditOrder}
	case sheet.KindUpcomingOrder:
		return []sheet.ActionKey{sheet.ActionShipOrder, sheet.ActionEditOrder, sheet.ActionCancelOrder}
	case sheet.KindOrderShipped:
		return []sheet.ActionKey{sheet.ActionMarkDelivered, sheet.ActionTrackOrder}
	case sheet.KindDispatchDetails:
		return []sheet.ActionKey{sheet.ActionTrackOrder, sheet.ActionPrintInvoice}

	// === Packaging ===
	case sheet.KindAddPackage:
		return []sheet.ActionKey{sheet.ActionAddPackage}
	case sheet.KindChoosePackage:
		return []sheet.ActionKey{sheet.ActionChoosePackage}
	case sheet.KindAddProductPackage:
		return []sheet.ActionKey{sheet.ActionSavePackage}
	case sheet.KindSelectPackaging:
		return []sheet.ActionKey{sheet.ActionConfirmPackaging}

	// === Raw material ===
	case sheet.KindAddRawMaterial:
		return []sheet.ActionKey{sheet.ActionAddRawMaterial}
	case sheet.KindRawMaterialOrder:
		return []sheet.ActionKey{sheet.ActionOrderRawMaterial}
	case sheet.KindRawMaterialReception:
		return []sheet.ActionKey{sheet.ActionReceiveMaterial, sheet.ActionRejectMaterial}

	// === Chambers & production ===
	case sheet.KindChooseChamber:
		return []sheet.ActionKey{sheet.ActionSelectChamber}
	case sheet.KindProductionStart:
		return []sheet.ActionKey{sheet.ActionStartProduction}
	case sheet.KindProductionComplete:
		return []sheet.ActionKey{sheet.ActionCompleteProduction}

	// === Labour ===
	case sheet.KindAddContractor:
		return []sheet.ActionKey{sheet.ActionAddContractor}
	case sheet.KindContractorSummary:
		return []sheet.ActionKey{sheet.ActionEditContractor, sheet.ActionRemoveContractor}

	// === Exports ===
	case sheet.KindExportData:
		return []sheet.ActionKey{sheet.ActionExportData}

	case sheet.KindCountry, sheet.KindRating, sheet.KindChamberSummary, sheet.KindNoData:
		return nil
	default:
		return nil
	}
}

// Attach returns a copy of buttons with action keys set by position. Fewer
// buttons than keys take a prefix of the keys.
func Attach(kind sheet.Kind, buttons []sheet.Button) ([]sheet.Button, error) {
	if len(buttons) == 0 {
		return nil, nil
	}
	keys := For(kind)
	if len(buttons) > len(keys) {
		return nil, fmt.Errorf("%w: %s has %d buttons and %d keys", ErrActionMismatch, kind, len(buttons), len(keys))
	}
	out := make([]sheet.Button, len(buttons))
	for i, b := range buttons {
		b.ActionKey = keys[i]
		out[i] = b
	}
	return out, nil
}
