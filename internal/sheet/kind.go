// Package sheet provides the Go types for bottom-sheet payloads: the closed
// set of section kinds, buttons, and the validated sheet configuration that
// is published to the client.
package sheet

// Kind identifies a bottom sheet. The set of kinds is closed; each kind owns
// the combination of sections and buttons that is legal for it.
type Kind string

const (
	KindOrderReady           Kind = "order-ready"
	KindUpcomingOrder        Kind = "upcoming-order"
	KindOrderShipped         Kind = "order-shipped"
	KindDispatchDetails      Kind = "dispatch-details"
	KindAddPackage           Kind = "add-package"
	KindChoosePackage        Kind = "choose-package"
	KindAddProductPackage    Kind = "add-product-package"
	KindSelectPackaging      Kind = "select-packaging"
	KindCountry              Kind = "country"
	KindRating               Kind = "rating"
	KindAddRawMaterial       Kind = "add-raw-material"
	KindRawMaterialOrder     Kind = "raw-material-order"
	KindRawMaterialReception Kind = "raw-material-reception"
	KindChamberSummary       Kind = "chamber-summary"
	KindChooseChamber        Kind = "choose-chamber"
	KindProductionStart      Kind = "production-start"
	KindProductionComplete   Kind = "production-complete"
	KindAddContractor        Kind = "add-contractor"
	KindContractorSummary    Kind = "contractor-summary"
	KindExportData           Kind = "export-data"
	KindNoData               Kind = "no-data"
)

// AllKinds lists every sheet kind in catalogue order.
var AllKinds = []Kind{
	KindOrderReady,
	KindUpcomingOrder,
	KindOrderShipped,
	KindDispatchDetails,
	KindAddPackage,
	KindChoosePackage,
	KindAddProductPackage,
	KindSelectPackaging,
	KindCountry,
	KindRating,
	KindAddRawMaterial,
	KindRawMaterialOrder,
	KindRawMaterialReception,
	KindChamberSummary,
	KindChooseChamber,
	KindProductionStart,
	KindProductionComplete,
	KindAddContractor,
	KindContractorSummary,
	KindExportData,
	KindNoData,
}

// ActionKey is the semantic command a button triggers when pressed. The host
// application's command dispatch consumes it.
type ActionKey string

const (
	ActionDispatchOrder      ActionKey = "dispatch-order"
	ActionShipOrder          ActionKey = "ship-order"
	ActionEditOrder          ActionKey = "edit-order"
	ActionCancelOrder        ActionKey = "cancel-order"
	ActionMarkDelivered      ActionKey = "mark-delivered"
	ActionTrackOrder         ActionKey = "track-order"
	ActionPrintInvoice       ActionKey = "print-invoice"
	ActionAddPackage         ActionKey = "add-package"
	ActionChoosePackage      ActionKey = "choose-package"
	ActionSavePackage        ActionKey = "save-package"
	ActionConfirmPackaging   ActionKey = "confirm-packaging"
	ActionAddRawMaterial     ActionKey = "add-raw-material"
	ActionOrderRawMaterial   ActionKey = "order-raw-material"
	ActionReceiveMaterial    ActionKey = "receive-material"
	ActionRejectMaterial     ActionKey = "reject-material"
	ActionSelectChamber      ActionKey = "select-chamber"
	ActionStartProduction    ActionKey = "start-production"
	ActionCompleteProduction ActionKey = "complete-production"
	ActionAddContractor      ActionKey = "add-contractor"
	ActionEditContractor     ActionKey = "edit-contractor"
	ActionRemoveContractor   ActionKey = "remove-contractor"
	ActionExportData         ActionKey = "export-data"

	// ActionCloseSheet dismisses the open sheet. Close controls carry it
	// instead of a button.
	ActionCloseSheet ActionKey = "close-sheet"
)
