package sheet

// Icon names the closed set of glyphs a payload may reference. Values
// outside this set are rejected by validation, never substituted.
type Icon string

const (
	IconCalendar  Icon = "calendar"
	IconBox       Icon = "box"
	IconLocation  Icon = "location"
	IconUser      Icon = "user"
	IconPhone     Icon = "phone"
	IconChamber   Icon = "chamber"
	IconPackage   Icon = "package"
	IconTruck     Icon = "truck"
	IconMoney     Icon = "money"
	IconWeight    Icon = "weight"
	IconClock     Icon = "clock"
	IconNote      Icon = "note"
	IconTag       Icon = "tag"
	IconFactory   Icon = "factory"
	IconWarehouse Icon = "warehouse"
	IconStar      Icon = "star"
	IconPaperRoll Icon = "paper-roll"
	IconCheck     Icon = "check"
	IconCross     Icon = "cross"
)

// Color is the closed palette shared by headers, alerts and buttons.
type Color string

const (
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorYellow Color = "yellow"
	ColorGray   Color = "gray"
)

// Unit is a weight unit.
type Unit string

const (
	UnitGram     Unit = "gm"
	UnitKilogram Unit = "kg"
	UnitTon      Unit = "ton"
)

// KeyboardType selects the on-screen keyboard of an input.
type KeyboardType string

const (
	KeyboardDefault KeyboardType = "default"
	KeyboardNumber  KeyboardType = "number-pad"
	KeyboardPhone   KeyboardType = "phone-pad"
	KeyboardEmail   KeyboardType = "email-address"
)

// ButtonVariant is the visual weight of a button.
type ButtonVariant string

const (
	VariantOutline ButtonVariant = "outline"
	VariantFill    ButtonVariant = "fill"
	VariantGhost   ButtonVariant = "ghost"
)

// Alignment places a button (or a select) in the sheet's footer grid.
type Alignment string

const (
	AlignFull  Alignment = "full"
	AlignHalf  Alignment = "half"
	AlignLeft  Alignment = "left"
	AlignRight Alignment = "right"
)
