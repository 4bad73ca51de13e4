package sheet

import (
	"bytes"
	"encoding/json"
)

// DetailItem is one labelled value in a detail row.
type DetailItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  Icon   `json:"icon,omitempty"`
}

// DetailItems accepts either a single item or an array on the wire and
// always holds a slice.
type DetailItems []DetailItem

func (d *DetailItems) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one DetailItem
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		*d = DetailItems{one}
		return nil
	}
	var many []DetailItem
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*d = many
	return nil
}

// DetailGroup is a named group of detail items. Groups keep payload order.
type DetailGroup struct {
	GroupKey string      `json:"groupKey"`
	Items    DetailItems `json:"items"`
}

// Header is the title block at the top of most sheets. Value may carry a
// raw timestamp that enrichment turns into relative time.
type Header struct {
	Label       string `json:"label"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        Icon   `json:"icon,omitempty"`
	Color       Color  `json:"color,omitempty"`
}

func (*Header) SectionType() SectionType { return SectionHeader }
func (*Header) applyDefaults() {}

type TitleWithDetailsCross struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Details     *DetailItem `json:"details,omitempty"`
}

func (*TitleWithDetailsCross) SectionType() SectionType { return SectionTitleWithDetailsCross }
func (*TitleWithDetailsCross) applyDefaults() {}

type TitleWithCheckbox struct {
	Title   string `json:"title"`
	Checked bool   `json:"checked"`
}

func (*TitleWithCheckbox) SectionType() SectionType { return SectionTitleWithCheckbox }
func (*TitleWithCheckbox) applyDefaults() {}

type IconTitleWithHeading struct {
	Icon    Icon   `json:"icon"`
	Title   string `json:"title"`
	Heading string `json:"heading,omitempty"`
}

func (*IconTitleWithHeading) SectionType() SectionType { return SectionIconTitleWithHeading }
func (*IconTitleWithHeading) applyDefaults() {}

// DetailGroups is the data of a "data" section.
type DetailGroups []DetailGroup

func (*DetailGroups) SectionType() SectionType { return SectionDetailRows }
func (*DetailGroups) applyDefaults() {}

type AccordionPanel struct {
	Title  string        `json:"title"`
	Open   bool          `json:"open"`
	Groups []DetailGroup `json:"groups"`
}

type DataAccordion []AccordionPanel

func (*DataAccordion) SectionType() SectionType { return SectionDetailAccordion }
func (*DataAccordion) applyDefaults() {}

type TableColumn struct {
	Label string `json:"label"`
	Key   string `json:"key"`
}

// Table rows are keyed by TableColumn.Key; columns fix the display order.
type Table struct {
	Title   string              `json:"title,omitempty"`
	Columns []TableColumn       `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

func (*Table) SectionType() SectionType { return SectionTable }
func (t *Table) applyDefaults() {
	if t.Rows == nil {
		t.Rows = []map[string]string{}
	}
}

type Product struct {
	Title       string `json:"title"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
	Quantity    string `json:"quantity,omitempty"`
	IsChecked   bool   `json:"isChecked"`
}

type ProductList struct {
	Title string    `json:"title,omitempty"`
	List  []Product `json:"list"`
}

func (*ProductList) SectionType() SectionType { return SectionProductList }
func (*ProductList) applyDefaults() {}

type ProductDetails struct {
	Name     string   `json:"name"`
	Image    string   `json:"image,omitempty"`
	Quantity float64  `json:"quantity"`
	Unit     Unit     `json:"unit"`
	Price    *float64 `json:"price,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Chamber  string   `json:"chamber,omitempty"`
}

func (*ProductDetails) SectionType() SectionType { return SectionProductDetails }

// Prices default to rupees.
func (d *ProductDetails) applyDefaults() {
	if d.Currency == "" {
		d.Currency = "INR"
	}
}

type ImageGallery struct {
	Title  string   `json:"title,omitempty"`
	Images []string `json:"images"`
}

func (*ImageGallery) SectionType() SectionType { return SectionImageGallery }
func (*ImageGallery) applyDefaults() {}

type ImageFullWidth struct {
	ImageURI string `json:"imageUri"`
	Title    string `json:"title,omitempty"`
}

func (*ImageFullWidth) SectionType() SectionType { return SectionImageFullWidth }
func (*ImageFullWidth) applyDefaults() {}

type FileUpload struct {
	Label         string `json:"label"`
	Title         string `json:"title,omitempty"`
	UploadedTitle string `json:"uploadedTitle,omitempty"`
	Required      bool   `json:"required"`
	MaxFiles      int    `json:"maxFiles"`
}

func (*FileUpload) SectionType() SectionType { return SectionFileUpload }
func (f *FileUpload) applyDefaults() {
	if f.MaxFiles == 0 {
		f.MaxFiles = 1
	}
}

type Select struct {
	Label       string    `json:"label"`
	Placeholder string    `json:"placeholder"`
	Options     []string  `json:"options"`
	Value       string    `json:"value,omitempty"`
	Alignment   Alignment `json:"alignment"`
	FormField   string    `json:"formField,omitempty"`
}

func (*Select) SectionType() SectionType { return SectionSelect }
func (s *Select) applyDefaults() {
	if s.Alignment == "" {
		s.Alignment = AlignFull
	}
}

type Input struct {
	Label        string       `json:"label,omitempty"`
	Placeholder  string       `json:"placeholder"`
	Value        string       `json:"value,omitempty"`
	KeyboardType KeyboardType `json:"keyboardType"`
	FormField    string       `json:"formField"`
	Required     bool         `json:"required"`
}

func (*Input) SectionType() SectionType { return SectionInput }
func (i *Input) applyDefaults() {
	if i.KeyboardType == "" {
		i.KeyboardType = KeyboardDefault
	}
}

type InputWithSelect struct {
	Label             string       `json:"label"`
	Placeholder       string       `json:"placeholder"`
	PlaceholderSecond string       `json:"placeholderSecond"`
	KeyboardType      KeyboardType `json:"keyboardType"`
	FormFieldInput    string       `json:"formFieldInput"`
	FormFieldSelect   string       `json:"formFieldSelect"`
	Options           []string     `json:"options"`
}

func (*InputWithSelect) SectionType() SectionType { return SectionInputWithSelect }
func (i *InputWithSelect) applyDefaults() {
	if i.KeyboardType == "" {
		i.KeyboardType = KeyboardNumber
	}
}

type Textarea struct {
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder"`
	Value       string `json:"value,omitempty"`
	FormField   string `json:"formField"`
}

func (*Textarea) SectionType() SectionType { return SectionTextarea }
func (*Textarea) applyDefaults() {}

type Search struct {
	Placeholder string `json:"placeholder"`
	SearchTerm  string `json:"searchTerm,omitempty"`
	SearchType  string `json:"searchType"`
}

func (*Search) SectionType() SectionType { return SectionSearch }
func (*Search) applyDefaults() {}

type ManageAction struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	Icon      Icon   `json:"icon,omitempty"`
	IsChecked bool   `json:"isChecked"`
}

// ManageActions is the data of a "manageAction" section.
type ManageActions []ManageAction

func (*ManageActions) SectionType() SectionType { return SectionManageAction }
func (*ManageActions) applyDefaults() {}

type PackageSize struct {
	Name      string  `json:"name"`
	Size      float64 `json:"size"`
	Unit      Unit    `json:"unit"`
	IsChecked bool    `json:"isChecked"`
	Icon      Icon    `json:"icon,omitempty"`
}

type PackageSizeChooseList struct {
	Title  string        `json:"title"`
	Source string        `json:"source"`
	List   []PackageSize `json:"list"`
}

func (*PackageSizeChooseList) SectionType() SectionType { return SectionPackageSizeChooseList }
func (p *PackageSizeChooseList) applyDefaults() {
	if p.Source == "" {
		p.Source = "add"
	}
}

type Option struct {
	Text      string `json:"text"`
	IsChecked bool   `json:"isChecked"`
}

type OptionList struct {
	IsCheckEnable bool     `json:"isCheckEnable"`
	Options       []Option `json:"options"`
}

func (*OptionList) SectionType() SectionType { return SectionOptionList }
func (*OptionList) applyDefaults() {}

type RadioOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Radio struct {
	Title    string        `json:"title"`
	Options  []RadioOption `json:"options"`
	Selected string        `json:"selected,omitempty"`
}

func (*Radio) SectionType() SectionType { return SectionRadio }
func (*Radio) applyDefaults() {}

type Checkbox struct {
	Label     string `json:"label"`
	Checked   bool   `json:"checked"`
	FormField string `json:"formField,omitempty"`
}

func (*Checkbox) SectionType() SectionType { return SectionCheckbox }
func (*Checkbox) applyDefaults() {}

type Calendar struct {
	Label     string `json:"label"`
	FormField string `json:"formField"`
	Value     string `json:"value,omitempty"`
	MinDate   string `json:"minDate,omitempty"`
	MaxDate   string `json:"maxDate,omitempty"`
}

func (*Calendar) SectionType() SectionType { return SectionCalendar }
func (*Calendar) applyDefaults() {}

type Chamber struct {
	Name     string  `json:"name"`
	Capacity float64 `json:"capacity"`
	Occupied float64 `json:"occupied"`
	Unit     Unit    `json:"unit"`
}

type ChamberList struct {
	List []Chamber `json:"list"`
}

func (*ChamberList) SectionType() SectionType { return SectionChamberList }
func (*ChamberList) applyDefaults() {}

type Country struct {
	Name      string `json:"name"`
	Code      string `json:"code"`
	Icon      Icon   `json:"icon,omitempty"`
	IsChecked bool   `json:"isChecked"`
}

type CountryList struct {
	List []Country `json:"list"`
}

func (*CountryList) SectionType() SectionType { return SectionCountryList }
func (*CountryList) applyDefaults() {}

type Contractor struct {
	Name        string `json:"name"`
	LabourCount int    `json:"labourCount"`
	Location    string `json:"location,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type ContractorList struct {
	List []Contractor `json:"list"`
}

func (*ContractorList) SectionType() SectionType { return SectionContractorList }
func (*ContractorList) applyDefaults() {}

type SummaryLine struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Emphasis bool   `json:"emphasis"`
}

type Summary []SummaryLine

func (*Summary) SectionType() SectionType { return SectionSummary }
func (*Summary) applyDefaults() {}

type Alert struct {
	Text  string `json:"text"`
	Color Color  `json:"color"`
}

func (*Alert) SectionType() SectionType { return SectionAlert }
func (*Alert) applyDefaults() {}

type EmptyState struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

func (*EmptyState) SectionType() SectionType { return SectionEmptyState }
func (*EmptyState) applyDefaults() {}

type Divider struct {
	Spacing string `json:"spacing"`
}

func (*Divider) SectionType() SectionType { return SectionDivider }
func (d *Divider) applyDefaults() {
	if d.Spacing == "" {
		d.Spacing = "small"
	}
}

type PriceInput struct {
	Label     string   `json:"label"`
	Currency  string   `json:"currency"`
	FormField string   `json:"formField"`
	Value     *float64 `json:"value,omitempty"`
}

func (*PriceInput) SectionType() SectionType { return SectionPriceInput }
func (*PriceInput) applyDefaults() {}

type PackageLine struct {
	Size     float64 `json:"size"`
	Unit     Unit    `json:"unit"`
	Quantity int     `json:"quantity"`
}

type AddProductPackage struct {
	Title    string        `json:"title"`
	Packages []PackageLine `json:"packages"`
}

func (*AddProductPackage) SectionType() SectionType { return SectionAddProductPackage }
func (*AddProductPackage) applyDefaults() {}

type RatingSummary struct {
	Rating float64 `json:"rating"`
	Label  string  `json:"label,omitempty"`
}

func (*RatingSummary) SectionType() SectionType { return SectionRatingSummary }
func (*RatingSummary) applyDefaults() {}

type TimelineStep struct {
	Label  string `json:"label"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

type Timeline []TimelineStep

func (*Timeline) SectionType() SectionType { return SectionTimeline }
func (*Timeline) applyDefaults() {}

type Location struct {
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

func (*Location) SectionType() SectionType { return SectionLocation }
func (*Location) applyDefaults() {}
