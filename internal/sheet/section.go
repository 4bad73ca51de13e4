package sheet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// SectionType is the discriminator tag of a section.
type SectionType string

const (
	SectionHeader                SectionType = "header"
	SectionTitleWithDetailsCross SectionType = "title-with-details-cross"
	SectionTitleWithCheckbox     SectionType = "title-with-checkbox"
	SectionIconTitleWithHeading  SectionType = "icon-title-with-heading"
	SectionDetailRows            SectionType = "data"
	SectionDetailAccordion       SectionType = "data-accordion"
	SectionTable                 SectionType = "table"
	SectionProductList           SectionType = "productList"
	SectionProductDetails        SectionType = "productDetails"
	SectionImageGallery          SectionType = "image-gallery"
	SectionImageFullWidth        SectionType = "image-full-width"
	SectionFileUpload            SectionType = "file-upload"
	SectionSelect                SectionType = "select"
	SectionInput                 SectionType = "input"
	SectionInputWithSelect       SectionType = "input-with-select"
	SectionTextarea              SectionType = "textarea"
	SectionSearch                SectionType = "search"
	SectionManageAction          SectionType = "manageAction"
	SectionPackageSizeChooseList SectionType = "package-size-choose-list"
	SectionOptionList            SectionType = "optionList"
	SectionRadio                 SectionType = "radio"
	SectionCheckbox              SectionType = "checkbox"
	SectionCalendar              SectionType = "calendar"
	SectionChamberList           SectionType = "chamber-list"
	SectionCountryList           SectionType = "country-list"
	SectionContractorList        SectionType = "contractor-list"
	SectionSummary               SectionType = "summary"
	SectionAlert                 SectionType = "alert"
	SectionEmptyState            SectionType = "empty-state"
	SectionDivider               SectionType = "divider"
	SectionPriceInput            SectionType = "price-input"
	SectionAddProductPackage     SectionType = "add-product-package"
	SectionRatingSummary         SectionType = "rating-summary"
	SectionTimeline              SectionType = "timeline"
	SectionLocation              SectionType = "location"
)

// AllSectionTypes is the closed set of section tags.
var AllSectionTypes = []SectionType{
	SectionHeader,
	SectionTitleWithDetailsCross,
	SectionTitleWithCheckbox,
	SectionIconTitleWithHeading,
	SectionDetailRows,
	SectionDetailAccordion,
	SectionTable,
	SectionProductList,
	SectionProductDetails,
	SectionImageGallery,
	SectionImageFullWidth,
	SectionFileUpload,
	SectionSelect,
	SectionInput,
	SectionInputWithSelect,
	SectionTextarea,
	SectionSearch,
	SectionManageAction,
	SectionPackageSizeChooseList,
	SectionOptionList,
	SectionRadio,
	SectionCheckbox,
	SectionCalendar,
	SectionChamberList,
	SectionCountryList,
	SectionContractorList,
	SectionSummary,
	SectionAlert,
	SectionEmptyState,
	SectionDivider,
	SectionPriceInput,
	SectionAddProductPackage,
	SectionRatingSummary,
	SectionTimeline,
	SectionLocation,
}

// ErrUnknownSectionType is returned when a section carries a tag outside
// AllSectionTypes.
var ErrUnknownSectionType = errors.New("unknown section type")

// SectionData is the tag-specific payload of a section. It is implemented
// only by the types in this package.
type SectionData interface {
	SectionType() SectionType
	applyDefaults()
}

// NewSectionData returns an empty value for the given tag, ready to be
// decoded into.
func NewSectionData(t SectionType) (SectionData, error) {
	switch t {
	case SectionHeader:
		return &Header{}, nil
	case SectionTitleWithDetailsCross:
		return &TitleWithDetailsCross{}, nil
	case SectionTitleWithCheckbox:
		return &TitleWithCheckbox{}, nil
	case SectionIconTitleWithHeading:
		return &IconTitleWithHeading{}, nil
	case SectionDetailRows:
		return &DetailGroups{}, nil
	case SectionDetailAccordion:
		return &DataAccordion{}, nil
	case SectionTable:
		return &Table{}, nil
	case SectionProductList:
		return &ProductList{}, nil
	case SectionProductDetails:
		return &ProductDetails{}, nil
	case SectionImageGallery:
		return &ImageGallery{}, nil
	case SectionImageFullWidth:
		return &ImageFullWidth{}, nil
	case SectionFileUpload:
		return &FileUpload{}, nil
	case SectionSelect:
		return &Select{}, nil
	case SectionInput:
		return &Input{}, nil
	case SectionInputWithSelect:
		return &InputWithSelect{}, nil
	case SectionTextarea:
		return &Textarea{}, nil
	case SectionSearch:
		return &Search{}, nil
	case SectionManageAction:
		return &ManageActions{}, nil
	case SectionPackageSizeChooseList:
		return &PackageSizeChooseList{}, nil
	case SectionOptionList:
		return &OptionList{}, nil
	case SectionRadio:
		return &Radio{}, nil
	case SectionCheckbox:
		return &Checkbox{}, nil
	case SectionCalendar:
		return &Calendar{}, nil
	case SectionChamberList:
		return &ChamberList{}, nil
	case SectionCountryList:
		return &CountryList{}, nil
	case SectionContractorList:
		return &ContractorList{}, nil
	case SectionSummary:
		return &Summary{}, nil
	case SectionAlert:
		return &Alert{}, nil
	case SectionEmptyState:
		return &EmptyState{}, nil
	case SectionDivider:
		return &Divider{}, nil
	case SectionPriceInput:
		return &PriceInput{}, nil
	case SectionAddProductPackage:
		return &AddProductPackage{}, nil
	case SectionRatingSummary:
		return &RatingSummary{}, nil
	case SectionTimeline:
		return &Timeline{}, nil
	case SectionLocation:
		return &Location{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSectionType, t)
	}
}

// Section is one tagged unit of sheet content. Data's concrete type is
// determined by Type.
type Section struct {
	Type SectionType `json:"type"`
	Data SectionData `json:"data"`
}

// UnmarshalJSON decodes the data member into the type selected by the tag
// and applies defaults for optional fields.
func (s *Section) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type SectionType     `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data, err := NewSectionData(raw.Type)
	if err != nil {
		return err
	}
	if len(raw.Data) > 0 && !bytes.Equal(raw.Data, []byte("null")) {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			return fmt.Errorf("section %s: %w", raw.Type, err)
		}
	}
	data.applyDefaults()
	s.Type = raw.Type
	s.Data = data
	return nil
}
