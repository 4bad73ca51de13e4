package render

import (
	"encoding/json"
	"math"

	"golang.org/x/text/number"

	"github.com/oddiville/sheets/internal/sheet"
)

// Table maps every section tag to its renderer.
var Table = map[sheet.SectionType]Func{
	sheet.SectionHeader:                renderHeader,
	sheet.SectionTitleWithDetailsCross: renderTitleWithCross,
	sheet.SectionTitleWithCheckbox:     accented("TitleWithCheckbox"),
	sheet.SectionIconTitleWithHeading:  leaf("IconTitleWithHeading"),
	sheet.SectionDetailRows:            renderDetailRows,
	sheet.SectionDetailAccordion:       renderAccordion,
	sheet.SectionTable:                 renderTable,
	sheet.SectionProductList:           renderProductList,
	sheet.SectionProductDetails:        renderProductDetails,
	sheet.SectionImageGallery:          leaf("ImageGallery"),
	sheet.SectionImageFullWidth:        leaf("ImageFullWidth"),
	sheet.SectionFileUpload:            leaf("FileUpload"),
	sheet.SectionSelect:                leaf("Select"),
	sheet.SectionInput:                 leaf("Input"),
	sheet.SectionInputWithSelect:       leaf("InputWithSelect"),
	sheet.SectionTextarea:              leaf("Textarea"),
	sheet.SectionSearch:                accented("Search"),
	sheet.SectionManageAction:          renderManageActions,
	sheet.SectionPackageSizeChooseList: renderPackageSizes,
	sheet.SectionOptionList:            renderOptionList,
	sheet.SectionRadio:                 renderRadio,
	sheet.SectionCheckbox:              accented("Checkbox"),
	sheet.SectionCalendar:              accented("Calendar"),
	sheet.SectionChamberList:           renderChamberList,
	sheet.SectionCountryList:           renderCountryList,
	sheet.SectionContractorList:        renderContractorList,
	sheet.SectionSummary:               renderSummary,
	sheet.SectionAlert:                 leaf("Alert"),
	sheet.SectionEmptyState:            leaf("EmptyState"),
	sheet.SectionDivider:               leaf("Divider"),
	sheet.SectionPriceInput:            renderPriceInput,
	sheet.SectionAddProductPackage:     renderAddProductPackage,
	sheet.SectionRatingSummary:         renderRatingSummary,
	sheet.SectionTimeline:              renderTimeline,
	sheet.SectionLocation:              leaf("Location"),
}

// leaf renders sections whose props are exactly their data fields.
func leaf(component string) Func {
	return func(s sheet.Section, _ *Env) Node {
		return Node{Component: component, Props: props(s.Data)}
	}
}

// accented is leaf plus the sheet's accent color.
func accented(component string) Func {
	return func(s sheet.Section, env *Env) Node {
		p := props(s.Data)
		if p == nil {
			p = map[string]any{}
		}
		if env.Color != "" {
			p["color"] = string(env.Color)
		}
		return Node{Component: component, Props: p}
	}
}

func props(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

// checked decides a list item's check state. A main selection in the
// sheet's meta replaces the payload's own flags.
func (e *Env) checked(flag bool, candidates ...string) bool {
	if e.Meta.MainSelection == "" {
		return flag
	}
	for _, c := range candidates {
		if c == e.Meta.MainSelection {
			return true
		}
	}
	return false
}

func (e *Env) quantity(v float64, unit sheet.Unit) string {
	return e.printer().Sprintf("%v %s", number.Decimal(v, number.MaxFractionDigits(2)), unit)
}

func (e *Env) price(v float64, currency string) string {
	return e.printer().Sprintf("%s %v", currency,
		number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// renderTitleWithCross draws the title row whose cross dismisses the sheet.
func renderTitleWithCross(s sheet.Section, env *Env) Node {
	n := accented("TitleWithDetailsCross")(s, env)
	p := n.Props
	p["closable"] = env.OnClose != ""
	if env.OnClose != "" {
		p["onClose"] = string(env.OnClose)
	}
	return n
}

func renderHeader(s sheet.Section, _ *Env) Node {
	h := s.Data.(*sheet.Header)
	return Node{Component: "Header", Props: map[string]any{
		"label":       h.Label,
		"value":       h.Value,
		"description": h.Description,
		"icon":        string(h.Icon),
		"color":       string(h.Color),
	}}
}

func detailGroup(g sheet.DetailGroup) Node {
	n := Node{Component: "DetailGroup", Key: g.GroupKey}
	for _, it := range g.Items {
		n.Children = append(n.Children, Node{Component: "DetailItem", Props: map[string]any{
			"label": it.Label,
			"value": it.Value,
			"icon":  string(it.Icon),
		}})
	}
	return n
}

func renderDetailRows(s sheet.Section, _ *Env) Node {
	n := Node{Component: "DetailRows"}
	for _, g := range *s.Data.(*sheet.DetailGroups) {
		n.Children = append(n.Children, detailGroup(g))
	}
	return n
}

func renderAccordion(s sheet.Section, _ *Env) Node {
	n := Node{Component: "Accordion"}
	for _, p := range *s.Data.(*sheet.DataAccordion) {
		panel := Node{Component: "AccordionPanel", Props: map[string]any{"title": p.Title, "open": p.Open}}
		for _, g := range p.Groups {
			panel.Children = append(panel.Children, detailGroup(g))
		}
		n.Children = append(n.Children, panel)
	}
	return n
}

func renderTable(s sheet.Section, _ *Env) Node {
	t := s.Data.(*sheet.Table)
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Label
	}
	n := Node{Component: "Table", Props: map[string]any{"title": t.Title, "columns": headers}}
	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = row[c.Key]
		}
		n.Children = append(n.Children, Node{Component: "TableRow", Props: map[string]any{"cells": cells}})
	}
	return n
}

func renderProductList(s sheet.Section, env *Env) Node {
	l := s.Data.(*sheet.ProductList)
	n := Node{Component: "ProductList", Props: map[string]any{"title": l.Title}}
	for _, p := range l.List {
		n.Children = append(n.Children, Node{Component: "ProductItem", Key: p.Title, Props: map[string]any{
			"title":       p.Title,
			"image":       p.Image,
			"description": p.Description,
			"quantity":    p.Quantity,
			"checked":     env.checked(p.IsChecked, p.Title),
		}})
	}
	return n
}

func renderProductDetails(s sheet.Section, env *Env) Node {
	d := s.Data.(*sheet.ProductDetails)
	p := map[string]any{
		"name":     d.Name,
		"image":    d.Image,
		"quantity": env.quantity(d.Quantity, d.Unit),
		"chamber":  d.Chamber,
	}
	if d.Price != nil {
		p["price"] = env.price(*d.Price, d.Currency)
	}
	return Node{Component: "ProductDetails", Props: p}
}

func renderManageActions(s sheet.Section, env *Env) Node {
	n := Node{Component: "ManageActionList"}
	for _, a := range *s.Data.(*sheet.ManageActions) {
		n.Children = append(n.Children, Node{Component: "ManageAction", Key: a.Value, Props: map[string]any{
			"label":   a.Label,
			"value":   a.Value,
			"icon":    string(a.Icon),
			"checked": env.checked(a.IsChecked, a.Value),
		}})
	}
	return n
}

func renderPackageSizes(s sheet.Section, env *Env) Node {
	l := s.Data.(*sheet.PackageSizeChooseList)
	n := Node{Component: "PackageSizeList", Props: map[string]any{"title": l.Title, "source": l.Source}}
	for _, p := range l.List {
		n.Children = append(n.Children, Node{Component: "PackageSize", Key: p.Name, Props: map[string]any{
			"name":    p.Name,
			"size":    env.quantity(p.Size, p.Unit),
			"icon":    string(p.Icon),
			"checked": env.checked(p.IsChecked, p.Name),
		}})
	}
	return n
}

func renderOptionList(s sheet.Section, env *Env) Node {
	l := s.Data.(*sheet.OptionList)
	n := Node{Component: "OptionList", Props: map[string]any{"checkable": l.IsCheckEnable}}
	for _, o := range l.Options {
		n.Children = append(n.Children, Node{Component: "Option", Key: o.Text, Props: map[string]any{
			"text":    o.Text,
			"checked": l.IsCheckEnable && env.checked(o.IsChecked, o.Text),
		}})
	}
	return n
}

func renderRadio(s sheet.Section, env *Env) Node {
	r := s.Data.(*sheet.Radio)
	sel := r.Selected
	if sel == "" {
		sel = env.Meta.MainSelection
	}
	n := Node{Component: "RadioGroup", Props: map[string]any{"title": r.Title, "selected": sel}}
	for _, o := range r.Options {
		n.Children = append(n.Children, Node{Component: "RadioOption", Key: o.Value, Props: map[string]any{
			"label":    o.Label,
			"value":    o.Value,
			"selected": o.Value == sel,
		}})
	}
	return n
}

func renderChamberList(s sheet.Section, env *Env) Node {
	n := Node{Component: "ChamberList"}
	for _, c := range s.Data.(*sheet.ChamberList).List {
		fill := 0.0
		if c.Capacity > 0 {
			fill = c.Occupied / c.Capacity
		}
		n.Children = append(n.Children, Node{Component: "Chamber", Key: c.Name, Props: map[string]any{
			"name":      c.Name,
			"capacity":  env.quantity(c.Capacity, c.Unit),
			"occupied":  env.quantity(c.Occupied, c.Unit),
			"occupancy": env.printer().Sprint(number.Percent(fill, number.MaxFractionDigits(0))),
			"checked":   env.checked(false, c.Name),
		}})
	}
	return n
}

func renderCountryList(s sheet.Section, env *Env) Node {
	n := Node{Component: "CountryList"}
	for _, c := range s.Data.(*sheet.CountryList).List {
		n.Children = append(n.Children, Node{Component: "Country", Key: c.Code, Props: map[string]any{
			"name":    c.Name,
			"code":    c.Code,
			"icon":    string(c.Icon),
			"checked": env.checked(c.IsChecked, c.Code, c.Name),
		}})
	}
	return n
}

func renderContractorList(s sheet.Section, env *Env) Node {
	n := Node{Component: "ContractorList"}
	for _, c := range s.Data.(*sheet.ContractorList).List {
		n.Children = append(n.Children, Node{Component: "Contractor", Key: c.Name, Props: map[string]any{
			"name":     c.Name,
			"labour":   env.printer().Sprintf("%d", c.LabourCount),
			"location": c.Location,
			"phone":    c.Phone,
		}})
	}
	return n
}

func renderSummary(s sheet.Section, _ *Env) Node {
	n := Node{Component: "Summary"}
	for _, l := range *s.Data.(*sheet.Summary) {
		n.Children = append(n.Children, Node{Component: "SummaryLine", Props: map[string]any{
			"label":    l.Label,
			"value":    l.Value,
			"emphasis": l.Emphasis,
		}})
	}
	return n
}

func renderPriceInput(s sheet.Section, env *Env) Node {
	p := s.Data.(*sheet.PriceInput)
	out := map[string]any{
		"label":     p.Label,
		"currency":  p.Currency,
		"formField": p.FormField,
	}
	if p.Value != nil {
		out["value"] = env.price(*p.Value, p.Currency)
	}
	return Node{Component: "PriceInput", Props: out}
}

func renderAddProductPackage(s sheet.Section, env *Env) Node {
	a := s.Data.(*sheet.AddProductPackage)
	n := Node{Component: "AddProductPackage", Props: map[string]any{"title": a.Title}}
	for _, p := range a.Packages {
		n.Children = append(n.Children, Node{Component: "PackageLine", Props: map[string]any{
			"size":     env.quantity(p.Size, p.Unit),
			"quantity": p.Quantity,
		}})
	}
	return n
}

func renderRatingSummary(s sheet.Section, env *Env) Node {
	r := s.Data.(*sheet.RatingSummary)
	return Node{Component: "RatingSummary", Props: map[string]any{
		"rating": env.printer().Sprint(number.Decimal(r.Rating, number.MinFractionDigits(1), number.MaxFractionDigits(1))),
		"stars":  int(math.Round(r.Rating)),
		"label":  r.Label,
	}}
}

func renderTimeline(s sheet.Section, _ *Env) Node {
	n := Node{Component: "Timeline"}
	for _, st := range *s.Data.(*sheet.Timeline) {
		n.Children = append(n.Children, Node{Component: "TimelineStep", Props: map[string]any{
			"label":  st.Label,
			"date":   st.Date,
			"status": st.Status,
		}})
	}
	return n
}
