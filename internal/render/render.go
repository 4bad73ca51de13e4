// Package render turns a published sheet into the view tree the mobile
// client draws. Each section tag has one renderer in Table; the client owns
// the presentational components the nodes name.
package render

import (
	"log"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/oddiville/sheets/internal/sheet"
)

// Node is one element of the view tree.
type Node struct {
	Component string         `json:"component"`
	Key       string         `json:"key,omitempty"`
	Props     map[string]any `json:"props,omitempty"`
	Children  []Node         `json:"children,omitempty"`
}

// DefaultColor is the accent used when the sheet names none.
const DefaultColor = sheet.ColorGreen

// Env carries what renderers need besides the section itself.
type Env struct {
	Meta    sheet.Meta
	Printer *message.Printer
	// Color is the sheet's accent, applied by sections without a color of
	// their own.
	Color sheet.Color
	// OnClose is the action close controls trigger. Empty hides them.
	OnClose sheet.ActionKey
}

// NewEnv builds an Env for meta that formats numbers for lang. The accent
// comes from meta and close controls dismiss the sheet.
func NewEnv(meta sheet.Meta, lang language.Tag) *Env {
	color := meta.Color
	if color == "" {
		color = DefaultColor
	}
	return &Env{
		Meta:    meta,
		Printer: message.NewPrinter(lang),
		Color:   color,
		OnClose: sheet.ActionCloseSheet,
	}
}

func (e *Env) printer() *message.Printer {
	if e.Printer == nil {
		e.Printer = message.NewPrinter(language.English)
	}
	return e.Printer
}

// Func renders one section.
type Func func(s sheet.Section, env *Env) Node

// For returns the renderer for tag, or Fallback.
func For(tag sheet.SectionType) Func {
	if f, ok := Table[tag]; ok {
		return f
	}
	return Fallback
}

// Fallback renders a section whose tag has no renderer as an inert
// placeholder.
func Fallback(s sheet.Section, _ *Env) Node {
	log.Printf("render: no renderer for section type %q", s.Type)
	return Node{Component: "Unsupported", Props: map[string]any{"type": string(s.Type)}}
}

// Sheet renders cfg: one node per section in payload order, then a footer
// holding the buttons.
func Sheet(cfg *sheet.Config, env *Env) Node {
	if env == nil {
		env = NewEnv(cfg.Meta, language.English)
	}
	root := Node{
		Component: "BottomSheet",
		Key:       cfg.Meta.ID,
		Props: map[string]any{
			"kind": string(cfg.Meta.Kind),
		},
	}
	if cfg.Meta.Mode != "" {
		root.Props["mode"] = cfg.Meta.Mode
	}
	if env.Color != "" {
		root.Props["color"] = string(env.Color)
	}
	if env.OnClose != "" {
		root.Props["onClose"] = string(env.OnClose)
	}
	for i, s := range cfg.Sections {
		n := For(s.Type)(s, env)
		n.Key = sectionKey(s.Type, i)
		root.Children = append(root.Children, n)
	}
	if len(cfg.Buttons) > 0 {
		footer := Node{Component: "Footer", Key: "footer"}
		for _, b := range cfg.Buttons {
			footer.Children = append(footer.Children, button(b))
		}
		root.Children = append(root.Children, footer)
	}
	return root
}

func button(b sheet.Button) Node {
	return Node{
		Component: "Button",
		Key:       string(b.ActionKey),
		Props: map[string]any{
			"text":      b.Text,
			"variant":   string(b.Variant),
			"color":     string(b.Color),
			"alignment": string(b.Alignment),
			"disabled":  b.Disabled,
			"onPress":   string(b.ActionKey),
		},
	}
}

func sectionKey(t sheet.SectionType, i int) string {
	return string(t) + "-" + strconv.Itoa(i)
}
