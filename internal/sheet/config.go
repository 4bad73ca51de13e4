package sheet

import "encoding/json"

// Button is a footer control. ActionKey is attached after validation and is
// never read from the payload.
type Button struct {
	Text      string        `json:"text"`
	Variant   ButtonVariant `json:"variant"`
	Color     Color         `json:"color"`
	Alignment Alignment     `json:"alignment"`
	Disabled  bool          `json:"disabled,omitempty"`
	ActionKey ActionKey     `json:"actionKey,omitempty"`
}

// Payload is the body of a sheet as delivered by the static table, an
// override, the cache, or a fetch.
type Payload struct {
	Sections []Section `json:"sections"`
	Buttons  []Button  `json:"buttons,omitempty"`
}

// Meta is the ambient context of an open sheet. Renderers use it to make
// selection decisions without fetching again.
type Meta struct {
	ID            string          `json:"id"`
	Kind          Kind            `json:"kind"`
	Mode          string          `json:"mode,omitempty"`
	MainSelection string          `json:"mainSelection,omitempty"`
	SubSelection  string          `json:"subSelection,omitempty"`
	Color         Color           `json:"color,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// Config is a validated, enriched sheet ready for rendering. At most one is
// live at a time.
type Config struct {
	Sections []Section `json:"sections"`
	Buttons  []Button  `json:"buttons,omitempty"`
	Meta     Meta      `json:"meta"`
}

// Button returns the button carrying the given action key.
func (c *Config) Button(key ActionKey) (Button, bool) {
	for _, b := range c.Buttons {
		if b.ActionKey == key {
			return b, true
		}
	}
	return Button{}, false
}

// SectionsOf returns the sections with the given tag in payload order.
func (c *Config) SectionsOf(t SectionType) []Section {
	var out []Section
	for _, s := range c.Sections {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}
