// Package payload holds the locally authored sheet payloads. These sheets
// open without a network round-trip but go through the same validation as
// fetched ones.
package payload

import (
	"embed"
	"path"
	"sort"
	"strings"

	"github.com/oddiville/sheets/internal/sheet"
)

//go:embed static/*.json
var staticFS embed.FS

// staticKinds is built once from the embedded file names.
var staticKinds = func() []sheet.Kind {
	entries, err := staticFS.ReadDir("static")
	if err != nil {
		panic("payload: reading embedded static payloads: " + err.Error())
	}
	kinds := make([]sheet.Kind, 0, len(entries))
	for _, e := range entries {
		kinds = append(kinds, sheet.Kind(strings.TrimSuffix(e.Name(), ".json")))
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}()

// Static returns the locally authored payload for kind, if any.
func Static(kind sheet.Kind) ([]byte, bool) {
	b, err := staticFS.ReadFile(path.Join("static", string(kind)+".json"))
	if err != nil {
		return nil, false
	}
	return b, true
}

// StaticKinds lists the kinds that have a local payload.
func StaticKinds() []sheet.Kind {
	out := make([]sheet.Kind, len(staticKinds))
	copy(out, staticKinds)
	return out
}
