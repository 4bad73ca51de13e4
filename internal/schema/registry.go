// Package schema provides the sheet schema registry: the section shapes
// every tag must satisfy, and the combination of sections and buttons that
// is legal for each sheet kind.
//
// Section shapes live in sections.cue and are evaluated with CUE. The
// per-kind table below scopes which tags may appear in which sheet, so a
// payload written for one kind cannot silently satisfy another.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"runtime"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/oddiville/sheets/internal/sheet"
)

//go:embed sections.cue
var sectionsCUE string

// ErrUnknownKind is returned when a kind has no registry entry.
var ErrUnknownKind = errors.New("unknown sheet kind")

// Definition scopes one sheet kind.
type Definition struct {
	Kind     sheet.Kind
	Sections []sheet.SectionType
	Buttons  bool
}

// Allows reports whether a section tag is legal for this kind.
func (d *Definition) Allows(t sheet.SectionType) bool {
	for _, s := range d.Sections {
		if s == t {
			return true
		}
	}
	return false
}

// Definitions is the sheet catalogue.
var Definitions = []Definition{
	// === Orders & dispatch ===
	{
		Kind: sheet.KindOrderReady,
		Sections: []sheet.SectionType{
			sheet.SectionHeader, sheet.SectionDetailRows, sheet.SectionProductList,
			sheet.SectionTimeline, sheet.SectionSummary,
		},
		Buttons: true,
	},
	{
		Kind: sheet.KindUpcomingOrder,
		Sections: []sheet.SectionType{
			sheet.SectionHeader, sheet.SectionDetailRows, sheet.SectionTable,
			sheet.SectionProductList, sheet.SectionSummary, sheet.SectionTimeline,
		},
		Buttons: true,
	},
	{
		Kind: sheet.KindOrderShipped,
		Sections: []sheet.SectionType{
			sheet.SectionHeader, sheet.SectionDetailRows, sheet.SectionTimeline,
			sheet.SectionProductList, sheet.SectionImageGallery,
		},
		Buttons: true,
	},
	{
		Kind: sheet.KindDispatchDetails,
		Sections: []sheet.SectionType{
			sheet.SectionHeader, sheet.SectionIconTitleWithHeading, sheet.SectionDetailRows,
			sheet.SectionDetailAccordion, sheet.SectionImageGallery, sheet.SectionLocation,
			sheet.SectionTimeline, sheet.SectionTextarea,
		},
		Buttons: true,
	},

	// === Packaging ===
	{
		Kind: sheet.KindAddPackage,
		Sections: []sheet.SectionType{
			sheet.SectionTitleWithDetailsCross, sheet.SectionInput, sheet.SectionSelect,
			sheet.SectionFileUpload,
		},
		Buttons: true,
	},
	{
		Kind: sheet.KindChoosePackage,
		Sections: []sheet.SectionType{
			sheet.SectionTitleWithDetailsCross, sheet.SectionPackageSizeChooseList, sheet.SectionDivider,
		},
		Buttons: true,
	},
	{
		Kind: sheet.KindAddProductPackage,
		Sections: []sheet.SectionType{
			sheet.SectionTitleWithDetailsCross, sheet.SectionAddProductPackage,
			sheet.SectionInputWithSelect, sheet.SectionCheckbox,
		},
		Buttons: true,
	},
	{
		Kind: sheet.KindSelectPackaging,
		Sections: []sheet.SectionType{
			sheet.SectionTitleWithCheckbox, sheet.SectionOptionList, sheet.SectionTitleWithDetailsCross,
		},
		Buttons: true,
	},

	// === Pickers ===
	{
		Kind: sheet.KindCountry,
		Sections: []sheet.SectionType{
			sheet.SectionTitleWithDetailsCross, sheet.SectionSearch, sheet.SectionCountryList,
		},
	},
	{
		Kind:     sheet.KindRating,
		Sections: []sheet.SectionType{sheet.SectionManageAction},
	},

	// === Raw material ===
	{
		Kind: sheet.KindAddRawMaterial,
		Sections: []sheet.SectionType{
			sheet.SectionTitleWithDetailsCross, sheet.SectionSearch, sheet.SectionProductList,
			sheet.SectionOptionList,
		},
		Buttons: true,
	},
	{
		Kind: sheet.KindRawMaterialOrder,
		Sections: []sheet.SectionType{
			sheet.SectionHeader, sheet.SectionDetailRows, sheet.SectionProductDetails,
			sheet.SectionPriceInput, sheet.SectionCalendar, sheet.SectionSelect,
		},
		Buttons: true,
	},
	{
		Kind: sheet.KindRawMaterialReception,
		Sections: []sheet.SectionType{
			sheet.SectionHeader, sheet.SectionDetailRows, sheet.SectionInput,
			sheet.SectionFileUpload, sheet.SectionRatingSummary,
		},
		Buttons: true,
	},

	// === Chambers & production ===
	{
		Kind: sheet.KindChamberSummary,
		Sections: []sheet.SectionType{
			sheet.SectionHeader, sheet.SectionChamberList, sheet.SectionSummary,
			sheet.SectionDetailAccordion,
		},
	},
	{
		Kind: sheet.KindChooseChamber,
		Sections: []sheet.SectionType{
			sheet.SectionTitleWithDetailsCross, sheet.SectionSearch, sheet.SectionChamberList,
			sheet.SectionOptionList,
		},
		Buttons: true,
	},
	{
		Kind: sheet.KindProductionStart,
		Sections: []sheet.SectionType{
			sheet.SectionHeader, sheet.SectionDetailRows, sheet.SectionProductDetails,
			sheet.SectionSelect, sheet.SectionInput, sheet.SectionChamberList,
		},
		Buttons: true,
	},
	{
		Kind: sheet.KindProductionComplete,
		Sections: []sheet.SectionType{
			sheet.SectionHeader, sheet.SectionDetailRows, sheet.SectionInput,
			sheet.SectionImageFullWidth,
		},
		Buttons: true,
	},

	// === Labour ===
	{
		Kind: sheet.KindAddContractor,
		Sections: []sheet.SectionType{
			sheet.SectionTitleWithDetailsCross, sheet.SectionInput, sheet.SectionInputWithSelect,
			sheet.SectionSelect, sheet.SectionLocation,
		},
		Buttons: true,
	},
	{
		Kind: sheet.KindContractorSummary,
		Sections: []sheet.SectionType{
			sheet.SectionHeader, sheet.SectionContractorList, sheet.SectionSummary,
			sheet.SectionTable,
		},
		Buttons: true,
	},

	// === Exports ===
	{
		Kind: sheet.KindExportData,
		Sections: []sheet.SectionType{
			sheet.SectionTitleWithDetailsCross, sheet.SectionRadio, sheet.SectionCalendar,
			sheet.SectionCheckbox, sheet.SectionAlert,
		},
		Buttons: true,
	},
	{
		Kind:     sheet.KindNoData,
		Sections: []sheet.SectionType{sheet.SectionEmptyState},
	},
}

// Registry resolves sheet kinds to their definitions and validates payloads.
// It is safe for concurrent use.
type Registry struct {
	defs  map[sheet.Kind]*Definition
	order []sheet.Kind

	// Idle evaluators. Each one is used by a single Validate at a time.
	pool chan *evaluator
	// maxChecks retires an evaluator after that many checked documents.
	maxChecks int
}

// evaluatorChecks bounds how many documents one CUE context compiles
// before it is dropped. A context keeps every value compiled into it.
const evaluatorChecks = 256

// evaluator owns one CUE context and the schema values looked up from it.
type evaluator struct {
	ctx      *cue.Context
	sections map[sheet.SectionType]cue.Value
	button   cue.Value
	checks   int
}

func newEvaluator() (*evaluator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(sectionsCUE, cue.Filename("sections.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compiling section schemas: %w", err)
	}

	e := &evaluator{
		ctx:      ctx,
		sections: make(map[sheet.SectionType]cue.Value, len(sheet.AllSectionTypes)),
	}
	all := root.LookupPath(cue.ParsePath("#Sections"))
	for _, t := range sheet.AllSectionTypes {
		v := all.LookupPath(cue.MakePath(cue.Str(string(t))))
		if !v.Exists() {
			return nil, fmt.Errorf("no schema for section type %q", t)
		}
		e.sections[t] = v
	}

	e.button = root.LookupPath(cue.ParsePath("#Button"))
	if !e.button.Exists() {
		return nil, errors.New("no schema for buttons")
	}
	return e, nil
}

// New compiles the embedded section schemas and indexes Definitions. It
// fails if any section tag lacks a schema.
func New() (*Registry, error) {
	e, err := newEvaluator()
	if err != nil {
		return nil, err
	}

	r := &Registry{
		defs:      make(map[sheet.Kind]*Definition, len(Definitions)),
		pool:      make(chan *evaluator, runtime.GOMAXPROCS(0)),
		maxChecks: evaluatorChecks,
	}
	r.pool <- e

	for i := range Definitions {
		d := &Definitions[i]
		if _, dup := r.defs[d.Kind]; dup {
			return nil, fmt.Errorf("duplicate definition for kind %q", d.Kind)
		}
		r.defs[d.Kind] = d
		r.order = append(r.order, d.Kind)
	}
	return r, nil
}

// acquire takes an idle evaluator or compiles a fresh one.
func (r *Registry) acquire() (*evaluator, error) {
	select {
	case e := <-r.pool:
		return e, nil
	default:
		return newEvaluator()
	}
}

// release returns e to the pool unless it is worn out or the pool is full.
func (r *Registry) release(e *evaluator) {
	if e.checks >= r.maxChecks {
		return
	}
	select {
	case r.pool <- e:
	default:
	}
}

// MustNew is New for package-level wiring; it panics on a broken schema.
func MustNew() *Registry {
	r, err := New()
	if err != nil {
		panic("schema: " + err.Error())
	}
	return r
}

// Lookup returns the definition of a kind.
func (r *Registry) Lookup(kind sheet.Kind) (*Definition, error) {
	d, ok := r.defs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return d, nil
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind sheet.Kind) bool {
	_, ok := r.defs[kind]
	return ok
}

// Kinds returns the registered kinds in catalogue order.
func (r *Registry) Kinds() []sheet.Kind {
	return r.order
}
