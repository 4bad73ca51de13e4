// cmd/sheetcheck checks that the sheet catalogue is consistent: every static
// payload validates for its kind, every allowed section tag has a renderer,
// and every kind's action keys line up with the buttons it may show.
//
// Extra payloads can be checked by passing directories of <kind>.json files:
//
//	sheetcheck internal/schema/testdata
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/oddiville/sheets/internal/actions"
	"github.com/oddiville/sheets/internal/payload"
	"github.com/oddiville/sheets/internal/render"
	"github.com/oddiville/sheets/internal/schema"
	"github.com/oddiville/sheets/internal/sheet"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("sheetcheck: ")

	registry, err := schema.New()
	if err != nil {
		log.Fatalf("compiling sheet schemas: %v", err)
	}

	fmt.Println("Phase 1: Checking catalogue coverage...")
	problems := checkCatalogue(registry)
	report(problems)

	fmt.Println("Phase 2: Validating payloads...")
	found, err := checkPayloads(context.Background(), registry, os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	report(found)
	problems = append(problems, found...)

	if len(problems) > 0 {
		fmt.Printf("\nsheetcheck: %d problem(s) found\n", len(problems))
		os.Exit(1)
	}
	fmt.Println("\nsheetcheck: OK, no drift detected")
}

func report(problems []string) {
	if len(problems) == 0 {
		fmt.Println("  OK")
		return
	}
	for _, p := range problems {
		fmt.Println("  " + p)
	}
}

// checkCatalogue compares the registry against the renderer table and the
// action key table.
func checkCatalogue(registry *schema.Registry) []string {
	var problems []string
	for _, kind := range registry.Kinds() {
		def, err := registry.Lookup(kind)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		for _, t := range def.Sections {
			if _, ok := render.Table[t]; !ok {
				problems = append(problems, fmt.Sprintf("%s: section %q has no renderer", kind, t))
			}
		}
		keys := actions.For(kind)
		switch {
		case def.Buttons && len(keys) == 0:
			problems = append(problems, fmt.Sprintf("%s: allows buttons but has no action keys", kind))
		case !def.Buttons && len(keys) > 0:
			problems = append(problems, fmt.Sprintf("%s: has action keys %v but allows no buttons", kind, keys))
		}
	}
	for _, t := range sheet.AllSectionTypes {
		if _, ok := render.Table[t]; !ok {
			problems = append(problems, fmt.Sprintf("section %q has no renderer", t))
		}
	}
	return problems
}

type source struct {
	name string
	kind sheet.Kind
	load func() ([]byte, error)
}

// checkPayloads validates every static payload plus every <kind>.json file
// in dirs. I/O errors abort; invalid payloads are reported as problems.
func checkPayloads(ctx context.Context, registry *schema.Registry, dirs []string) ([]string, error) {
	var sources []source
	for _, kind := range payload.StaticKinds() {
		sources = append(sources, source{
			name: "static/" + string(kind),
			kind: kind,
			load: func() ([]byte, error) {
				b, _ := payload.Static(kind)
				return b, nil
			},
		})
	}
	for _, dir := range dirs {
		files, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no payloads in %s", dir)
		}
		for _, f := range files {
			sources = append(sources, source{
				name: f,
				kind: sheet.Kind(strings.TrimSuffix(filepath.Base(f), ".json")),
				load: func() ([]byte, error) { return os.ReadFile(f) },
			})
		}
	}

	var (
		mu       sync.Mutex
		problems []string
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := src.load()
			if err != nil {
				return fmt.Errorf("reading %s: %w", src.name, err)
			}
			found := checkPayload(registry, src.kind, raw)
			mu.Lock()
			defer mu.Unlock()
			for _, p := range found {
				problems = append(problems, src.name+": "+p)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(problems)
	return problems, nil
}

func checkPayload(registry *schema.Registry, kind sheet.Kind, raw []byte) []string {
	p, err := registry.Validate(kind, raw)
	if err != nil {
		return []string{err.Error()}
	}
	var problems []string
	buttons, err := actions.Attach(kind, p.Buttons)
	if err != nil {
		problems = append(problems, err.Error())
	}
	cfg := &sheet.Config{Sections: p.Sections, Buttons: buttons, Meta: sheet.Meta{ID: "sheetcheck", Kind: kind}}
	for _, n := range render.Sheet(cfg, nil).Children {
		if n.Component == "Unsupported" {
			problems = append(problems, fmt.Sprintf("section %v rendered as unsupported", n.Props["type"]))
		}
	}
	return problems
}
