package state

import (
	"context"
	"log"
)

// LogHandler logs every slot event for observability.
type LogHandler struct{}

func NewLogHandler() *LogHandler { return &LogHandler{} }

func (h *LogHandler) HandleEvent(_ context.Context, evt Event) error {
	switch evt.Type {
	case EventSheet:
		sections, buttons := 0, 0
		if evt.Config != nil {
			sections, buttons = len(evt.Config.Sections), len(evt.Config.Buttons)
		}
		log.Printf("state: v%d sheet %s opened (%d sections, %d buttons)", evt.Version, evt.Kind, sections, buttons)
	case EventAction:
		log.Printf("state: v%d action %s on %s", evt.Version, evt.Action, evt.Kind)
	default:
		log.Printf("state: v%d %s %s", evt.Version, evt.Type, evt.Kind)
	}
	return nil
}
