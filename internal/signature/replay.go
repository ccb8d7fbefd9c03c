package signature

import "fmt"

type EventKind string

const (
	EventDown  EventKind = "down"
	EventMove  EventKind = "move"
	EventUp    EventKind = "up"
	EventLeave EventKind = "leave"
	EventClear EventKind = "clear"
)

// Event is one recorded browser event. Touch events carry Touches; mouse and
// pointer events carry ClientX/ClientY.
type Event struct {
	Kind    EventKind `json:"kind"`
	ClientX float64   `json:"clientX"`
	ClientY float64   `json:"clientY"`
	Touches []Touch   `json:"touches,omitempty"`
}

func (e Event) input() Input {
	if e.Touches != nil {
		return TouchInput{Touches: e.Touches}
	}
	return PointerInput{ClientX: e.ClientX, ClientY: e.ClientY}
}

// Replay drives the pad through a recorded event sequence. Leaving the surface
// ends the stroke the same way releasing does.
func (p *Pad) Replay(bounds Bounds, events []Event) error {
	for i, e := range events {
		switch e.Kind {
		case EventDown:
			if pt, ok := Locate(e.input(), bounds); ok {
				p.BeginStroke(pt)
			}
		case EventMove:
			if pt, ok := Locate(e.input(), bounds); ok {
				p.ExtendStroke(pt)
			}
		case EventUp, EventLeave:
			if err := p.EndStroke(); err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
		case EventClear:
			p.Clear()
		default:
			return fmt.Errorf("event %d: unknown kind %q", i, e.Kind)
		}
	}
	return nil
}
