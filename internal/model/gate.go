package model

import "strings"

// Evidence is the payload held by a toggle gate. Present reports whether the
// payload is complete enough to satisfy an enabled gate.
type Evidence interface {
	Present() bool
}

// PhotoRef is a photo URL or data URI. The empty string means no photo.
type PhotoRef string

func (p PhotoRef) Present() bool { return strings.TrimSpace(string(p)) != "" }

// Text is a free-text payload such as a model number.
type Text string

func (t Text) Present() bool { return strings.TrimSpace(string(t)) != "" }

// SerialEvidence pairs a serial number with the photo that proves it.
type SerialEvidence struct {
	Number string   `json:"number"`
	Photo  PhotoRef `json:"photo"`
}

func (s SerialEvidence) Present() bool {
	return strings.TrimSpace(s.Number) != "" && s.Photo.Present()
}

// Gate is a conditional block of a form: when Enabled, Payload must be set
// and present.
type Gate[T Evidence] struct {
	Enabled bool `json:"enabled"`
	Payload *T   `json:"payload,omitempty"`
}

// Satisfied is the only rule a gate has.
func (g Gate[T]) Satisfied() bool {
	if !g.Enabled {
		return true
	}
	return g.Payload != nil && (*g.Payload).Present()
}

// Set stores v as the payload.
func (g *Gate[T]) Set(v T) {
	g.Payload = &v
}

// Clear drops the payload but keeps the toggle.
func (g *Gate[T]) Clear() {
	g.Payload = nil
}

// Value returns the payload or the zero value.
func (g Gate[T]) Value() T {
	var zero T
	if g.Payload == nil {
		return zero
	}
	return *g.Payload
}

// Enabled builds an enabled gate holding payload.
func Enabled[T Evidence](payload T) Gate[T] {
	return Gate[T]{Enabled: true, Payload: &payload}
}

// Toggle builds a gate with the given state and no payload.
func Toggle[T Evidence](on bool) Gate[T] {
	return Gate[T]{Enabled: on}
}
