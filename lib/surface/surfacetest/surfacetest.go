// Package surfacetest provides an in-memory scripted surface for
// exercising replay logic without a destination platform.
package surfacetest

import (
	"context"
	"slices"
	"time"

	"blogmigrate/lib/surface"
)

type Element struct {
	// LabelText is returned by Label.
	LabelText string
	// Options are the visible labels SelectByLabel matches against.
	Options []string
	// ValueText is returned by Value.
	ValueText string

	// scripted failures
	ClickErr error
	TypeErr  error

	// recorded interactions
	Clicks   int
	Typed    []string
	Selected []string
}

func (e *Element) Click(ctx context.Context) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	return nil
}

func (e *Element) Type(ctx context.Context, text string) error {
	if e.TypeErr != nil {
		return e.TypeErr
	}
	e.Typed = append(e.Typed, text)
	return nil
}

func (e *Element) SelectByLabel(ctx context.Context, label string) error {
	if !slices.Contains(e.Options, label) {
		return surface.NotFound("")
	}
	e.Selected = append(e.Selected, label)
	return nil
}

func (e *Element) SelectByValue(ctx context.Context, value string) error {
	e.Selected = append(e.Selected, value)
	return nil
}

func (e *Element) OptionLabels(ctx context.Context) ([]string, error) {
	return e.Options, nil
}

func (e *Element) Label(ctx context.Context) (string, error) {
	return e.LabelText, nil
}

func (e *Element) Value(ctx context.Context) (string, error) {
	return e.ValueText, nil
}

type Surface struct {
	Elements map[surface.Locator]*Element
	Lists    map[surface.Locator][]*Element
	// Child is returned by SwitchToActiveChild; nil means the surface
	// is its own active child.
	Child *Surface

	WaitErr error
	Waits   []time.Duration
}

func New() *Surface {
	return &Surface{
		Elements: map[surface.Locator]*Element{},
		Lists:    map[surface.Locator][]*Element{},
	}
}

// Add registers an element under locator and returns it for scripting.
func (s *Surface) Add(locator surface.Locator) *Element {
	e := &Element{}
	s.Elements[locator] = e
	return e
}

func (s *Surface) FindElement(ctx context.Context, locator surface.Locator) (surface.Element, error) {
	e, ok := s.Elements[locator]
	if !ok {
		return nil, surface.NotFound(locator)
	}
	return e, nil
}

func (s *Surface) FindElements(ctx context.Context, locator surface.Locator) ([]surface.Element, error) {
	list, ok := s.Lists[locator]
	if !ok {
		return nil, nil
	}
	out := make([]surface.Element, len(list))
	for i, e := range list {
		out[i] = e
	}
	return out, nil
}

func (s *Surface) WaitUntilInteractive(ctx context.Context, timeout time.Duration) error {
	s.Waits = append(s.Waits, timeout)
	return s.WaitErr
}

func (s *Surface) SwitchToActiveChild(ctx context.Context) (surface.Surface, error) {
	if s.Child != nil {
		return s.Child, nil
	}
	return s, nil
}
