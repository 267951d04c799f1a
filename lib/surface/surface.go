// Package surface abstracts the destination platform's interactive UI.
// The replay session issues element-level commands against it without
// knowing how they are carried out; the webform subpackage implements
// it over HTTP, surfacetest implements it in memory for tests.
package surface

import (
	"context"
	"time"
)

// Locator identifies one control in the destination's layout. Locators
// are destination-specific and live in configuration, not in code.
type Locator string

// LocatorTable maps each logical replay step to the destination
// locator it operates on. Changing the destination's markup should only
// require updating this table.
type LocatorTable struct {
	// login page
	LoginEmail    Locator `json:"login_email"`
	LoginPassword Locator `json:"login_password"`
	LoginSubmit   Locator `json:"login_submit"`

	// post list page
	AddPostButton Locator `json:"add_post_button"`

	// post form
	PublishedToggle  Locator `json:"published_toggle"`
	SourceModeButton Locator `json:"source_mode_button"`
	TitleField       Locator `json:"title_field"`
	ContentField     Locator `json:"content_field"`
	ContentConfirm   Locator `json:"content_confirm"`
	AuthorSelect     Locator `json:"author_select"`
	TagOptions       Locator `json:"tag_options"`
	PostURLField     Locator `json:"post_url_field"`
	SaveButton       Locator `json:"save_button"`

	// date/time picker
	DateField    Locator `json:"date_field"`
	MonthSelect  Locator `json:"month_select"`
	YearField    Locator `json:"year_field"`
	CalendarDays Locator `json:"calendar_days"`
	HourField    Locator `json:"hour_field"`
	MinuteField  Locator `json:"minute_field"`
	PickerDone   Locator `json:"picker_done"`
}

// Element is a handle to one located control.
type Element interface {
	Click(ctx context.Context) error
	// Type clears the control and enters text.
	Type(ctx context.Context, text string) error
	// SelectByLabel selects the option with the given visible label,
	// matched case-sensitively. Returns an element_not_found Error if
	// no option carries the label.
	SelectByLabel(ctx context.Context, label string) error
	SelectByValue(ctx context.Context, value string) error
	// OptionLabels returns the visible labels of a select control's
	// options.
	OptionLabels(ctx context.Context) ([]string, error)
	// Label returns the element's rendered label, preferring an
	// aria-label over its text content.
	Label(ctx context.Context) (string, error)
	// Value returns the control's current value.
	Value(ctx context.Context) (string, error)
}

// Surface is one context commands are issued against: the top-level
// page, or a nested overlay obtained from SwitchToActiveChild.
type Surface interface {
	FindElement(ctx context.Context, locator Locator) (Element, error)
	FindElements(ctx context.Context, locator Locator) ([]Element, error)
	// WaitUntilInteractive blocks until the surface is ready to accept
	// commands, or returns a timeout Error once the ceiling elapses.
	WaitUntilInteractive(ctx context.Context, timeout time.Duration) error
	// SwitchToActiveChild returns a handle scoped to the overlay that
	// currently holds focus, e.g. the post form after "add post" or
	// the date picker panel after opening the date field.
	SwitchToActiveChild(ctx context.Context) (Surface, error)
}
