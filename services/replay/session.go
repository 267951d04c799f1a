// Package replay drives the destination platform's post-creation
// workflow to recreate an extracted post record.
package replay

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"blogmigrate/lib/auditlog"
	"blogmigrate/lib/post"
	"blogmigrate/lib/surface"
	"blogmigrate/lib/timestamp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/replay")

// State names the replay session's position in the destination's
// order-dependent form workflow. Transitions are strictly forward; the
// only recovery path is a fresh session over the same record, and only
// while it has no destination url.
type State string

const (
	StateNotStarted       State = "NotStarted"
	StateFormOpened       State = "FormOpened"
	StateTitleSet         State = "TitleSet"
	StateContentSet       State = "ContentSet"
	StateAuthorResolved   State = "AuthorResolved"
	StateTagsApplied      State = "TagsApplied"
	StateDateTimeResolved State = "DateTimeResolved"
	StateSubmitted        State = "Submitted"
	StateCompleted        State = "Completed"
	StateFailed           State = "Failed"
)

// FailedError carries the state a replay was working toward when it
// failed, and the underlying cause.
type FailedError struct {
	State State
	Cause error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("replay failed during %s: %s", e.State, e.Cause.Error())
}

func (e *FailedError) Unwrap() error {
	return e.Cause
}

// RetrievalError means a record was handed to replay without ever
// completing extraction. This is a precondition violation, not a
// runtime condition to recover from.
type RetrievalError struct {
	Cause error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("record contains incomplete data, extract it before replaying: %s", e.Cause.Error())
}

func (e *RetrievalError) Unwrap() error {
	return e.Cause
}

const DefaultFallbackAuthor = "Editorial Team"
const defaultWaitTimeout = time.Second * 10

type SessionOptions struct {
	Surface  surface.Surface
	Locators surface.LocatorTable
	Audit    *auditlog.Log
	// FallbackAuthor is selected when the source author has no exact
	// match among the destination's options.
	FallbackAuthor string
	// WaitTimeout bounds every wait for the destination to become
	// interactive.
	WaitTimeout time.Duration
	// Now is the clock used to describe the date fallback; tests
	// override it.
	Now func() time.Time
}

// Session replays one post record into the destination's post-creation
// form. A session is single-use: it either completes or fails once.
type Session struct {
	opts  SessionOptions
	state State
}

func NewSession(opts SessionOptions) *Session {
	if opts.FallbackAuthor == "" {
		opts.FallbackAuthor = DefaultFallbackAuthor
	}
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = defaultWaitTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		opts:  opts,
		state: StateNotStarted,
	}
}

func (s *Session) State() State {
	return s.state
}

// Run drives the full workflow for record. On success the record's
// destination url is assigned and the session ends in Completed. On
// failure no destination url is assigned; the destination may be left
// holding a half-filled draft, which is accepted rather than cleaned
// up.
func (s *Session) Run(ctx context.Context, record *post.Record) error {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	if s.state != StateNotStarted {
		return fmt.Errorf("replay session already ran (state %s)", s.state)
	}
	if record.Migrated() {
		return fmt.Errorf(
			"record for %q was already migrated to %q, replaying it again would create a duplicate",
			record.SourceURL, record.DestinationURL(),
		)
	}
	if err := record.Validate(); err != nil {
		return &RetrievalError{Cause: err}
	}

	// the form opens in an overlay that becomes the focus target; the
	// handle is threaded explicitly through every later step
	form, err := s.openForm(ctx)
	if err != nil {
		return s.fail(StateFormOpened, err)
	}
	s.state = StateFormOpened

	if err := s.setTitle(ctx, form, record); err != nil {
		return s.fail(StateTitleSet, err)
	}
	s.state = StateTitleSet

	if err := s.setContent(ctx, form, record); err != nil {
		return s.fail(StateContentSet, err)
	}
	s.state = StateContentSet

	if err := s.resolveAuthor(ctx, form, record); err != nil {
		return s.fail(StateAuthorResolved, err)
	}
	s.state = StateAuthorResolved

	if err := s.applyTags(ctx, form, record); err != nil {
		return s.fail(StateTagsApplied, err)
	}
	s.state = StateTagsApplied

	if err := s.resolveDateTime(ctx, form, record); err != nil {
		return s.fail(StateDateTimeResolved, err)
	}
	s.state = StateDateTimeResolved

	if err := s.submit(ctx, form, record); err != nil {
		return s.fail(StateSubmitted, err)
	}
	s.state = StateCompleted
	return nil
}

func (s *Session) fail(state State, err error) error {
	s.state = StateFailed
	failure := &FailedError{State: state, Cause: err}
	if s.opts.Audit != nil {
		s.opts.Audit.Error(
			"replay failed",
			auditlog.Field{Key: "State", Value: string(state)},
			auditlog.Field{Key: "Cause", Value: err.Error()},
		)
	}
	return failure
}

// openForm clicks "add post", waits for the editor overlay, selects
// "Published" visibility and switches the content field into raw source
// mode before any text entry.
func (s *Session) openForm(ctx context.Context) (surface.Surface, error) {
	ctx, span := tracer.Start(ctx, "openForm")
	defer span.End()

	addPost, err := s.opts.Surface.FindElement(ctx, s.opts.Locators.AddPostButton)
	if err != nil {
		return nil, err
	}
	if err := addPost.Click(ctx); err != nil {
		return nil, err
	}

	form, err := s.opts.Surface.SwitchToActiveChild(ctx)
	if err != nil {
		return nil, err
	}
	if err := form.WaitUntilInteractive(ctx, s.opts.WaitTimeout); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "editor never became interactive")
		return nil, err
	}

	published, err := form.FindElement(ctx, s.opts.Locators.PublishedToggle)
	if err != nil {
		return nil, err
	}
	if err := published.Click(ctx); err != nil {
		return nil, err
	}

	// the body fragment is pre-rendered markup, not plain text
	sourceMode, err := form.FindElement(ctx, s.opts.Locators.SourceModeButton)
	if err != nil {
		return nil, err
	}
	if err := sourceMode.Click(ctx); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *Session) setTitle(ctx context.Context, form surface.Surface, record *post.Record) error {
	titleField, err := form.FindElement(ctx, s.opts.Locators.TitleField)
	if err != nil {
		return err
	}
	return titleField.Type(ctx, record.Title)
}

func (s *Session) setContent(ctx context.Context, form surface.Surface, record *post.Record) error {
	contentField, err := form.FindElement(ctx, s.opts.Locators.ContentField)
	if err != nil {
		return err
	}
	if err := contentField.Type(ctx, record.Body); err != nil {
		return err
	}

	// entering raw source pops a modal editor overlay to confirm
	confirm, err := form.FindElement(ctx, s.opts.Locators.ContentConfirm)
	if err != nil {
		return err
	}
	return confirm.Click(ctx)
}

// resolveAuthor always resolves to some label, exact or fallback.
func (s *Session) resolveAuthor(ctx context.Context, form surface.Surface, record *post.Record) error {
	ctx, span := tracer.Start(ctx, "resolveAuthor")
	defer span.End()

	authorSelect, err := form.FindElement(ctx, s.opts.Locators.AuthorSelect)
	if err != nil {
		return err
	}
	options, err := authorSelect.OptionLabels(ctx)
	if err != nil {
		return err
	}

	match := MatchAuthor(record.Author, options, s.opts.FallbackAuthor)
	err = authorSelect.SelectByLabel(ctx, match.Label)
	if err != nil && match.Exact {
		return err
	}

	if !match.Exact && s.opts.Audit != nil {
		fields := []auditlog.Field{
			{Key: "Author", Value: match.Original},
			{Key: "Selected", Value: match.Label},
		}
		if match.Nearest != "" {
			fields = append(fields, auditlog.Field{Key: "Nearest option", Value: match.Nearest})
		}
		s.opts.Audit.Warning("author not found in destination list", fields...)
	}
	return nil
}

// applyTags activates every destination tag option whose label is one
// of the record's tags. Source tags with no matching option are
// silently dropped; this step is known lossy.
func (s *Session) applyTags(ctx context.Context, form surface.Surface, record *post.Record) error {
	options, err := form.FindElements(ctx, s.opts.Locators.TagOptions)
	if err != nil {
		return err
	}
	for _, option := range options {
		label, err := option.Label(ctx)
		if err != nil {
			return err
		}
		if !record.HasTag(label) {
			continue
		}
		if err := option.Click(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) resolveDateTime(ctx context.Context, form surface.Surface, record *post.Record) error {
	ctx, span := tracer.Start(ctx, "resolveDateTime")
	defer span.End()

	dateField, err := form.FindElement(ctx, s.opts.Locators.DateField)
	if err != nil {
		return err
	}
	if err := dateField.Click(ctx); err != nil {
		return err
	}

	// the picker renders in its own overlay
	picker, err := form.SwitchToActiveChild(ctx)
	if err != nil {
		return err
	}
	if err := picker.WaitUntilInteractive(ctx, s.opts.WaitTimeout); err != nil {
		return err
	}

	monthSelect, err := picker.FindElement(ctx, s.opts.Locators.MonthSelect)
	if err != nil {
		return err
	}
	// the picker's month options are zero-indexed
	err = monthSelect.SelectByValue(ctx, strconv.Itoa(int(record.PublishedAt.Month())-1))
	if err != nil {
		return err
	}

	yearField, err := picker.FindElement(ctx, s.opts.Locators.YearField)
	if err != nil {
		return err
	}
	if err := yearField.Type(ctx, strconv.Itoa(record.PublishedAt.Year())); err != nil {
		return err
	}

	matched, err := s.clickMatchingDay(ctx, picker, record)
	if err != nil {
		return err
	}
	if !matched && s.opts.Audit != nil {
		s.opts.Audit.Warning(
			"calendar day not found, destination keeps today's date",
			auditlog.Field{Key: "Wanted", Value: record.PublishedAt.Format(timestamp.DateLayout)},
			auditlog.Field{Key: "Used", Value: s.opts.Now().Format(timestamp.DateLayout)},
		)
	}

	hourField, err := picker.FindElement(ctx, s.opts.Locators.HourField)
	if err != nil {
		return err
	}
	if err := hourField.Type(ctx, strconv.Itoa(record.PublishedAt.Hour())); err != nil {
		return err
	}
	minuteField, err := picker.FindElement(ctx, s.opts.Locators.MinuteField)
	if err != nil {
		return err
	}
	if err := minuteField.Type(ctx, strconv.Itoa(record.PublishedAt.Minute())); err != nil {
		return err
	}

	done, err := picker.FindElement(ctx, s.opts.Locators.PickerDone)
	if err != nil {
		return err
	}
	return done.Click(ctx)
}

// clickMatchingDay looks for the calendar day whose rendered label
// parses to the record's publish date. Not finding one is a soft
// fallback, not an error: the calendar range may simply not extend far
// enough.
func (s *Session) clickMatchingDay(ctx context.Context, picker surface.Surface, record *post.Record) (bool, error) {
	days, err := picker.FindElements(ctx, s.opts.Locators.CalendarDays)
	if err != nil {
		return false, err
	}
	for _, day := range days {
		label, err := day.Label(ctx)
		if err != nil {
			return false, err
		}
		parsed, err := timestamp.ParseDayLabel(label)
		if err != nil {
			continue
		}
		if !timestamp.SameDay(parsed, record.PublishedAt) {
			continue
		}
		if err := day.Click(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// submit reads the destination's generated record identifier, issues
// save, and only then assigns the identifier to the record, so a failed
// save never leaves a destination url behind.
func (s *Session) submit(ctx context.Context, form surface.Surface, record *post.Record) error {
	ctx, span := tracer.Start(ctx, "submit")
	defer span.End()

	urlField, err := form.FindElement(ctx, s.opts.Locators.PostURLField)
	if err != nil {
		return err
	}
	destinationURL, err := urlField.Value(ctx)
	if err != nil {
		return err
	}

	save, err := form.FindElement(ctx, s.opts.Locators.SaveButton)
	if err != nil {
		return err
	}
	if err := save.Click(ctx); err != nil {
		return err
	}

	if err := record.SetDestinationURL(destinationURL); err != nil {
		return err
	}
	if s.opts.Audit != nil {
		s.opts.Audit.Info(
			"post migrated",
			auditlog.Field{Key: "Title", Value: record.Title},
			auditlog.Field{Key: "Source", Value: record.SourceURL},
			auditlog.Field{Key: "Destination", Value: record.DestinationURL()},
		)
	}
	return nil
}
