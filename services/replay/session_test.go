package replay

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"blogmigrate/lib/auditlog"
	"blogmigrate/lib/post"
	"blogmigrate/lib/surface"
	"blogmigrate/lib/surface/surfacetest"

	"github.com/stretchr/testify/require"
)

var testLocators = surface.LocatorTable{
	AddPostButton:    "a.add-post",
	PublishedToggle:  "label.published",
	SourceModeButton: "button.source-mode",
	TitleField:       "input.title",
	ContentField:     "textarea.content",
	ContentConfirm:   "button.content-ok",
	AuthorSelect:     "select.author",
	TagOptions:       "ul.tags li",
	PostURLField:     "input.post-url",
	SaveButton:       "input.save",
	DateField:        "input.date",
	MonthSelect:      "select.month",
	YearField:        "input.year",
	CalendarDays:     "div.days span",
	HourField:        "input.hour",
	MinuteField:      "input.minute",
	PickerDone:       "div.done",
}

type fixture struct {
	root   *surfacetest.Surface
	form   *surfacetest.Surface
	picker *surfacetest.Surface
	audit  *auditlog.Log
	buf    *fixtureBuffer
}

type fixtureBuffer struct {
	bytes.Buffer
}

func (b *fixtureBuffer) Close() error { return nil }

func newFixture() *fixture {
	root := surfacetest.New()
	root.Add(testLocators.AddPostButton)

	form := surfacetest.New()
	form.Add(testLocators.PublishedToggle)
	form.Add(testLocators.SourceModeButton)
	form.Add(testLocators.TitleField)
	form.Add(testLocators.ContentField)
	form.Add(testLocators.ContentConfirm)
	authorSelect := form.Add(testLocators.AuthorSelect)
	authorSelect.Options = []string{"Jane Doe", "John Smith", "Editorial Team"}
	form.Lists[testLocators.TagOptions] = []*surfacetest.Element{
		{LabelText: "Reunion"},
		{LabelText: "Poland"},
		{LabelText: "Germany"},
	}
	form.Add(testLocators.DateField)
	postURL := form.Add(testLocators.PostURLField)
	postURL.ValueText = "https://new.example.com/posts/42"
	form.Add(testLocators.SaveButton)

	picker := surfacetest.New()
	picker.Add(testLocators.MonthSelect)
	picker.Add(testLocators.YearField)
	picker.Lists[testLocators.CalendarDays] = []*surfacetest.Element{
		{LabelText: "June 4, 1987"},
		{LabelText: "June 5, 1987"},
		{LabelText: "June 6, 1987"},
	}
	picker.Add(testLocators.HourField)
	picker.Add(testLocators.MinuteField)
	picker.Add(testLocators.PickerDone)

	root.Child = form
	form.Child = picker

	buf := &fixtureBuffer{}
	return &fixture{
		root:   root,
		form:   form,
		picker: picker,
		audit:  auditlog.NewWithWriter(buf, "testrun"),
		buf:    buf,
	}
}

func (f *fixture) session() *Session {
	return NewSession(SessionOptions{
		Surface:     f.root,
		Locators:    testLocators,
		Audit:       f.audit,
		WaitTimeout: time.Second,
		Now: func() time.Time {
			return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		},
	})
}

func testRecord() *post.Record {
	return &post.Record{
		SourceURL:   "https://old.example.com/posts/summer-reunion-1987",
		Title:       "Summer Reunion 1987",
		Author:      "Jane Doe",
		PublishedAt: time.Date(1987, 6, 5, 15, 0, 0, 0, time.UTC),
		Body:        "<p>It was a warm evening.</p>",
		Tags:        post.NormalizeTags([]string{"reunion", "poland"}),
	}
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture()
	record := testRecord()
	session := f.session()

	err := session.Run(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, session.State())
	require.Equal(t, "https://new.example.com/posts/42", record.DestinationURL())

	// published visibility and raw source mode were selected before
	// any text entry
	require.Equal(t, 1, f.form.Elements[testLocators.PublishedToggle].Clicks)
	require.Equal(t, 1, f.form.Elements[testLocators.SourceModeButton].Clicks)

	require.Equal(t, []string{record.Title}, f.form.Elements[testLocators.TitleField].Typed)
	require.Equal(t, []string{record.Body}, f.form.Elements[testLocators.ContentField].Typed)
	require.Equal(t, 1, f.form.Elements[testLocators.ContentConfirm].Clicks)

	require.Equal(t, []string{"Jane Doe"}, f.form.Elements[testLocators.AuthorSelect].Selected)

	tags := f.form.Lists[testLocators.TagOptions]
	require.Equal(t, 1, tags[0].Clicks, "reunion tag")
	require.Equal(t, 1, tags[1].Clicks, "poland tag")
	require.Equal(t, 0, tags[2].Clicks, "germany tag must stay untouched")

	// months are zero-indexed on the picker
	require.Equal(t, []string{"5"}, f.picker.Elements[testLocators.MonthSelect].Selected)
	require.Equal(t, []string{"1987"}, f.picker.Elements[testLocators.YearField].Typed)
	days := f.picker.Lists[testLocators.CalendarDays]
	require.Equal(t, 0, days[0].Clicks)
	require.Equal(t, 1, days[1].Clicks, "june 5 must be clicked")
	require.Equal(t, []string{"15"}, f.picker.Elements[testLocators.HourField].Typed)
	require.Equal(t, []string{"0"}, f.picker.Elements[testLocators.MinuteField].Typed)
	require.Equal(t, 1, f.picker.Elements[testLocators.PickerDone].Clicks)

	require.Equal(t, 1, f.form.Elements[testLocators.SaveButton].Clicks)
	require.Empty(t, f.audit.Attention())
}

func TestRunAuthorFallback(t *testing.T) {
	f := newFixture()
	record := testRecord()
	record.Author = "Unknown Contributor"
	session := f.session()

	err := session.Run(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, session.State())

	require.Equal(t,
		[]string{DefaultFallbackAuthor},
		f.form.Elements[testLocators.AuthorSelect].Selected,
	)

	attention := f.audit.Attention()
	require.Len(t, attention, 1)
	require.Contains(t, attention[0].Message, "author not found")
	var original string
	for _, field := range attention[0].Fields {
		if field.Key == "Author" {
			original = field.Value
		}
	}
	require.Equal(t, "Unknown Contributor", original)
}

func TestRunDateFallback(t *testing.T) {
	f := newFixture()
	// calendar range does not reach the publish date
	f.picker.Lists[testLocators.CalendarDays] = []*surfacetest.Element{
		{LabelText: "March 1, 2024"},
		{LabelText: "March 2, 2024"},
	}
	record := testRecord()
	session := f.session()

	err := session.Run(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, session.State())
	require.True(t, record.Migrated())

	attention := f.audit.Attention()
	require.Len(t, attention, 1)
	require.Contains(t, attention[0].Message, "calendar day not found")
}

func TestRunElementNotFound(t *testing.T) {
	f := newFixture()
	delete(f.form.Elements, testLocators.TitleField)
	record := testRecord()
	session := f.session()

	err := session.Run(context.Background(), record)
	require.Error(t, err)
	require.Equal(t, StateFailed, session.State())
	require.False(t, record.Migrated())

	var failure *FailedError
	require.True(t, errors.As(err, &failure))
	require.Equal(t, StateTitleSet, failure.State)

	var interaction *surface.Error
	require.True(t, errors.As(err, &interaction))
	require.Equal(t, surface.ErrorElementNotFound, interaction.Kind)
}

func TestRunTimeout(t *testing.T) {
	f := newFixture()
	f.form.WaitErr = surface.Timeout("", context.DeadlineExceeded)
	record := testRecord()
	session := f.session()

	err := session.Run(context.Background(), record)
	require.Error(t, err)
	require.Equal(t, StateFailed, session.State())
	require.False(t, record.Migrated())

	var failure *FailedError
	require.True(t, errors.As(err, &failure))
	require.Equal(t, StateFormOpened, failure.State)
}

func TestRunSaveFailureLeavesNoDestination(t *testing.T) {
	f := newFixture()
	f.form.Elements[testLocators.SaveButton].ClickErr = surface.NotFound(testLocators.SaveButton)
	record := testRecord()
	session := f.session()

	err := session.Run(context.Background(), record)
	require.Error(t, err)
	require.Equal(t, StateFailed, session.State())
	require.False(t, record.Migrated())
}

func TestRunRejectsMigratedRecord(t *testing.T) {
	f := newFixture()
	record := testRecord()
	require.NoError(t, record.SetDestinationURL("https://new.example.com/posts/7"))

	err := f.session().Run(context.Background(), record)
	require.Error(t, err)
	// nothing was driven
	require.Equal(t, 0, f.root.Elements[testLocators.AddPostButton].Clicks)
}

func TestRunRejectsIncompleteRecord(t *testing.T) {
	f := newFixture()
	record := testRecord()
	record.Body = ""

	err := f.session().Run(context.Background(), record)
	require.Error(t, err)

	var retrieval *RetrievalError
	require.True(t, errors.As(err, &retrieval))
}

func TestRunIsSingleUse(t *testing.T) {
	f := newFixture()
	session := f.session()
	require.NoError(t, session.Run(context.Background(), testRecord()))

	err := session.Run(context.Background(), testRecord())
	require.Error(t, err)
}
