// Package post holds the normalized representation of one blog post,
// shared by extraction and replay.
package post

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"blogmigrate/lib/timestamp"
)

// Record is the unit of migration. It is produced either by extraction
// from a live source document or by combining two existing records, and
// is consumed by exactly one successful replay.
type Record struct {
	// SourceURL identifies the origin document. Immutable once set.
	SourceURL string
	// destinationURL is write-once, see SetDestinationURL.
	destinationURL string

	Title       string
	Author      string
	PublishedAt time.Time
	// FeaturedImage is empty when the source post had no image.
	FeaturedImage string
	// Body is a normalized HTML fragment, markup preserved.
	Body string
	// Tags are lowercase labels, deduplicated and sorted.
	Tags []string
}

// DestinationURL returns the identifier of the created destination
// record, or "" if replay has not succeeded yet.
func (r *Record) DestinationURL() string {
	return r.destinationURL
}

// SetDestinationURL assigns the destination identifier. It may be
// called at most once; a second assignment would mean a record was
// replayed twice and risks duplicate creation.
func (r *Record) SetDestinationURL(url string) error {
	if r.destinationURL != "" {
		return fmt.Errorf(
			"destination url already assigned to %q, refusing to overwrite with %q",
			r.destinationURL, url,
		)
	}
	r.destinationURL = url
	return nil
}

// Migrated reports whether the record has already been assigned a
// destination identifier. Replay must not be retried once it has.
func (r *Record) Migrated() bool {
	return r.destinationURL != ""
}

// Validate reports whether the record carries the fields a successful
// extraction always populates. Replay calls it as a precondition.
func (r *Record) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("record for %q has no title", r.SourceURL)
	}
	if r.Body == "" {
		return fmt.Errorf("record for %q has no body", r.SourceURL)
	}
	return nil
}

// NormalizeTags lowercases, deduplicates and sorts tag labels.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		out = append(out, tag)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// HasTag reports whether label (case-insensitively) is one of the
// record's tags.
func (r *Record) HasTag(label string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	_, found := slices.BinarySearch(r.Tags, label)
	return found
}

// Combine returns a new record carrying all of a's metadata with b's
// body appended after a's body, separated by a blank line. Neither
// input is modified, and the new record has no destination url even if
// the inputs had one.
func Combine(a, b *Record) *Record {
	out := &Record{
		SourceURL:     a.SourceURL,
		Title:         a.Title,
		Author:        a.Author,
		PublishedAt:   a.PublishedAt,
		FeaturedImage: a.FeaturedImage,
		Body:          a.Body + "\n\n" + b.Body,
		Tags:          slices.Clone(a.Tags),
	}
	return out
}

// String renders the human-readable summary of the record, every field
// except the body (which may be large).
func (r *Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", r.SourceURL)
	if r.destinationURL != "" {
		fmt.Fprintf(&b, "Destination: %s\n", r.destinationURL)
	} else {
		b.WriteString("Destination: (not migrated yet)\n")
	}
	fmt.Fprintf(&b, "Title: %s\n", r.Title)
	fmt.Fprintf(&b, "Author: %s\n", r.Author)
	fmt.Fprintf(&b, "Published: %s\n", timestamp.Format(r.PublishedAt))
	if r.FeaturedImage != "" {
		fmt.Fprintf(&b, "Featured image: %s\n", r.FeaturedImage)
	}
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(r.Tags, ", "))
	return b.String()
}
