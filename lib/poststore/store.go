// Package poststore persists the batch of extracted post records
// between the extraction pass and the replay pass.
package poststore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"blogmigrate/lib/post"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

// Open opens (creating if needed) a store at path.
func Open(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return Store{}, err
	}
	return Store{db: db}, nil
}

func (s Store) Close() error {
	return s.db.Close()
}

// Save upserts a record keyed by its source url. New records go to the
// end of the batch order.
func (s Store) Save(ctx context.Context, record *post.Record) error {
	tags, err := json.Marshal(record.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO posts (
    source_url, destination_url, title, author,
    published_at, featured_image, body, tags, position
)
VALUES (
    ?, ?, ?, ?, ?, ?, ?, ?,
    (SELECT COALESCE(MAX(position), 0) + 1 FROM posts)
)
ON CONFLICT (source_url) DO UPDATE SET
    destination_url = excluded.destination_url,
    title = excluded.title,
    author = excluded.author,
    published_at = excluded.published_at,
    featured_image = excluded.featured_image,
    body = excluded.body,
    tags = excluded.tags
	`,
		record.SourceURL,
		record.DestinationURL(),
		record.Title,
		record.Author,
		record.PublishedAt.Unix(),
		record.FeaturedImage,
		record.Body,
		string(tags),
	)
	return err
}

// SetDestination persists the destination url assigned to a migrated
// record.
func (s Store) SetDestination(ctx context.Context, sourceURL, destinationURL string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE posts SET destination_url = ? WHERE source_url = ?
	`, destinationURL, sourceURL)
	return err
}

// Delete removes a record from the batch.
func (s Store) Delete(ctx context.Context, sourceURL string) error {
	_, err := s.db.ExecContext(ctx, `
DELETE FROM posts WHERE source_url = ?
	`, sourceURL)
	return err
}

// Get loads one record by source url, or nil if absent.
func (s Store) Get(ctx context.Context, sourceURL string) (*post.Record, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT source_url, destination_url, title, author,
       published_at, featured_image, body, tags
FROM posts WHERE source_url = ?
	`, sourceURL)
	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// List returns the whole batch in insertion order.
func (s Store) List(ctx context.Context) ([]*post.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT source_url, destination_url, title, author,
       published_at, featured_image, body, tags
FROM posts ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*post.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*post.Record, error) {
	var record post.Record
	var destinationURL string
	var publishedAt int64
	var tags string

	err := row.Scan(
		&record.SourceURL,
		&destinationURL,
		&record.Title,
		&record.Author,
		&publishedAt,
		&record.FeaturedImage,
		&record.Body,
		&tags,
	)
	if err != nil {
		return nil, err
	}

	record.PublishedAt = time.Unix(publishedAt, 0).UTC()
	err = json.Unmarshal([]byte(tags), &record.Tags)
	if err != nil {
		return nil, err
	}
	if destinationURL != "" {
		err = record.SetDestinationURL(destinationURL)
		if err != nil {
			return nil, err
		}
	}
	return &record, nil
}
