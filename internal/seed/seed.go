// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

// Package seed loads catalog seed files and applies them to the database.
//
// Seed files are YAML documents validated against a JSON Schema generated
// from the types in this package (see cmd/gen-schema). Applying a seed file
// is idempotent: existing genres, directors, movies and actors are left
// untouched.
package seed

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// File is the root of a catalog seed document.
type File struct {
	Genres    []Genre    `yaml:"genres" json:"genres,omitempty"`
	Directors []Director `yaml:"directors" json:"directors,omitempty"`
	Movies    []Movie    `yaml:"movies" json:"movies,omitempty"`
	Actors    []Actor    `yaml:"actors" json:"actors,omitempty"`
}

// Genre seeds one genres row.
type Genre struct {
	ID          string `yaml:"id" json:"id" jsonschema:"pattern=^[0-9A-HJKMNP-TV-Z]{26}$"`
	Name        string `yaml:"name" json:"name" jsonschema:"minLength=1"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// Director seeds one directors row.
type Director struct {
	ID        string `yaml:"id" json:"id" jsonschema:"pattern=^[0-9A-HJKMNP-TV-Z]{26}$"`
	Name      string `yaml:"name" json:"name" jsonschema:"minLength=1"`
	Bio       string `yaml:"bio" json:"bio,omitempty"`
	BirthYear *int   `yaml:"birthYear" json:"birthYear,omitempty"`
	DeathYear *int   `yaml:"deathYear" json:"deathYear,omitempty"`
}

// Movie seeds one movies row. Genre and Director reference seeded (or
// existing) rows by name.
type Movie struct {
	ID          string  `yaml:"id" json:"id" jsonschema:"pattern=^[0-9A-HJKMNP-TV-Z]{26}$"`
	Title       string  `yaml:"title" json:"title" jsonschema:"minLength=1"`
	Description string  `yaml:"description" json:"description,omitempty"`
	Genre       string  `yaml:"genre" json:"genre" jsonschema:"minLength=1"`
	Director    string  `yaml:"director" json:"director" jsonschema:"minLength=1"`
	ImagePath   *string `yaml:"imagePath" json:"imagePath,omitempty"`
	Featured    bool    `yaml:"featured" json:"featured,omitempty"`
}

// Actor seeds one actors row. Movies lists the actor's appearances by movie
// title.
type Actor struct {
	ID        string   `yaml:"id" json:"id" jsonschema:"pattern=^[0-9A-HJKMNP-TV-Z]{26}$"`
	Name      string   `yaml:"name" json:"name" jsonschema:"minLength=1"`
	Bio       string   `yaml:"bio" json:"bio,omitempty"`
	BirthYear *int     `yaml:"birthYear" json:"birthYear,omitempty"`
	Movies    []string `yaml:"movies" json:"movies,omitempty"`
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}
	return Parse(data)
}

// Parse validates raw YAML against the seed schema and unmarshals it.
func Parse(data []byte) (*File, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code("SEED_PARSE_FAILED").Wrap(err)
	}
	return &f, nil
}

// Stats reports what Apply actually inserted.
type Stats struct {
	Genres    int
	Directors int
	Movies    int
	Actors    int
}

// querier is the subset of pgxpool.Pool Apply needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Apply inserts the seed rows, skipping any genre, director or movie whose
// name or title already exists. A movie referencing a genre or director name
// that resolves to nothing fails with SEED_UNRESOLVED_REFERENCE rather than
// being silently skipped.
func Apply(ctx context.Context, db querier, f *File) (Stats, error) {
	var stats Stats

	for _, g := range f.Genres {
		tag, err := db.Exec(ctx, `
			INSERT INTO genres (id, name, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING
		`, g.ID, g.Name, g.Description)
		if err != nil {
			return stats, oops.Code("SEED_APPLY_FAILED").
				With("genre", g.Name).
				Wrap(err)
		}
		stats.Genres += int(tag.RowsAffected())
	}

	for _, d := range f.Directors {
		tag, err := db.Exec(ctx, `
			INSERT INTO directors (id, name, bio, birth_year, death_year)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (name) DO NOTHING
		`, d.ID, d.Name, d.Bio, d.BirthYear, d.DeathYear)
		if err != nil {
			return stats, oops.Code("SEED_APPLY_FAILED").
				With("director", d.Name).
				Wrap(err)
		}
		stats.Directors += int(tag.RowsAffected())
	}

	for _, m := range f.Movies {
		tag, err := db.Exec(ctx, `
			INSERT INTO movies (id, title, description, genre_id, director_id, image_path, featured)
			SELECT $1, $2, $3, g.id, d.id, $6, $7
			FROM genres g, directors d
			WHERE g.name = $4 AND d.name = $5
			ON CONFLICT (title) DO NOTHING
		`, m.ID, m.Title, m.Description, m.Genre, m.Director, m.ImagePath, m.Featured)
		if err != nil {
			return stats, oops.Code("SEED_APPLY_FAILED").
				With("movie", m.Title).
				Wrap(err)
		}
		if tag.RowsAffected() == 0 {
			// Zero rows is either an existing title (fine) or an unresolved
			// genre/director name (an operator mistake worth surfacing).
			var exists bool
			if err := db.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM movies WHERE title = $1)`,
				m.Title).Scan(&exists); err != nil {
				return stats, oops.Code("SEED_APPLY_FAILED").
					With("movie", m.Title).
					Wrap(err)
			}
			if !exists {
				return stats, oops.Code("SEED_UNRESOLVED_REFERENCE").
					With("movie", m.Title).
					With("genre", m.Genre).
					With("director", m.Director).
					Errorf("movie %q references an unknown genre or director", m.Title)
			}
			continue
		}
		stats.Movies += int(tag.RowsAffected())
	}

	for _, a := range f.Actors {
		tag, err := db.Exec(ctx, `
			INSERT INTO actors (id, name, bio, birth_year)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO NOTHING
		`, a.ID, a.Name, a.Bio, a.BirthYear)
		if err != nil {
			return stats, oops.Code("SEED_APPLY_FAILED").
				With("actor", a.Name).
				Wrap(err)
		}
		stats.Actors += int(tag.RowsAffected())

		for _, title := range a.Movies {
			tag, err := db.Exec(ctx, `
				INSERT INTO movie_actors (movie_id, actor_id)
				SELECT m.id, a.id
				FROM movies m, actors a
				WHERE m.title = $1 AND a.name = $2
				ON CONFLICT DO NOTHING
			`, title, a.Name)
			if err != nil {
				return stats, oops.Code("SEED_APPLY_FAILED").
					With("actor", a.Name).
					With("movie", title).
					Wrap(err)
			}
			if tag.RowsAffected() == 0 {
				var exists bool
				if err := db.QueryRow(ctx,
					`SELECT EXISTS (SELECT 1 FROM movies WHERE title = $1)`,
					title).Scan(&exists); err != nil {
					return stats, oops.Code("SEED_APPLY_FAILED").
						With("actor", a.Name).
						With("movie", title).
						Wrap(err)
				}
				if !exists {
					return stats, oops.Code("SEED_UNRESOLVED_REFERENCE").
						With("actor", a.Name).
						With("movie", title).
						Errorf("actor %q references an unknown movie %q", a.Name, title)
				}
			}
		}
	}

	return stats, nil
}
