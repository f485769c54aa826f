// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

// Package catalog provides read models for the movie catalog.
//
// The catalog is read-only over the API; rows are loaded by migrations and
// the seed command. Write paths therefore live in internal/seed, not here.
package catalog

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound indicates the requested catalog entry does not exist.
var ErrNotFound = errors.New("catalog entry not found")

// Movie is a single catalog entry.
type Movie struct {
	ID          ulid.ULID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Genre       Genre     `json:"genre"`
	Director    Director  `json:"director"`
	ImagePath   *string   `json:"imagePath,omitempty"`
	Featured    bool      `json:"featured"`
}

// Genre classifies movies.
type Genre struct {
	ID          ulid.ULID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// Director of one or more catalog movies.
type Director struct {
	ID        ulid.ULID `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	BirthYear *int      `json:"birthYear,omitempty"`
	DeathYear *int      `json:"deathYear,omitempty"`
}

// Actor is a cast member. Movies lists the catalog entries the actor appears
// in and is populated on single-actor reads only.
type Actor struct {
	ID        ulid.ULID `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	BirthYear *int      `json:"birthYear,omitempty"`
	Movies    []Movie   `json:"movies,omitempty"`
}

// MovieRepository reads movies.
type MovieRepository interface {
	List(ctx context.Context) ([]Movie, error)
	GetByID(ctx context.Context, id ulid.ULID) (*Movie, error)
}

// GenreRepository reads genres.
type GenreRepository interface {
	List(ctx context.Context) ([]Genre, error)
	GetByName(ctx context.Context, name string) (*Genre, error)
}

// DirectorRepository reads directors.
type DirectorRepository interface {
	List(ctx context.Context) ([]Director, error)
	GetByName(ctx context.Context, name string) (*Director, error)
}

// ActorRepository reads cast members.
type ActorRepository interface {
	List(ctx context.Context) ([]Actor, error)
	GetByName(ctx context.Context, name string) (*Actor, error)
}
