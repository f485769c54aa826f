// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

// Package postgres implements the catalog repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/reelvault/reelvault/internal/catalog"
)

// pool is the subset of pgxpool.Pool the repositories need.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const movieSelect = `
	SELECT m.id, m.title, m.description, m.image_path, m.featured,
	       g.id, g.name, g.description,
	       d.id, d.name, d.bio, d.birth_year, d.death_year
	FROM movies m
	JOIN genres g ON g.id = m.genre_id
	JOIN directors d ON d.id = m.director_id`

// MovieRepository implements catalog.MovieRepository using PostgreSQL.
type MovieRepository struct {
	pool pool
}

// NewMovieRepository creates a new MovieRepository.
func NewMovieRepository(p pool) *MovieRepository {
	return &MovieRepository{pool: p}
}

// List returns all movies with their genre and director, ordered by title.
func (r *MovieRepository) List(ctx context.Context) ([]catalog.Movie, error) {
	rows, err := r.pool.Query(ctx, movieSelect+` ORDER BY m.title`)
	if err != nil {
		return nil, oops.Code("MOVIE_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var movies []catalog.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, oops.Code("MOVIE_LIST_FAILED").
				With("operation", "scan movie row").
				Wrap(err)
		}
		movies = append(movies, *movie)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("MOVIE_LIST_FAILED").
			With("operation", "iterate movies").
			Wrap(err)
	}
	return movies, nil
}

// GetByID returns a single movie.
func (r *MovieRepository) GetByID(ctx context.Context, id ulid.ULID) (*catalog.Movie, error) {
	row := r.pool.QueryRow(ctx, movieSelect+` WHERE m.id = $1`, id.String())

	movie, err := scanMovie(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("MOVIE_NOT_FOUND").
			With("id", id.String()).
			Wrap(catalog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("MOVIE_GET_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	return movie, nil
}

func scanMovie(row pgx.Row) (*catalog.Movie, error) {
	var m catalog.Movie
	var movieID, genreID, directorID string

	err := row.Scan(
		&movieID, &m.Title, &m.Description, &m.ImagePath, &m.Featured,
		&genreID, &m.Genre.Name, &m.Genre.Description,
		&directorID, &m.Director.Name, &m.Director.Bio,
		&m.Director.BirthYear, &m.Director.DeathYear,
	)
	if err != nil {
		return nil, err
	}

	if m.ID, err = ulid.Parse(movieID); err != nil {
		return nil, oops.Code("MOVIE_CORRUPT_ID").With("id", movieID).Wrap(err)
	}
	if m.Genre.ID, err = ulid.Parse(genreID); err != nil {
		return nil, oops.Code("MOVIE_CORRUPT_ID").With("genre_id", genreID).Wrap(err)
	}
	if m.Director.ID, err = ulid.Parse(directorID); err != nil {
		return nil, oops.Code("MOVIE_CORRUPT_ID").With("director_id", directorID).Wrap(err)
	}
	return &m, nil
}

// GenreRepository implements catalog.GenreRepository using PostgreSQL.
type GenreRepository struct {
	pool pool
}

// NewGenreRepository creates a new GenreRepository.
func NewGenreRepository(p pool) *GenreRepository {
	return &GenreRepository{pool: p}
}

// GetByName returns a single genre by its exact name.
func (r *GenreRepository) GetByName(ctx context.Context, name string) (*catalog.Genre, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, description FROM genres WHERE name = $1`, name)

	var g catalog.Genre
	var idStr string
	err := row.Scan(&idStr, &g.Name, &g.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("GENRE_NOT_FOUND").
			With("name", name).
			Wrap(catalog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("GENRE_GET_FAILED").
			With("name", name).
			Wrap(err)
	}
	if g.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("GENRE_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	return &g, nil
}

// List returns all genres ordered by name.
func (r *GenreRepository) List(ctx context.Context) ([]catalog.Genre, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description FROM genres ORDER BY name`)
	if err != nil {
		return nil, oops.Code("GENRE_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var genres []catalog.Genre
	for rows.Next() {
		var g catalog.Genre
		var idStr string
		if err := rows.Scan(&idStr, &g.Name, &g.Description); err != nil {
			return nil, oops.Code("GENRE_LIST_FAILED").
				With("operation", "scan genre row").
				Wrap(err)
		}
		if g.ID, err = ulid.Parse(idStr); err != nil {
			return nil, oops.Code("GENRE_CORRUPT_ID").With("id", idStr).Wrap(err)
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("GENRE_LIST_FAILED").
			With("operation", "iterate genres").
			Wrap(err)
	}
	return genres, nil
}

// DirectorRepository implements catalog.DirectorRepository using PostgreSQL.
type DirectorRepository struct {
	pool pool
}

// NewDirectorRepository creates a new DirectorRepository.
func NewDirectorRepository(p pool) *DirectorRepository {
	return &DirectorRepository{pool: p}
}

// GetByName returns a single director by their exact name.
func (r *DirectorRepository) GetByName(ctx context.Context, name string) (*catalog.Director, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, bio, birth_year, death_year FROM directors WHERE name = $1`, name)

	var d catalog.Director
	var idStr string
	err := row.Scan(&idStr, &d.Name, &d.Bio, &d.BirthYear, &d.DeathYear)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("DIRECTOR_NOT_FOUND").
			With("name", name).
			Wrap(catalog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("DIRECTOR_GET_FAILED").
			With("name", name).
			Wrap(err)
	}
	if d.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("DIRECTOR_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	return &d, nil
}

// List returns all directors ordered by name.
func (r *DirectorRepository) List(ctx context.Context) ([]catalog.Director, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, bio, birth_year, death_year FROM directors ORDER BY name`)
	if err != nil {
		return nil, oops.Code("DIRECTOR_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var directors []catalog.Director
	for rows.Next() {
		var d catalog.Director
		var idStr string
		if err := rows.Scan(&idStr, &d.Name, &d.Bio, &d.BirthYear, &d.DeathYear); err != nil {
			return nil, oops.Code("DIRECTOR_LIST_FAILED").
				With("operation", "scan director row").
				Wrap(err)
		}
		if d.ID, err = ulid.Parse(idStr); err != nil {
			return nil, oops.Code("DIRECTOR_CORRUPT_ID").With("id", idStr).Wrap(err)
		}
		directors = append(directors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("DIRECTOR_LIST_FAILED").
			With("operation", "iterate directors").
			Wrap(err)
	}
	return directors, nil
}

// ActorRepository implements catalog.ActorRepository using PostgreSQL.
type ActorRepository struct {
	pool pool
}

// NewActorRepository creates a new ActorRepository.
func NewActorRepository(p pool) *ActorRepository {
	return &ActorRepository{pool: p}
}

// List returns all actors ordered by name, without their movie lists.
func (r *ActorRepository) List(ctx context.Context) ([]catalog.Actor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, bio, birth_year FROM actors ORDER BY name`)
	if err != nil {
		return nil, oops.Code("ACTOR_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var actors []catalog.Actor
	for rows.Next() {
		var a catalog.Actor
		var idStr string
		if err := rows.Scan(&idStr, &a.Name, &a.Bio, &a.BirthYear); err != nil {
			return nil, oops.Code("ACTOR_LIST_FAILED").
				With("operation", "scan actor row").
				Wrap(err)
		}
		if a.ID, err = ulid.Parse(idStr); err != nil {
			return nil, oops.Code("ACTOR_CORRUPT_ID").With("id", idStr).Wrap(err)
		}
		actors = append(actors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACTOR_LIST_FAILED").
			With("operation", "iterate actors").
			Wrap(err)
	}
	return actors, nil
}

// GetByName returns a single actor by their exact name, with the movies they
// appear in.
func (r *ActorRepository) GetByName(ctx context.Context, name string) (*catalog.Actor, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, bio, birth_year FROM actors WHERE name = $1`, name)

	var a catalog.Actor
	var idStr string
	err := row.Scan(&idStr, &a.Name, &a.Bio, &a.BirthYear)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACTOR_NOT_FOUND").
			With("name", name).
			Wrap(catalog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACTOR_GET_FAILED").
			With("name", name).
			Wrap(err)
	}
	if a.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("ACTOR_CORRUPT_ID").With("id", idStr).Wrap(err)
	}

	rows, err := r.pool.Query(ctx, movieSelect+`
		JOIN movie_actors ma ON ma.movie_id = m.id
		WHERE ma.actor_id = $1
		ORDER BY m.title`, a.ID.String())
	if err != nil {
		return nil, oops.Code("ACTOR_GET_FAILED").
			With("operation", "query actor movies").
			Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, oops.Code("ACTOR_GET_FAILED").
				With("operation", "scan actor movie row").
				Wrap(err)
		}
		a.Movies = append(a.Movies, *movie)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACTOR_GET_FAILED").
			With("operation", "iterate actor movies").
			Wrap(err)
	}
	return &a, nil
}
