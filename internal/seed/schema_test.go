// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package seed_test

import (
	"strings"
	"testing"

	"github.com/reelvault/reelvault/internal/seed"
)

const validSeedYAML = `
genres:
  - id: 01ARZ3NDEKTSV4RRFFQ69G5FAV
    name: Thriller
    description: Suspense-driven stories.
directors:
  - id: 01ARZ3NDEKTSV4RRFFQ69G5FB0
    name: Jonathan Demme
    bio: American director.
    birthYear: 1944
    deathYear: 2017
movies:
  - id: 01ARZ3NDEKTSV4RRFFQ69G5FB1
    title: The Silence of the Lambs
    description: A young FBI cadet seeks help from an imprisoned killer.
    genre: Thriller
    director: Jonathan Demme
    featured: true
`

func TestValidateSchema_ValidSeed(t *testing.T) {
	if err := seed.ValidateSchema([]byte(validSeedYAML)); err != nil {
		t.Errorf("ValidateSchema() error = %v, want nil", err)
	}
}

func TestValidateSchema_EmptyData(t *testing.T) {
	if err := seed.ValidateSchema(nil); err == nil {
		t.Error("ValidateSchema() expected error for empty data")
	}
}

func TestValidateSchema_MalformedYAML(t *testing.T) {
	if err := seed.ValidateSchema([]byte("genres: [")); err == nil {
		t.Error("ValidateSchema() expected error for malformed YAML")
	}
}

func TestValidateSchema_BadID(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{name: "too short", id: "01ARZ3NDEK"},
		{name: "lowercase", id: "01arz3ndektsv4rrffq69g5fav"},
		{name: "excluded letter", id: "01ARZ3NDEKTSV4RRFFQ69G5FAI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaml := `
genres:
  - id: ` + tt.id + `
    name: Drama
`
			if err := seed.ValidateSchema([]byte(yaml)); err == nil {
				t.Errorf("ValidateSchema() expected error for id %q", tt.id)
			}
		})
	}
}

func TestValidateSchema_EmptyName(t *testing.T) {
	yaml := `
genres:
  - id: 01ARZ3NDEKTSV4RRFFQ69G5FAV
    name: ""
`
	if err := seed.ValidateSchema([]byte(yaml)); err == nil {
		t.Error("ValidateSchema() expected error for empty genre name")
	}
}

func TestValidateSchema_MovieMissingDirector(t *testing.T) {
	yaml := `
movies:
  - id: 01ARZ3NDEKTSV4RRFFQ69G5FB1
    title: Orphaned
    genre: Thriller
`
	if err := seed.ValidateSchema([]byte(yaml)); err == nil {
		t.Error("ValidateSchema() expected error for movie without director")
	}
}

func TestValidateSchema_ActorMissingName(t *testing.T) {
	yaml := `
actors:
  - id: 01ARZ3NDEKTSV4RRFFQ69G5FB2
    movies:
      - Orphaned
`
	if err := seed.ValidateSchema([]byte(yaml)); err == nil {
		t.Error("ValidateSchema() expected error for actor without name")
	}
}

func TestGenerateSchema(t *testing.T) {
	data, err := seed.GenerateSchema()
	if err != nil {
		t.Fatalf("GenerateSchema() error = %v", err)
	}

	out := string(data)
	for _, want := range []string{seed.SchemaID, "ReelVault Catalog Seed", "genres", "directors", "movies", "actors"} {
		if !strings.Contains(out, want) {
			t.Errorf("GenerateSchema() output missing %q", want)
		}
	}
}

func TestResetSchemaCache(t *testing.T) {
	if err := seed.ValidateSchema([]byte(validSeedYAML)); err != nil {
		t.Fatalf("ValidateSchema() error = %v", err)
	}
	seed.ResetSchemaCache()
	if err := seed.ValidateSchema([]byte(validSeedYAML)); err != nil {
		t.Errorf("ValidateSchema() after reset error = %v", err)
	}
}
