// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/reelvault/reelvault/internal/api"
	"github.com/reelvault/reelvault/internal/auth"
	authpg "github.com/reelvault/reelvault/internal/auth/postgres"
	catalogpg "github.com/reelvault/reelvault/internal/catalog/postgres"
	"github.com/reelvault/reelvault/internal/seed"
	"github.com/reelvault/reelvault/internal/store"
)

const tokenSecret = "integration-test-secret-0123456789ab"

const catalogSeed = `
genres:
  - id: 01ARZ3NDEKTSV4RRFFQ69G5FAV
    name: Thriller
directors:
  - id: 01ARZ3NDEKTSV4RRFFQ69G5FB0
    name: Jonathan Demme
movies:
  - id: 01ARZ3NDEKTSV4RRFFQ69G5FB1
    title: The Silence of the Lambs
    genre: Thriller
    director: Jonathan Demme
    featured: true
actors:
  - id: 01ARZ3NDEKTSV4RRFFQ69G5FB2
    name: Jodie Foster
    movies:
      - The Silence of the Lambs
`

var _ = Describe("API flow", Ordered, func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		container testcontainers.Container
		pool      *pgxpool.Pool
		server    *httptest.Server
	)

	BeforeAll(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 3*time.Minute)

		pg, err := pgcontainer.Run(ctx,
			"postgres:16-alpine",
			pgcontainer.WithDatabase("reelvault_test"),
			pgcontainer.WithUsername("reelvault"),
			pgcontainer.WithPassword("reelvault"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())
		container = pg

		connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Connect(ctx, connStr)
		Expect(err).NotTo(HaveOccurred())

		seedFile, err := seed.Parse([]byte(catalogSeed))
		Expect(err).NotTo(HaveOccurred())
		stats, err := seed.Apply(ctx, pool, seedFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Movies).To(Equal(1))
		Expect(stats.Actors).To(Equal(1))

		tokens, err := auth.NewTokens(auth.TokenConfig{
			Secret: []byte(tokenSecret),
			TTL:    time.Hour,
		})
		Expect(err).NotTo(HaveOccurred())

		svc, err := auth.NewServiceWithLogger(
			authpg.NewUserRepository(pool),
			auth.NewArgon2idHasher(auth.FastParams),
			tokens,
			slog.Default(),
		)
		Expect(err).NotTo(HaveOccurred())

		apiServer, err := api.NewServer("127.0.0.1:0", api.Deps{
			Auth:      svc,
			Movies:    catalogpg.NewMovieRepository(pool),
			Genres:    catalogpg.NewGenreRepository(pool),
			Directors: catalogpg.NewDirectorRepository(pool),
			Actors:    catalogpg.NewActorRepository(pool),
			Logger:    slog.Default(),
		})
		Expect(err).NotTo(HaveOccurred())

		server = httptest.NewServer(apiServer.Router())
	})

	AfterAll(func() {
		if server != nil {
			server.Close()
		}
		if pool != nil {
			pool.Close()
		}
		if container != nil {
			Expect(container.Terminate(ctx)).To(Succeed())
		}
		cancel()
	})

	doJSON := func(method, path, token string, body any) (*http.Response, map[string]any) {
		GinkgoHelper()

		var reqBody io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, server.URL+path, reqBody)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := server.Client().Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		var decoded map[string]any
		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		if len(data) > 0 {
			Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		}
		return resp, decoded
	}

	var aliceToken string

	It("registers a new account", func() {
		resp, body := doJSON(http.MethodPost, "/users", "", map[string]any{
			"username": "alice",
			"password": "correct horse battery staple",
			"email":    "alice@example.com",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		Expect(body["username"]).To(Equal("alice"))
		Expect(body).NotTo(HaveKey("password"))
		Expect(body).NotTo(HaveKey("passwordHash"))
	})

	It("rejects a duplicate username", func() {
		resp, _ := doJSON(http.MethodPost, "/users", "", map[string]any{
			"username": "alice",
			"password": "another password entirely",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))
	})

	It("logs in and issues a token", func() {
		resp, body := doJSON(http.MethodPost, "/login", "", map[string]any{
			"username": "alice",
			"password": "correct horse battery staple",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["token"]).NotTo(BeEmpty())
		aliceToken = body["token"].(string)
	})

	It("rejects a wrong password with a generic message", func() {
		resp, body := doJSON(http.MethodPost, "/login", "", map[string]any{
			"username": "alice",
			"password": "wrong password here",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(body["message"]).To(Equal("Something is not right"))
	})

	It("requires a token for catalog reads", func() {
		resp, _ := doJSON(http.MethodGet, "/movies", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("lists seeded movies with a valid token", func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/movies", nil)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Authorization", "Bearer "+aliceToken)

		resp, err := server.Client().Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var movies []map[string]any
		Expect(json.NewDecoder(resp.Body).Decode(&movies)).To(Succeed())
		Expect(movies).To(HaveLen(1))
		Expect(movies[0]["title"]).To(Equal("The Silence of the Lambs"))
	})

	It("reads genres, directors and actors by name", func() {
		resp, body := doJSON(http.MethodGet, "/genres/Thriller", aliceToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["name"]).To(Equal("Thriller"))

		resp, body = doJSON(http.MethodGet, "/directors/Jonathan%20Demme", aliceToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["name"]).To(Equal("Jonathan Demme"))

		resp, body = doJSON(http.MethodGet, "/actors/Jodie%20Foster", aliceToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["name"]).To(Equal("Jodie Foster"))
		movies := body["movies"].([]any)
		Expect(movies).To(HaveLen(1))
		Expect(movies[0].(map[string]any)["title"]).To(Equal("The Silence of the Lambs"))

		resp, _ = doJSON(http.MethodGet, "/actors/Nobody", aliceToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("adds and removes a favorite", func() {
		resp, body := doJSON(http.MethodPost,
			"/users/alice/movies/01ARZ3NDEKTSV4RRFFQ69G5FB1", aliceToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["favoriteMovies"]).To(ContainElement("01ARZ3NDEKTSV4RRFFQ69G5FB1"))

		resp, body = doJSON(http.MethodDelete,
			"/users/alice/movies/01ARZ3NDEKTSV4RRFFQ69G5FB1", aliceToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["favoriteMovies"]).To(BeEmpty())
	})

	It("updates the profile and password", func() {
		resp, body := doJSON(http.MethodPut, "/users/alice", aliceToken, map[string]any{
			"email":    "alice@reelvault.dev",
			"password": "an entirely new password",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["email"]).To(Equal("alice@reelvault.dev"))

		resp, _ = doJSON(http.MethodPost, "/login", "", map[string]any{
			"username": "alice",
			"password": "an entirely new password",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("forbids acting on another user's account", func() {
		resp, _ := doJSON(http.MethodPost, "/users", "", map[string]any{
			"username": "bob",
			"password": "a perfectly fine password",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		resp, _ = doJSON(http.MethodGet, "/users/bob", aliceToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
	})

	It("deletes the account and rejects the orphaned token", func() {
		resp, _ := doJSON(http.MethodDelete, "/users/alice", aliceToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

		resp, _ = doJSON(http.MethodGet, "/users/alice", aliceToken, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("locks an account after repeated failures", func() {
		resp, _ := doJSON(http.MethodPost, "/users", "", map[string]any{
			"username": "mallory",
			"password": "the real password here",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		for i := 0; i < 7; i++ {
			resp, _ = doJSON(http.MethodPost, "/login", "", map[string]any{
				"username": "mallory",
				"password": fmt.Sprintf("wrong guess number %d", i),
			})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		}

		resp, _ = doJSON(http.MethodPost, "/login", "", map[string]any{
			"username": "mallory",
			"password": "the real password here",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusTooManyRequests))
		Expect(resp.Header.Get("Retry-After")).NotTo(BeEmpty())
	})
})
