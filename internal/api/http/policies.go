package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/movie-service/internal/auth"
	"github.com/spec-kit/movie-service/internal/domain"
	"github.com/spec-kit/movie-service/internal/ratelimit"
)

// Route binds a gated operation to its method, path and admission policy.
type Route struct {
	Operation string
	Method    string
	Path      string
	Policy    auth.Policy
}

var (
	adminOnly = auth.Policy{}
	userRead  = auth.Policy{AllowedRoles: []domain.Role{domain.RoleUser}, RateLimit: ratelimit.MustParseLimit("30/minute")}
	userWrite = auth.Policy{AllowedRoles: []domain.Role{domain.RoleUser}}
)

// AccountRoutes are the gated account operations served by the auth handler.
var AccountRoutes = []Route{
	{Operation: "auth.logout", Method: fiber.MethodPost, Path: "/logout", Policy: userWrite},
	{Operation: "auth.me", Method: fiber.MethodGet, Path: "/me", Policy: userRead},
}

// CatalogRoutes declares the admission policy of every catalog operation.
// Handlers are supplied by the catalog service keyed by Operation.
var CatalogRoutes = []Route{
	{Operation: "movies.list", Method: fiber.MethodGet, Path: "/movies", Policy: userRead},
	{Operation: "movies.get", Method: fiber.MethodGet, Path: "/movies/:movie_id", Policy: userRead},
	{Operation: "movies.create", Method: fiber.MethodPost, Path: "/movies", Policy: adminOnly},
	{Operation: "movies.update", Method: fiber.MethodPut, Path: "/movies/:movie_id", Policy: adminOnly},
	{Operation: "movies.delete", Method: fiber.MethodDelete, Path: "/movies/:movie_id", Policy: adminOnly},
	{Operation: "movies.genres.add", Method: fiber.MethodPost, Path: "/movies/:movie_id/genres", Policy: adminOnly},
	{Operation: "movies.genres.remove", Method: fiber.MethodDelete, Path: "/movies/:movie_id/genres", Policy: adminOnly},
	{Operation: "movies.actors.add", Method: fiber.MethodPost, Path: "/movies/:movie_id/actors", Policy: adminOnly},
	{Operation: "movies.actors.remove", Method: fiber.MethodDelete, Path: "/movies/:movie_id/actors", Policy: adminOnly},
	{Operation: "movies.directors.add", Method: fiber.MethodPost, Path: "/movies/:movie_id/directors", Policy: adminOnly},
	{Operation: "movies.directors.remove", Method: fiber.MethodDelete, Path: "/movies/:movie_id/directors", Policy: adminOnly},
	{Operation: "movies.reviews.list", Method: fiber.MethodGet, Path: "/movies/:movie_id/reviews", Policy: userRead},
	{Operation: "movies.reviews.create", Method: fiber.MethodPost, Path: "/movies/:movie_id/reviews", Policy: userWrite},

	{Operation: "genres.list", Method: fiber.MethodGet, Path: "/genres", Policy: auth.Policy{
		AllowedRoles: []domain.Role{domain.RoleUser},
		RateLimit:    ratelimit.MustParseLimit("1/minute"),
	}},
	{Operation: "genres.get", Method: fiber.MethodGet, Path: "/genres/:genre_id", Policy: userRead},
	{Operation: "genres.create", Method: fiber.MethodPost, Path: "/genres", Policy: adminOnly},
	{Operation: "genres.delete", Method: fiber.MethodDelete, Path: "/genres/:genre_id", Policy: adminOnly},

	{Operation: "people.list", Method: fiber.MethodGet, Path: "/people", Policy: userRead},
	{Operation: "people.get", Method: fiber.MethodGet, Path: "/people/:person_id", Policy: userRead},
	{Operation: "people.movies", Method: fiber.MethodGet, Path: "/people/:person_id/movies", Policy: userRead},
	{Operation: "people.create", Method: fiber.MethodPost, Path: "/people", Policy: adminOnly},
	{Operation: "people.update", Method: fiber.MethodPut, Path: "/people/:person_id", Policy: adminOnly},
	{Operation: "people.delete", Method: fiber.MethodDelete, Path: "/people/:person_id", Policy: adminOnly},

	{Operation: "reviews.get", Method: fiber.MethodGet, Path: "/reviews/:review_id", Policy: userRead},
	{Operation: "reviews.update", Method: fiber.MethodPut, Path: "/reviews/:review_id", Policy: userWrite},
	{Operation: "reviews.delete", Method: fiber.MethodDelete, Path: "/reviews/:review_id", Policy: userWrite},
}

// mount registers routes that have a handler, each behind the gate.
func mount(router fiber.Router, gate *auth.PermissionGate, routes []Route, handlers map[string]fiber.Handler) int {
	mounted := 0
	for _, r := range routes {
		h, ok := handlers[r.Operation]
		if !ok || h == nil {
			continue
		}
		router.Add(r.Method, r.Path, gate.Protect(r.Operation, r.Policy), h)
		mounted++
	}
	return mounted
}
