// Package httpapi exposes an operator-only introspection surface: registry
// contents, a reload trigger, and aggregate stats. It is not a user-facing
// report (spec.md's Non-goals explicitly exclude those) — every response
// here describes the pipeline's own configuration and counters, never a
// per-message verdict.
package httpapi

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ridgeline-security/symscore/pkg/registry"
)

// Server wraps the admin HTTP surface around a registry and a bearer token.
type Server struct {
	app   *fiber.App
	reg   *registry.Registry
	token string

	reloadPath string
}

// New builds the admin app with its three routes registered. reloadPath is
// the YAML file Reload re-reads; a non-empty token gates every request via
// a bearer check, and an empty token leaves every route open.
func New(reg *registry.Registry, reloadPath, token string) *Server {
	s := &Server{
		app:        fiber.New(),
		reg:        reg,
		token:      token,
		reloadPath: reloadPath,
	}

	s.app.Use(s.authenticate)
	s.app.Get("/registry", s.handleRegistry)
	s.app.Post("/registry/reload", s.handleReload)
	s.app.Get("/stats", s.handleStats)

	return s
}

// Listen starts serving on addr; blocks until the server stops or errors.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) authenticate(c fiber.Ctx) error {
	if s.token == "" {
		return c.Next()
	}
	auth := c.Get("Authorization")
	if auth != "Bearer "+s.token {
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	return c.Next()
}

func (s *Server) handleRegistry(c fiber.Ctx) error {
	symbols, groups := s.reg.Snapshot()
	return c.JSON(fiber.Map{
		"symbols": symbols,
		"groups":  groups,
	})
}

func (s *Server) handleReload(c fiber.Ctx) error {
	if err := s.reg.Reload(s.reloadPath); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleStats(c fiber.Ctx) error {
	symbols, groups := s.reg.Snapshot()
	return c.JSON(fiber.Map{
		"symbol_count": len(symbols),
		"group_count":  len(groups),
	})
}
