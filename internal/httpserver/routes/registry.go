// Package routes mounts the API endpoints. Each group registers itself
// from init; server.New mounts them all with RegisterAll.
package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
)

// Registrar mounts one group of routes.
type Registrar func(r chi.Router, d deps.Deps)

type group struct {
	name string
	reg  Registrar
}

var groups []group

// Register adds a named route group. Groups mount in registration order.
func Register(name string, reg Registrar) {
	groups = append(groups, group{name: name, reg: reg})
}

// RegisterAll mounts every registered group on r.
func RegisterAll(r chi.Router, d deps.Deps) {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		g.reg(r, d)
		names = append(names, g.name)
	}
	if d.Logger != nil {
		d.Logger.Debug("routes mounted", logger.Strings("groups", names))
	}
}
