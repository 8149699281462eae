// Package cmd provides common initialization for the hookline binaries.
package cmd

import (
	"log/slog"

	httprequestaction "github.com/hookline/hookline/pkg/actions/httprequest"
	logaction "github.com/hookline/hookline/pkg/actions/log"
	transformaction "github.com/hookline/hookline/pkg/actions/transform"
	"github.com/hookline/hookline/pkg/registry"
)

// NewRegistry builds the action registry with the built-in action types.
// Deployments embedding hookline register their own factories on top.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterAction(logaction.NewActionFactory())
	reg.RegisterAction(httprequestaction.NewActionFactory())
	reg.RegisterAction(transformaction.NewActionFactory())

	return reg
}
