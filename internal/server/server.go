package server

import (
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/docvault/internal/config"
	"github.com/hashicorp-forge/docvault/pkg/registry"
)

// Server contains the server configuration.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// DB is the database for the server.
	DB *gorm.DB

	// Registry is the document registry backed by DB.
	Registry *registry.Registry

	// Logger is the logger for the server.
	Logger hclog.Logger
}
