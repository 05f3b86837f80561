// Package mcp provides an MCP (Model Context Protocol) server for lifesim.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/lifesim/internal/config"
	"github.com/nvandessel/lifesim/internal/ratelimit"
	"github.com/nvandessel/lifesim/internal/store"
)

// Server wraps the MCP SDK server and exposes simulation tools.
type Server struct {
	server       *sdk.Server
	store        *store.RunStore
	defaults     *config.Config
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "lifesim")
	Version string // Server version
	Dir     string // Store directory holding lifesim.db and audit.jsonl

	// Defaults supplies values for tool arguments left unset. Nil means
	// config.Default().
	Defaults *config.Config
	Logger   *slog.Logger
}

// NewServer opens the run store and registers the lifesim tools.
func NewServer(cfg *Config) (*Server, error) {
	runStore, err := store.Open(context.Background(), cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}

	defaults := cfg.Defaults
	if defaults == nil {
		defaults = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		store:        runStore,
		defaults:     defaults,
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  NewAuditLogger(cfg.Dir),
		logger:       logger,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until the client disconnects or ctx is cancelled,
// then closes the run store and audit log. Callers own signal handling.
func (s *Server) Run(ctx context.Context) error {
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.Close()
	return err
}

// Close closes the store and audit log.
func (s *Server) Close() error {
	s.auditLogger.Close()
	return s.store.Close()
}
