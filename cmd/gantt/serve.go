package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hylla/gantt/internal/adapters/server"
	"github.com/hylla/gantt/internal/adapters/server/common"
	"github.com/hylla/gantt/internal/imagecache"
)

type serveFlags struct {
	httpBind    string
	apiEndpoint string
	mcpEndpoint string
}

// serveRunner is swapped in tests so the command never binds a socket.
var serveRunner = server.Run

func newServeCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve plans over a REST API and an MCP endpoint",
		Example: strings.TrimSpace(`
gantt serve
gantt serve --http 0.0.0.0:9000 --mcp-endpoint /agents/mcp`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(opts, "serve", stderr, func(env *runtimeEnv) error {
				return runServe(cmd.Context(), env, flags, stdout)
			})
		},
	}
	cmd.Flags().StringVar(&flags.httpBind, "http", "", "listen address (config server.http_bind when empty)")
	cmd.Flags().StringVar(&flags.apiEndpoint, "api-endpoint", "", "REST API mount path (config server.api_endpoint when empty)")
	cmd.Flags().StringVar(&flags.mcpEndpoint, "mcp-endpoint", "", "MCP mount path (config server.mcp_endpoint when empty)")
	return cmd
}

func runServe(ctx context.Context, env *runtimeEnv, flags serveFlags, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := server.Config{
		HTTPBind:      firstNonEmpty(flags.httpBind, env.cfg.Server.HTTPBind),
		APIEndpoint:   firstNonEmpty(flags.apiEndpoint, env.cfg.Server.APIEndpoint),
		MCPEndpoint:   firstNonEmpty(flags.mcpEndpoint, env.cfg.Server.MCPEndpoint),
		ServerVersion: version,
	}
	images := imagecache.New(
		imagecache.WithLogger(env.logger.Component("images")),
		imagecache.WithTimeout(10*time.Second),
	)
	plans := common.NewAppServiceAdapter(env.svc, env.cal, uuid.NewString, now, common.RenderDefaults{
		Width:    env.cfg.Export.Width,
		Height:   env.cfg.Export.Height,
		Scale:    env.cfg.Export.Scale,
		Dims:     env.cfg.Dimensions(),
		Settings: env.cfg.ViewSettings(),
		Images:   images,
	})
	_, _ = io.WriteString(stdout, "serving on http://"+cfg.HTTPBind+"\n")
	return serveRunner(ctx, cfg, server.Dependencies{
		Plans:  plans,
		Logger: env.logger.Component("server"),
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
