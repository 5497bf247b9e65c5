package serve_lsp

import (
	"context"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/jinjals/jinjals/pkg/config"
	"github.com/jinjals/jinjals/pkg/lsp"
)

type Handler struct {
	debug      bool
	configPath string
}

func NewServeLSPCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server",
	}

	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")
	cmd.Flags().StringVar(&me.configPath, "config", "", "path to a jinjals.hcl configuration file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context())
	}

	return cmd
}

type RPCLogger struct {
}

func (me *RPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	zerolog.Ctx(ctx).Debug().Str("rpc_params", req.ParamString()).Str("rpc_id", req.ID()).Str("rpc_method", req.Method()).Msg("client request")
}

func (me *RPCLogger) LogResponse(ctx context.Context, res *jrpc2.Response) {
	zerolog.Ctx(ctx).Debug().Str("rpc_params", res.ResultString()).Str("rpc_id", res.ID()).Msg("server response")
}

func (me *Handler) Run(ctx context.Context) error {
	level := zerolog.InfoLevel
	if me.debug {
		level = zerolog.DebugLevel
	}

	// stdout carries the protocol, so all logging goes to stderr
	logger := zerolog.New(os.Stderr).Level(level).With().
		Str("component", "lsp-server").
		Timestamp().
		Logger()
	ctx = logger.WithContext(ctx)

	fsys := afero.NewOsFs()

	cfg := config.Default()
	if me.configPath != "" {
		loaded, err := config.Load(fsys, me.configPath)
		if err != nil {
			return errors.Errorf("loading configuration: %w", err)
		}
		cfg = loaded
	}

	server, err := lsp.NewServer(ctx, cfg, fsys)
	if err != nil {
		return errors.Errorf("building language server: %w", err)
	}

	opts := &jrpc2.ServerOptions{
		RPCLog: &RPCLogger{},
	}

	if err := server.Run(ctx, os.Stdin, os.Stdout, opts); err != nil {
		return errors.Errorf("running language server: %w", err)
	}

	return nil
}
