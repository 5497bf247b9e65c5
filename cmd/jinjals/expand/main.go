package expand

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/jinjals/jinjals/pkg/expand"
	"github.com/jinjals/jinjals/pkg/snippets"
)

type Handler struct {
	indent      string
	useTabs     bool
	noSnippets  bool
	showMarkers bool
}

// NewExpandCommand expands abbreviations given as arguments and prints the
// resulting markup to stdout, one result per argument.
func NewExpandCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "expand [abbreviation...]",
		Short: "expand abbreviations to markup",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.Flags().StringVar(&me.indent, "indent", "    ", "indentation unit for nested elements")
	cmd.Flags().BoolVar(&me.useTabs, "tabs", false, "indent with tabs instead of spaces")
	cmd.Flags().BoolVar(&me.noSnippets, "no-snippets", false, "skip snippet trigger lookup")
	cmd.Flags().BoolVar(&me.showMarkers, "markers", true, "keep placeholder markers in the output")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd, args)
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, cmd *cobra.Command, args []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx = logger.WithContext(ctx)

	indent := me.indent
	if me.useTabs {
		indent = "\t"
	}

	var registry *snippets.Registry
	if !me.noSnippets {
		registry = snippets.NewRegistry()
	}
	expander := expand.NewExpander(registry, expand.Options{Indent: indent})

	var errs error
	for _, arg := range args {
		res, err := expander.Expand(ctx, arg)
		if err != nil {
			errs = multierr.Append(errs, errors.Errorf("expanding %q: %w", arg, err))
			continue
		}
		text := res.Text
		if !me.showMarkers {
			text = stripMarkers(text)
		}
		cmd.Println(text)
	}

	return errs
}

// stripMarkers removes $N placeholder markers so the output is plain markup.
func stripMarkers(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '$' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			i++
			for i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
				i++
			}
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
