// Package cli implements the airstream command-line client.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"airstream/internal/client"
	"airstream/internal/media"
	"airstream/internal/platform/config"
	"airstream/internal/selection"
)

const defaultServer = "http://localhost:8080"

type app struct {
	server string
	http   *http.Client
	out    io.Writer
}

// NewRootCmd builds the command tree. Output goes to out; a nil httpClient
// uses http.DefaultClient.
func NewRootCmd(out io.Writer, httpClient *http.Client) *cobra.Command {
	a := &app{http: httpClient, out: out}

	root := &cobra.Command{
		Use:           "airstream",
		Short:         "Fetch YouTube video information and download a chosen format",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.server, "server",
		config.GetEnv("AIRSTREAM_SERVER", defaultServer), "airstream server base URL")

	root.AddCommand(a.infoCmd(), a.downloadCmd())
	return root
}

// Execute runs the CLI and prints a failure as a single red line.
func Execute() int {
	_ = config.Load()
	cmd := NewRootCmd(os.Stdout, nil)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		return 1
	}
	return 0
}

func (a *app) client() *client.Client {
	return client.New(a.server, a.http)
}

// fetch drives a session through one info request.
func (a *app) fetch(ctx context.Context, s *selection.Session, url string) (*media.VideoInfo, error) {
	f := s.BeginFetch(ctx, url)
	info, err := a.client().Info(f.Ctx, f.URL)
	if err != nil {
		_ = s.FailFetch(f, err)
		return nil, err
	}
	if err := s.CompleteFetch(f, info); err != nil {
		return nil, err
	}
	return info, nil
}
