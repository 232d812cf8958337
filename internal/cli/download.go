package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"airstream/internal/media"
	"airstream/internal/selection"
)

type downloadFlags struct {
	audio  bool
	itag   string
	output string
}

func (a *app) downloadCmd() *cobra.Command {
	var flags downloadFlags

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download a format (best available by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := selection.NewSession()
			if _, err := a.fetch(cmd.Context(), s, args[0]); err != nil {
				return err
			}

			if flags.audio {
				s.SelectKind(selection.TabAudio)
			}
			itag := flags.itag
			if itag == "" {
				formats := s.Formats()
				if len(formats) == 0 {
					return fmt.Errorf("no %s formats available", s.Tab())
				}
				itag = formats[0].Identifier
			}
			if err := s.Select(itag); err != nil {
				if errors.Is(err, selection.ErrUnknownFormat) {
					return fmt.Errorf("itag %s is not a %s format of this video", itag, s.Tab())
				}
				return err
			}

			req, err := s.DownloadRequest()
			if err != nil {
				return err
			}
			return a.download(cmd, req, flags.output)
		},
	}

	cmd.Flags().BoolVar(&flags.audio, "audio", false, "download an audio-only format as mp3")
	cmd.Flags().StringVar(&flags.itag, "itag", "", "format identifier from 'airstream info'")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file, '-' for stdout (default: sanitized title)")
	return cmd
}

func (a *app) download(cmd *cobra.Command, req media.DownloadRequest, output string) error {
	if output == "" {
		output = media.SanitizeTitle(req.SuggestedTitle) + "." + req.Container.Extension()
	}

	var dst io.Writer = a.out
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		dst = f
	}

	res, err := a.client().Download(cmd.Context(), req, dst)
	if err != nil {
		if output != "-" {
			_ = os.Remove(output)
		}
		return err
	}

	if output != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s (%s, %s)\n", output, media.FormatSize(res.Bytes), res.ContentType)
	}
	return nil
}
