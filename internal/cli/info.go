package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"airstream/internal/media"
	"airstream/internal/selection"
)

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <url>",
		Short: "Show title, duration and available formats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := selection.NewSession()
			info, err := a.fetch(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			bold.Fprintln(a.out, info.Title)
			fmt.Fprintf(a.out, "Duration: %s\n", media.FormatDuration(info.DurationSeconds))
			if info.AuthorName != "" {
				fmt.Fprintf(a.out, "Author:   %s\n", info.AuthorName)
			}
			if info.ThumbnailURL != "" {
				fmt.Fprintf(a.out, "Thumb:    %s\n", info.ThumbnailURL)
			}

			for _, tab := range []selection.Tab{selection.TabVideo, selection.TabAudio} {
				s.SelectKind(tab)
				formats := s.Formats()
				if len(formats) == 0 {
					continue
				}
				fmt.Fprintln(a.out)
				writeFormats(a.out, tab, formats)
			}
			return nil
		},
	}
}

func writeFormats(out io.Writer, tab selection.Tab, formats []media.NormalizedFormat) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if tab == selection.TabAudio {
		fmt.Fprintln(tw, "ITAG\tQUALITY\tCONTAINER\tSIZE")
		for _, f := range formats {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Identifier, f.QualityLabel, f.Container, f.SizeLabel)
		}
	} else {
		fmt.Fprintln(tw, "ITAG\tQUALITY\tKIND\tCONTAINER\tSIZE\tFPS")
		for _, f := range formats {
			fps := "-"
			if f.FrameRate > 0 {
				fps = fmt.Sprint(f.FrameRate)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", f.Identifier, f.QualityLabel, f.MediaKind, f.Container, f.SizeLabel, fps)
		}
	}
	_ = tw.Flush()
}
