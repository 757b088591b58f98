package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vibe-transcode-service/ddd/domain/service"
	"vibe-transcode-service/ddd/domain/vo"
	"vibe-transcode-service/ddd/infrastructure/executor"
	"vibe-transcode-service/ddd/infrastructure/prober"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Inspect a media file with ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			profile, err := prober.NewFFprobeProber(cfg.Transcode.FFmpeg.ProbeBinaryPath).Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, profile)
			}
			fmt.Fprintln(cmd.OutOrStdout(), profileTable(*profile))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of a table")
	return cmd
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var (
		overlay   string
		trimStart float64
		trimEnd   float64
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:   "plan <file>",
		Short: "Show the transcode plan and ffmpeg arguments for a file without encoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			ff := cfg.Transcode.FFmpeg
			profile, err := prober.NewFFprobeProber(ff.ProbeBinaryPath).Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var audio *vo.AudioOverlay
			if strings.TrimSpace(overlay) != "" {
				audio, err = vo.NewAudioOverlay(overlay, trimStart, trimEnd)
				if err != nil {
					return err
				}
			}
			plan := service.NewTranscodePlanner(ff.MaxWidth, ff.MaxHeight).Plan(*profile, audio)
			encodeArgs := executor.NewFFmpegExecutor(ff).EncodeArgs(args[0], plan, "<workspace>")

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"profile": profile,
					"plan":    plan,
					"args":    encodeArgs,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, profileTable(*profile))
			fmt.Fprintln(out, planTable(plan))
			fmt.Fprintf(out, "%s %s\n", ff.BinaryPath, strings.Join(encodeArgs, " "))
			return nil
		},
	}
	cmd.Flags().StringVar(&overlay, "overlay", "", "Replacement audio file")
	cmd.Flags().Float64Var(&trimStart, "trim-start", 0, "Overlay trim start in seconds")
	cmd.Flags().Float64Var(&trimEnd, "trim-end", 0, "Overlay trim end in seconds (<= start means until the end)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of tables")
	return cmd
}

func profileTable(p vo.MediaProfile) string {
	return keyValueTable([][2]string{
		{"Resolution", p.Resolution()},
		{"Duration", strconv.FormatFloat(p.DurationSeconds, 'f', 2, 64) + "s"},
		{"Video codec", orDash(p.VideoCodec)},
		{"Audio codec", orDash(p.AudioCodec)},
		{"Has audio", strconv.FormatBool(p.HasAudio)},
		{"Container", orDash(p.FormatName)},
	})
}

func planTable(p vo.TranscodePlan) string {
	pairs := [][2]string{
		{"Downscale", strconv.FormatBool(p.ShouldDownscale)},
		{"Target size", p.TargetSize},
		{"Video map", p.StreamMapping.Video.Specifier()},
		{"Audio map", p.StreamMapping.Audio.Specifier()},
	}
	if p.HasOverlay() {
		pairs = append(pairs, [2]string{"Overlay", p.OverlayPath})
		if p.AudioTrim != nil {
			window := strconv.FormatFloat(p.AudioTrim.Start, 'f', -1, 64) + "s → "
			if p.AudioTrim.Bounded() {
				window += strconv.FormatFloat(p.AudioTrim.End, 'f', -1, 64) + "s"
			} else {
				window += "end"
			}
			pairs = append(pairs, [2]string{"Overlay trim", window})
		}
	}
	return keyValueTable(pairs)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
