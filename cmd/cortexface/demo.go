package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/normanking/cortexface/internal/face"
	"github.com/spf13/cobra"
)

type demoStep struct {
	label    string
	emotions face.EmotionVector
	hold     time.Duration
}

func demoScript() []demoStep {
	neutral := face.EmotionVector{}
	return []demoStep{
		{"happy", neutral.With(face.Happiness, 0.8).With(face.Surprise, 0.2), 1500 * time.Millisecond},
		{"surprised", neutral.With(face.Surprise, 0.9).With(face.Fear, 0.3), 1500 * time.Millisecond},
		{"sad", neutral.With(face.Sadness, 0.7), 1500 * time.Millisecond},
		{"angry", neutral.With(face.Anger, 0.8).With(face.Disgust, 0.4).With(face.Sadness, 0.1), 1500 * time.Millisecond},
		{"neutral", neutral, time.Second},
	}
}

var demoChannels = []face.Channel{
	face.InnerBrowRaise,
	face.BrowLower,
	face.UpperLidRaise,
	face.CheekRaise,
	face.LipCornerPull,
	face.LipCornerDepress,
	face.JawDrop,
	face.EyeBlinkLeft,
}

func newDemoCmd(flags *globalFlags) *cobra.Command {
	var (
		fps   int
		every time.Duration
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Play a scripted emotion sequence and print the channel values",
		Long:  "Runs one face through a fixed emotion script in simulated time, printing a row of channel values at a fixed interval.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			defer logger.Close()

			fc, err := cfg.FaceSettings()
			if err != nil {
				return err
			}
			f, err := face.New(fc, nil, face.WithLogger(logger.Component("face")))
			if err != nil {
				return err
			}
			if fps <= 0 {
				return fmt.Errorf("fps must be positive, got %d", fps)
			}
			return playDemo(cmd.OutOrStdout(), f, demoScript(), time.Second/time.Duration(fps), every)
		},
	}
	cmd.Flags().IntVar(&fps, "fps", 60, "simulated frame rate")
	cmd.Flags().DurationVar(&every, "every", 250*time.Millisecond, "print interval")
	return cmd
}

func playDemo(w io.Writer, f *face.Face, script []demoStep, dt, every time.Duration) error {
	header := []string{fmt.Sprintf("%-8s", "t"), fmt.Sprintf("%-10s", "step")}
	for _, ch := range demoChannels {
		header = append(header, fmt.Sprintf("%16s", ch))
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, " ")); err != nil {
		return err
	}

	var now, printed time.Duration
	for _, step := range script {
		f.SetEmotions(step.emotions, 0)
		for elapsed := time.Duration(0); elapsed < step.hold; elapsed += dt {
			frame := f.Tick(dt)
			now += dt
			if now-printed < every {
				continue
			}
			printed = now

			row := []string{fmt.Sprintf("%-8s", now.Truncate(time.Millisecond)), fmt.Sprintf("%-10s", step.label)}
			for _, ch := range demoChannels {
				row = append(row, fmt.Sprintf("%16.3f", frame.Get(ch)))
			}
			if _, err := fmt.Fprintln(w, strings.Join(row, " ")); err != nil {
				return err
			}
		}
	}
	return nil
}
