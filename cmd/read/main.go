package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/airenas/docread/internal/pkg/audio"
	"github.com/airenas/docread/internal/pkg/chunker"
	"github.com/airenas/docread/internal/pkg/extract"
	"github.com/airenas/docread/internal/pkg/synth"
	"github.com/airenas/docread/internal/pkg/worker"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, cf := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cf()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:          "read <document>",
		Short:        "Reads a txt, JATS xml or pdf document into a WAV file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, args[0])
		},
	}
	f := cmd.Flags()
	f.StringP("out", "o", "", "output WAV file (default <document>.wav)")
	f.String("synth-type", "exec", "synthesizer: exec, http or fake")
	f.String("synth-cmd", "", "synthesizer command for the exec type")
	f.String("synth-url", "", "synthesizer URL for the http type")
	f.String("voice", synth.DefaultVoice, "voice")
	f.Int("max-chars", chunker.DefaultMaxChars, "max chunk length")
	for k, fl := range map[string]string{"out": "out", "synth.type": "synth-type", "synth.cmd": "synth-cmd",
		"synth.url": "synth-url", "synth.voice": "voice", "worker.maxChars": "max-chars"} {
		_ = v.BindPFlag(k, f.Lookup(fl))
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return cmd
}

func run(ctx context.Context, v *viper.Viper, in string) error {
	start := time.Now()
	ex := extract.NewExtractor()
	if !ex.Supported(in) {
		return fmt.Errorf("unsupported file '%s'", in)
	}
	doc := ex.Extract(ctx, in)
	if doc.Title == "" && doc.Abstract == "" && len(doc.Sections) == 0 {
		return fmt.Errorf("no content found in '%s'", in)
	}
	chunks := chunker.Build(doc, v.GetInt("worker.maxChars"))

	s, err := synth.NewFromConfig(v)
	if err != nil {
		return err
	}
	if c, ok := s.(io.Closer); ok {
		defer c.Close()
	}
	done := 0
	samples, err := worker.Narrate(ctx, chunks, s, synth.Voice(v), func(context.Context) error {
		done++
		goapp.Log.Info().Msgf("chunk %d/%d", done, len(chunks))
		return nil
	})
	if err != nil {
		return err
	}
	out := outName(in, v.GetString("out"))
	if err := writeWAV(out, samples); err != nil {
		return err
	}
	goapp.Log.Info().Str("file", out).Int("chunks", len(chunks)).Dur("took", time.Since(start)).Msg("done")
	return nil
}

func outName(in, out string) string {
	if out != "" {
		return out
	}
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".wav"
}

func writeWAV(name string, samples audio.Segment) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("can't create %s: %w", name, err)
	}
	if err := audio.WriteWAV(f, samples, audio.SampleRate); err != nil {
		f.Close()
		return fmt.Errorf("can't write wav: %w", err)
	}
	return f.Close()
}
