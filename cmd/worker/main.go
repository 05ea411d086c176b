package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airenas/docread/internal/pkg/chunker"
	"github.com/airenas/docread/internal/pkg/extract"
	"github.com/airenas/docread/internal/pkg/filer"
	"github.com/airenas/docread/internal/pkg/postgres"
	"github.com/airenas/docread/internal/pkg/synth"
	"github.com/airenas/docread/internal/pkg/worker"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
)

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	data := &worker.ServiceData{}
	ctx := context.Background()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}

	goapp.Log.Info().Int32("max_conn", dbConfig.MaxConns).Int32("min_conn", dbConfig.MinConns).Msg("db info")

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()
	if err := postgres.Migrate(ctx, dbPool); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't migrate db")
	}

	data.GueClient, err = postgres.NewGueClient(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue")
	}
	data.Testing = cfg.GetBool("worker.testing")
	data.Timeout = cfg.GetDuration("worker.timeout")
	data.MaxChars = defaultV(cfg.GetInt("worker.maxChars"), chunker.DefaultMaxChars)
	data.MsgSender, err = postgres.NewSender(data.GueClient)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}
	data.Filer, err = filer.NewFromConfig(ctx, cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init filer")
	}
	data.DB, err = postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}
	data.Extractor = extract.NewExtractor()
	synthesizer, err := synth.NewFromConfig(cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init synthesizer")
	}
	if c, ok := synthesizer.(io.Closer); ok {
		defer c.Close()
	}
	data.Synthesizer = synthesizer
	data.Voice = synth.Voice(cfg)

	printBanner()

	ctx, cancelFunc := context.WithCancel(context.Background())
	doneCh, err := worker.StartWorkerService(ctx, data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start worker service")
	}
	/////////////////////// Waiting for terminate
	waitCh := make(chan os.Signal, 2)
	signal.Notify(waitCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-waitCh:
		goapp.Log.Info().Msg("Got exit signal")
	case <-doneCh:
		goapp.Log.Info().Msg("Service exit")
	}
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

func defaultV[T comparable](v, def T) T {
	var empty T
	if v == empty {
		return def
	}
	return v
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
       __                               __
  ____/ /___  ____________  ____ _____/ /
 / __  / __ \/ ___/ ___/ _ \/ __ ` + "`" + `/ __  / 
/ /_/ / /_/ / /__/ /  /  __/ /_/ / /_/ /  v: %s
                      __            
 _      ______  _____/ /_____  _____
| | /| / / __ \/ ___/ //_/ _ \/ ___/
| |/ |/ / /_/ / /  / ,< /  __/ /    
|__/|__/\____/_/  /_/|_|\___/_/     

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/airenas/docread"))
}
