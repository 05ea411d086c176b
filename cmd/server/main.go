package main

import (
	"context"
	"fmt"
	"io"
	"time"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/docread/internal/pkg/chunker"
	"github.com/airenas/docread/internal/pkg/clean"
	"github.com/airenas/docread/internal/pkg/extract"
	"github.com/airenas/docread/internal/pkg/filer"
	"github.com/airenas/docread/internal/pkg/memqueue"
	"github.com/airenas/docread/internal/pkg/messages"
	"github.com/airenas/docread/internal/pkg/postgres"
	"github.com/airenas/docread/internal/pkg/result"
	"github.com/airenas/docread/internal/pkg/statusservice"
	"github.com/airenas/docread/internal/pkg/synth"
	"github.com/airenas/docread/internal/pkg/upload"
	"github.com/airenas/docread/internal/pkg/utils"
	"github.com/airenas/docread/internal/pkg/web"
	"github.com/airenas/docread/internal/pkg/worker"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/color"
)

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	st, err := openStore(ctx, cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init store")
	}
	defer st.close()

	fs, err := filer.NewFromConfig(ctx, cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init filer")
	}
	synthesizer, err := synth.NewFromConfig(cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init synthesizer")
	}
	if c, ok := synthesizer.(io.Closer); ok {
		defer c.Close()
	}
	extractor := extract.NewExtractor()

	wsHandler := statusservice.NewWSConnKeeper(statusservice.SendCurrent(st.jobs))
	wData := &worker.ServiceData{DB: st.jobs, Filer: fs, Extractor: extractor, Synthesizer: synthesizer,
		Voice: synth.Voice(cfg), MaxChars: defaultV(cfg.GetInt("worker.maxChars"), chunker.DefaultMaxChars), Timeout: cfg.GetDuration("worker.timeout"),
		Testing: cfg.GetBool("worker.testing")}
	hData := &statusservice.HandlerData{DB: st.jobs, WSHandler: wsHandler, WorkerCount: 1}

	var sender upload.MsgSender
	var workerDone, statusDone <-chan struct{}
	switch qt := defaultV(cfg.GetString("queue.type"), "memory"); qt {
	case "memory":
		broker := memqueue.NewBroker()
		sender, wData.MsgSender = broker, broker
		if workerDone, err = worker.StartMemoryWorker(ctx, wData, broker); err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't start worker")
		}
		if statusDone, err = statusservice.StartMemoryStatusHandler(ctx, hData, broker); err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't start status handler")
		}
		if err := requeue(ctx, st.queued, broker); err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't requeue jobs")
		}
	case "postgres":
		if st.pool == nil {
			goapp.Log.Fatal().Msg("postgres queue requires postgres db.url")
		}
		gc, err := postgres.NewGueClient(st.pool)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init gue")
		}
		gSender, err := postgres.NewSender(gc)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
		}
		sender, wData.MsgSender = gSender, gSender
		wData.GueClient, hData.GueClient = gc, gc
		if workerDone, err = worker.StartWorkerService(ctx, wData); err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't start worker")
		}
		if statusDone, err = statusservice.StartStatusHandler(ctx, hData); err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't start status handler")
		}
	default:
		goapp.Log.Fatal().Str("type", qt).Msg("unknown queue.type")
	}

	e, err := web.InitRoutes(
		web.DBLive(st.live),
		func(e *echo.Echo) error {
			return upload.InitRoutes(e, &upload.Data{Saver: fs, DB: st.jobs, MsgSender: sender, Formats: extractor,
				MaxSize: cfg.GetString("upload.maxSize")})
		},
		func(e *echo.Echo) error {
			return statusservice.InitRoutes(e, &statusservice.Data{DB: st.jobs, WSHandler: wsHandler})
		},
		func(e *echo.Echo) error { return result.InitRoutes(e, &result.Data{Reader: fs}) },
		func(e *echo.Echo) error { return clean.InitRoutes(e, &clean.Data{Store: st.cleaner, Remover: fs}) },
	)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init routes")
	}

	printBanner()
	go utils.RunPerfEndpoint()

	if err := web.StartWebServer(cfg.GetInt("port"), e); err != nil {
		goapp.Log.Error().Err(err).Msg("can't start web server")
	}
	cancelFunc()
	waitAll(time.Second*15, workerDone, statusDone)
}

// requeue puts queued jobs left from the previous run into the in memory queue
func requeue(ctx context.Context, qp queuedProvider, sender interface {
	SendMessage(context.Context, amessages.Message, string) error
}) error {
	ids, err := qp.GetQueued(ctx)
	if err != nil {
		return fmt.Errorf("can't get queued jobs: %w", err)
	}
	for _, id := range ids {
		if err := sender.SendMessage(ctx, messages.NewJobMessage(id), messages.Work); err != nil {
			return fmt.Errorf("can't requeue %s: %w", id, err)
		}
	}
	if len(ids) > 0 {
		goapp.Log.Info().Int("jobs", len(ids)).Msg("requeued")
	}
	return nil
}

func waitAll(timeout time.Duration, chs ...<-chan struct{}) {
	ta := time.After(timeout)
	for _, ch := range chs {
		select {
		case <-ch:
		case <-ta:
			goapp.Log.Warn().Msg("Timeout gracefull shutdown")
			return
		}
	}
	goapp.Log.Info().Msg("All code returned. Now exit. Bye")
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
/ /_/ / /_/ / /__/ /  /  __/ /_/ / /_/ /  
\__,_/\____/\___/_/   \___/\__,_/\__,_/   v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/airenas/docread"))
}
