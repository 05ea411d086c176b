package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RouteAdder registers handlers of one service
type RouteAdder func(e *echo.Echo) error

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("docread", nil)
}

// InitRoutes creates echo with logger, metrics and /live endpoint and adds routes of all services
func InitRoutes(adders ...RouteAdder) (*echo.Echo, error) {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)
	e.GET("/live", live)

	for _, a := range adders {
		if err := a(e); err != nil {
			return nil, err
		}
	}

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e, nil
}

// StartWebServer serves until a termination signal
func StartWebServer(port int, e *echo.Echo) error {
	if port <= 0 {
		return fmt.Errorf("no port")
	}
	goapp.Log.Info().Int("port", port).Msg("Starting HTTP docread service")
	e.Server.Addr = ":" + strconv.Itoa(port)
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 180 * time.Second
	e.Server.WriteTimeout = 5 * time.Minute

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

// DBLive adds /live/db reporting if the job store responds
func DBLive(check func(context.Context) error) RouteAdder {
	return func(e *echo.Echo) error {
		if check == nil {
			return fmt.Errorf("no db check")
		}
		e.GET("/live/db", func(c echo.Context) error {
			if err := check(c.Request().Context()); err != nil {
				goapp.Log.Error().Err(err).Msg("db live check")
				return c.JSONBlob(http.StatusServiceUnavailable, []byte(`{"db":"FAIL"}`))
			}
			return c.JSONBlob(http.StatusOK, []byte(`{"db":"OK"}`))
		})
		return nil
	}
}

func live(c echo.Context) error {
	return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
}
