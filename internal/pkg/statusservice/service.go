package statusservice

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/airenas/docread/internal/pkg/api"
	"github.com/airenas/docread/internal/pkg/persistence"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo/v4"
)

// DB loads job info
type DB interface {
	LoadJob(ctx context.Context, id string) (*persistence.Job, error)
}

// WSConnHandler WebSocket connection wrapper
type WSConnHandler interface {
	HandleConnection(WsConn) error
	GetConnections(id string) ([]WsConn, bool)
}

// Data keeps data required for service work
type Data struct {
	DB        DB
	WSHandler WSConnHandler
}

// InitRoutes adds /status/:id and /subscribe handlers
func InitRoutes(e *echo.Echo, data *Data) error {
	if err := validate(data); err != nil {
		return err
	}
	e.GET("/status/:id", statusHandler(data))
	e.GET("/subscribe", subscribeHandler(data))
	return nil
}

func statusHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("status method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		job, err := data.DB.LoadJob(c.Request().Context(), id)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "Service error")
		}
		if job == nil {
			return c.JSON(http.StatusNotFound, unknown())
		}
		return c.JSON(http.StatusOK, api.FromJob(job))
	}
}

func unknown() *api.UnknownJob {
	return &api.UnknownJob{Status: "unknown"}
}

// loadStatus returns the status response for websocket clients, unknown jobs included
func loadStatus(ctx context.Context, db DB, id string) (interface{}, error) {
	job, err := db.LoadJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cannot get job %s: %w", id, err)
	}
	if job == nil {
		return unknown(), nil
	}
	return api.FromJob(job), nil
}

// SendCurrent writes the current job status to the new subscriber
func SendCurrent(db DB) func(WsConn, string) {
	return func(c WsConn, id string) {
		res, err := loadStatus(context.Background(), db, id)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return
		}
		if err := sendMsg(c, id, res); err != nil {
			goapp.Log.Error().Err(err).Send()
		}
	}
}

func validate(data *Data) error {
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.WSHandler == nil {
		return fmt.Errorf("no WSHandler")
	}
	return nil
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

func subscribeHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return err
		}
		defer ws.Close()

		return data.WSHandler.HandleConnection(ws)
	}
}
