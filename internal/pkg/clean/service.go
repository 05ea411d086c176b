package clean

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/multierr"

	"github.com/airenas/docread/internal/pkg/filer"
	"github.com/airenas/docread/internal/pkg/persistence"
	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo/v4"
)

// Store drops all jobs, returns persistence.ErrBusy if a job is processing and force is not set
type Store interface {
	Clear(ctx context.Context, force bool) ([]*persistence.Job, error)
}

// FileRemover deletes a stored file
type FileRemover interface {
	Delete(ctx context.Context, name string) error
}

// Data keeps data required for service work
type Data struct {
	Store   Store
	Remover FileRemover
}

// Result is the bulk clear response
type Result struct {
	Deleted int `json:"deleted"`
}

// InitRoutes adds /clear handler
func InitRoutes(e *echo.Echo, data *Data) error {
	if err := validate(data); err != nil {
		return err
	}
	e.POST("/clear", clearAll(data))
	return nil
}

func validate(data *Data) error {
	if data.Store == nil {
		return errors.New("no store")
	}
	if data.Remover == nil {
		return errors.New("no file remover")
	}
	return nil
}

func clearAll(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("clear method")()

		force, err := forceParam(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Wrong force param")
		}
		ctx := c.Request().Context()
		jobs, err := data.Store.Clear(ctx, force)
		if err != nil {
			if errors.Is(err, persistence.ErrBusy) {
				goapp.Log.Warn().Msg("clear refused, a job is processing")
				return echo.NewHTTPError(http.StatusConflict, "A job is processing")
			}
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "Can't clear")
		}
		if err := deleteFiles(context.WithoutCancel(ctx), data.Remover, jobs); err != nil {
			goapp.Log.Warn().Err(err).Int("failed", len(multierr.Errors(err))).Msg("some files not deleted")
		}
		goapp.Log.Info().Int("jobs", len(jobs)).Bool("force", force).Msg("cleared")
		return c.JSON(http.StatusOK, Result{Deleted: len(jobs)})
	}
}

// forceParam reads the optional force query flag
func forceParam(c echo.Context) (bool, error) {
	v := c.QueryParam("force")
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// deleteFiles removes uploads and audio of the jobs, errors do not stop the loop
func deleteFiles(ctx context.Context, remover FileRemover, jobs []*persistence.Job) error {
	var err error
	for _, j := range jobs {
		if j.StoredFile != "" {
			err = multierr.Append(err, remover.Delete(ctx, filer.UploadName(j.StoredFile)))
		}
		if j.AudioFile.Valid && j.AudioFile.String != "" {
			err = multierr.Append(err, remover.Delete(ctx, filer.AudioName(j.AudioFile.String)))
		}
	}
	return err
}
