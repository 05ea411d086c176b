package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/docread/internal/pkg/api"
	"github.com/airenas/docread/internal/pkg/filer"
	"github.com/airenas/docread/internal/pkg/messages"
	"github.com/airenas/docread/internal/pkg/persistence"
	"github.com/airenas/docread/internal/pkg/status"
	"github.com/airenas/docread/internal/pkg/utils"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// FileSaver provides save file functionality
type FileSaver interface {
	SaveFile(ctx context.Context, name string, r io.Reader) error
}

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// DB saves and lists jobs
type DB interface {
	InsertJob(ctx context.Context, job *persistence.Job) error
	ListJobs(ctx context.Context) ([]*persistence.Job, error)
}

// FormatChecker tells if the document format is supported
type FormatChecker interface {
	Supported(fileName string) bool
}

// Data keeps data required for service work
type Data struct {
	Saver     FileSaver
	DB        DB
	MsgSender MsgSender
	Formats   FormatChecker
	// MaxSize of the upload body, echo format: 16M
	MaxSize string
}

// DefaultMaxSize is used if no size is configured
const DefaultMaxSize = "16M"

// InitRoutes adds /upload and /jobs handlers
func InitRoutes(e *echo.Echo, data *Data) error {
	if err := validate(data); err != nil {
		return err
	}
	size := data.MaxSize
	if size == "" {
		size = DefaultMaxSize
	}
	e.POST("/upload", upload(data), middleware.BodyLimit(size))
	e.GET("/jobs", list(data))
	return nil
}

func validate(data *Data) error {
	if data.Saver == nil {
		return errors.New("no file saver")
	}
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.MsgSender == nil {
		return fmt.Errorf("no msg sender")
	}
	if data.Formats == nil {
		return fmt.Errorf("no format checker")
	}
	return nil
}

func upload(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("upload method")()
		ctx := c.Request().Context()

		form, err := c.MultipartForm()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "no multipart form data")
		}
		defer cleanFiles(form)

		fh, err := takeFileHeader(form, data.Formats)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		file, err := fh.Open()
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "can't read file")
		}
		defer file.Close()

		job := &persistence.Job{ID: uuid.New().String(), Status: status.Queued.String()}
		job.Filename, _ = utils.SanitizeFileName(fh.Filename)
		job.StoredFile, _ = utils.MakeValidateFileName(job.ID, fh.Filename)
		job.Created = time.Now()
		job.Updated = job.Created

		if err := data.Saver.SaveFile(ctx, filer.UploadName(job.StoredFile), file); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		if err := data.DB.InsertJob(ctx, job); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		if err := data.MsgSender.SendMessage(ctx, messages.NewJobMessage(job.ID), messages.Work); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		goapp.Log.Info().Str("ID", job.ID).Str("file", job.StoredFile).Msg("job queued")
		return c.JSON(http.StatusOK, api.UploadResult{ID: job.ID})
	}
}

func list(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("list method")()
		jobs, err := data.DB.ListJobs(c.Request().Context())
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		res := make([]*api.Job, 0, len(jobs))
		for _, j := range jobs {
			res = append(res, api.FromJob(j))
		}
		return c.JSON(http.StatusOK, res)
	}
}

func cleanFiles(f *multipart.Form) {
	if f != nil {
		_ = f.RemoveAll()
	}
}

func takeFileHeader(form *multipart.Form, formats FormatChecker) (*multipart.FileHeader, error) {
	if form == nil || len(form.File[api.PrmFile]) == 0 {
		return nil, errors.Errorf("no form file parameter '%s'", api.PrmFile)
	}
	if len(form.File[api.PrmFile]) > 1 {
		return nil, errors.New("only one file expected")
	}
	res := form.File[api.PrmFile][0]
	if res.Filename == "" {
		return nil, errors.New("no file name")
	}
	if res.Size == 0 {
		return nil, errors.New("empty file")
	}
	name, err := utils.SanitizeFileName(res.Filename)
	if err != nil {
		return nil, errors.Wrap(err, "wrong file name")
	}
	if !formats.Supported(name) {
		return nil, errors.Errorf("unsupported file format '%s'", res.Filename)
	}
	return res, nil
}
