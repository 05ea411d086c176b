package result

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"

	"github.com/airenas/docread/internal/pkg/filer"
	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo/v4"
)

// FileReader loads file by name
type FileReader interface {
	LoadFile(ctx context.Context, name string) (io.ReadSeekCloser, error)
}

// Data keeps data required for service work
type Data struct {
	Reader FileReader
}

// InitRoutes adds uploaded document and audio download handlers
func InitRoutes(e *echo.Echo, data *Data) error {
	if err := validate(data); err != nil {
		return err
	}
	e.GET("/uploads/:name", download(data, filer.UploadDir))
	e.HEAD("/uploads/:name", download(data, filer.UploadDir))
	e.GET("/audio/:name", download(data, filer.AudioDir))
	e.HEAD("/audio/:name", download(data, filer.AudioDir))
	return nil
}

func validate(data *Data) error {
	if data.Reader == nil {
		return errors.New("no file reader")
	}
	return nil
}

func download(data *Data, dir string) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("download method")()

		name := c.Param("name")
		if name == "" || name != path.Base(name) || name == "." || name == ".." {
			return echo.NewHTTPError(http.StatusBadRequest, "Wrong name")
		}
		return serveFile(c, data, path.Join(dir, name))
	}
}

func serveFile(c echo.Context, data *Data, name string) error {
	goapp.Log.Info().Str("file", goapp.Sanitize(name)).Msg("loading")
	file, err := data.Reader.LoadFile(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, filer.ErrNotFound) {
			goapp.Log.Warn().Err(err).Send()
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		goapp.Log.Error().Err(err).Send()
		return echo.NewHTTPError(http.StatusInternalServerError, "Can't get file")
	}
	defer file.Close()
	stGetter, ok := file.(interface{ Stat() (fs.FileInfo, error) })
	if !ok {
		goapp.Log.Error().Msg(`file does not implement "interface{ Stat() (fs.FileInfo, error)"`)
		return echo.NewHTTPError(http.StatusInternalServerError, "Can't get file stat")
	}
	stat, err := stGetter.Stat()
	if err != nil {
		goapp.Log.Error().Err(err).Send()
		return echo.NewHTTPError(http.StatusInternalServerError, "Can't get file stat")
	}

	w := c.Response()
	w.Header().Set("Content-Disposition", "attachment; filename="+path.Base(name))
	http.ServeContent(w, c.Request(), stat.Name(), stat.ModTime(), file)
	return nil
}
