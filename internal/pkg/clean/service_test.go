package clean

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/airenas/docread/internal/pkg/persistence"
	"github.com/airenas/docread/internal/pkg/test"
	"github.com/airenas/docread/internal/pkg/test/mocks"
	"github.com/airenas/docread/internal/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

var (
	filerMock *mocks.Filer
	dbMock    *mocks.DB
	tData     *Data
	tEcho     *echo.Echo
)

func initTest(t *testing.T) {
	t.Helper()
	filerMock = &mocks.Filer{}
	dbMock = &mocks.DB{}
	tData = &Data{Store: dbMock, Remover: filerMock}
	tEcho = echo.New()
	require.Nil(t, InitRoutes(tEcho, tData))
}

func testJobs() []*persistence.Job {
	return []*persistence.Job{
		{ID: "1", StoredFile: "1_a.txt", Status: "completed", AudioFile: utils.ToSQLStr("1.wav")},
		{ID: "2", StoredFile: "2_b.pdf", Status: "queued"},
	}
}

func TestWrongMethod(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/clear", nil)
	test.Code(t, tEcho, req, http.StatusMethodNotAllowed)
}

func Test_Clear(t *testing.T) {
	initTest(t)
	dbMock.On("Clear", mock.Anything, false).Return(testJobs(), nil)
	filerMock.On("Delete", mock.Anything, mock.Anything).Return(nil)
	req := httptest.NewRequest(http.MethodPost, "/clear", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.JSONEq(t, `{"deleted":2}`, resp.Body.String())
	filerMock.AssertCalled(t, "Delete", mock.Anything, "uploads/1_a.txt")
	filerMock.AssertCalled(t, "Delete", mock.Anything, "audio/1.wav")
	filerMock.AssertCalled(t, "Delete", mock.Anything, "uploads/2_b.pdf")
	filerMock.AssertNumberOfCalls(t, "Delete", 3)
}

func Test_Clear_Empty(t *testing.T) {
	initTest(t)
	dbMock.On("Clear", mock.Anything, false).Return(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/clear", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.JSONEq(t, `{"deleted":0}`, resp.Body.String())
	filerMock.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func Test_Clear_FileErrorsIgnored(t *testing.T) {
	initTest(t)
	dbMock.On("Clear", mock.Anything, false).Return(testJobs(), nil)
	filerMock.On("Delete", mock.Anything, "uploads/1_a.txt").Return(fmt.Errorf("olia"))
	filerMock.On("Delete", mock.Anything, mock.Anything).Return(nil)
	req := httptest.NewRequest(http.MethodPost, "/clear", nil)
	test.Code(t, tEcho, req, http.StatusOK)
	filerMock.AssertNumberOfCalls(t, "Delete", 3)
}

func Test_Clear_Busy(t *testing.T) {
	initTest(t)
	dbMock.On("Clear", mock.Anything, false).Return(nil, persistence.ErrBusy)
	req := httptest.NewRequest(http.MethodPost, "/clear", nil)
	test.Code(t, tEcho, req, http.StatusConflict)
	filerMock.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func Test_Clear_Force(t *testing.T) {
	initTest(t)
	jobs := append(testJobs(), &persistence.Job{ID: "3", StoredFile: "3_c.txt", Status: "processing"})
	dbMock.On("Clear", mock.Anything, true).Return(jobs, nil)
	filerMock.On("Delete", mock.Anything, mock.Anything).Return(nil)
	req := httptest.NewRequest(http.MethodPost, "/clear?force=true", nil)
	resp := test.Code(t, tEcho, req, http.StatusOK)
	assert.JSONEq(t, `{"deleted":3}`, resp.Body.String())
	dbMock.AssertCalled(t, "Clear", mock.Anything, true)
	filerMock.AssertCalled(t, "Delete", mock.Anything, "uploads/3_c.txt")
}

func Test_Clear_ForceParam(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{name: "none", query: "", want: false},
		{name: "false", query: "?force=false", want: false},
		{name: "one", query: "?force=1", want: true},
		{name: "true", query: "?force=true", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initTest(t)
			dbMock.On("Clear", mock.Anything, tt.want).Return(nil, nil)
			req := httptest.NewRequest(http.MethodPost, "/clear"+tt.query, nil)
			test.Code(t, tEcho, req, http.StatusOK)
			dbMock.AssertCalled(t, "Clear", mock.Anything, tt.want)
		})
	}
}

func Test_Clear_WrongForce(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodPost, "/clear?force=olia", nil)
	test.Code(t, tEcho, req, http.StatusBadRequest)
	dbMock.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func Test_Clear_Fails(t *testing.T) {
	initTest(t)
	dbMock.On("Clear", mock.Anything, false).Return(nil, fmt.Errorf("olia"))
	req := httptest.NewRequest(http.MethodPost, "/clear", nil)
	test.Code(t, tEcho, req, http.StatusInternalServerError)
}

func Test_deleteFiles(t *testing.T) {
	filerMock = &mocks.Filer{}
	filerMock.On("Delete", mock.Anything, "audio/1.wav").Return(fmt.Errorf("olia"))
	filerMock.On("Delete", mock.Anything, "uploads/2_b.pdf").Return(fmt.Errorf("olia2"))
	filerMock.On("Delete", mock.Anything, mock.Anything).Return(nil)
	err := deleteFiles(test.Ctx(t), filerMock, testJobs())
	require.NotNil(t, err)
	assert.Equal(t, 2, len(multierr.Errors(err)))
}

func Test_validate(t *testing.T) {
	type args struct {
		data *Data
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
	}{
		{name: "OK", args: args{data: &Data{Store: &mocks.DB{}, Remover: &mocks.Filer{}}}, wantErr: false},
		{name: "Fail store", args: args{data: &Data{Remover: &mocks.Filer{}}}, wantErr: true},
		{name: "Fail remover", args: args{data: &Data{Store: &mocks.DB{}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validate(tt.args.data); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
