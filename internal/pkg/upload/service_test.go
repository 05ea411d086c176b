package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/airenas/docread/internal/pkg/api"
	"github.com/airenas/docread/internal/pkg/extract"
	"github.com/airenas/docread/internal/pkg/messages"
	"github.com/airenas/docread/internal/pkg/persistence"
	"github.com/airenas/docread/internal/pkg/test"
	"github.com/airenas/docread/internal/pkg/test/mocks"
	"github.com/airenas/docread/internal/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	filerMock  *mocks.Filer
	dbMock     *mocks.DB
	senderMock *mocks.Sender
	tData      *Data
	tEcho      *echo.Echo
)

func initTest(t *testing.T) {
	t.Helper()
	filerMock = &mocks.Filer{}
	dbMock = &mocks.DB{}
	senderMock = &mocks.Sender{}
	tData = &Data{Saver: filerMock, DB: dbMock, MsgSender: senderMock, Formats: extract.NewExtractor()}
	tEcho = echo.New()
	require.Nil(t, InitRoutes(tEcho, tData))
	filerMock.On("SaveFile", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	dbMock.On("InsertJob", mock.Anything, mock.Anything).Return(nil)
	senderMock.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func newTestRequest(t *testing.T, param, file, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if param != "" {
		part, err := writer.CreateFormFile(param, file)
		require.Nil(t, err)
		_, err = io.Copy(part, strings.NewReader(content))
		require.Nil(t, err)
	}
	require.Nil(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestWrongPath(t *testing.T) {
	initTest(t)
	test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, "/invalid", nil), http.StatusNotFound)
}

func TestWrongMethod(t *testing.T) {
	initTest(t)
	test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, "/upload", nil), http.StatusMethodNotAllowed)
}

func TestUpload(t *testing.T) {
	initTest(t)
	resp := test.Code(t, tEcho, newTestRequest(t, "file", "My paper.TXT", "Hello"), http.StatusOK)
	res := test.Decode[api.UploadResult](t, resp.Result())
	require.NotEmpty(t, res.ID)

	require.Len(t, dbMock.Calls, 1)
	job := dbMock.Calls[0].Arguments.Get(1).(*persistence.Job)
	assert.Equal(t, res.ID, job.ID)
	assert.Equal(t, "queued", job.Status)
	assert.Equal(t, "My_paper.txt", job.Filename)
	assert.Equal(t, res.ID+"_My_paper.txt", job.StoredFile)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, 0, job.TotalChunks)
	assert.False(t, job.AudioFile.Valid)
	assert.WithinDuration(t, time.Now(), job.Created, time.Minute)

	filerMock.AssertCalled(t, "SaveFile", mock.Anything, "uploads/"+res.ID+"_My_paper.txt", mock.Anything)
	require.Len(t, senderMock.Calls, 1)
	assert.Equal(t, messages.NewJobMessage(res.ID), senderMock.Calls[0].Arguments.Get(1))
	assert.Equal(t, messages.Work, senderMock.Calls[0].Arguments.String(2))
}

func TestUpload_UniqueIDs(t *testing.T) {
	initTest(t)
	ids := map[string]bool{}
	for i := 0; i < 5; i++ {
		resp := test.Code(t, tEcho, newTestRequest(t, "file", "a.xml", "<a/>"), http.StatusOK)
		ids[test.Decode[api.UploadResult](t, resp.Result()).ID] = true
	}
	assert.Len(t, ids, 5)
}

func TestUpload_400(t *testing.T) {
	tests := []struct {
		name, param, file, content string
	}{
		{name: "no file", param: "", file: "", content: ""},
		{name: "wrong param", param: "file1", file: "a.txt", content: "olia"},
		{name: "empty name", param: "file", file: "", content: "olia"},
		{name: "empty file", param: "file", file: "a.txt", content: ""},
		{name: "bad name", param: "file", file: "$$$", content: "olia"},
		{name: "unsupported", param: "file", file: "a.docx", content: "olia"},
		{name: "no ext", param: "file", file: "a", content: "olia"},
		{name: "ext lost after sanitize", param: "file", file: "..txt", content: "olia"},
		{name: "ext lost after sanitize underscore", param: "file", file: "_.pdf", content: "olia"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initTest(t)
			test.Code(t, tEcho, newTestRequest(t, tt.param, tt.file, tt.content), http.StatusBadRequest)
			dbMock.AssertNotCalled(t, "InsertJob", mock.Anything, mock.Anything)
			filerMock.AssertNotCalled(t, "SaveFile", mock.Anything, mock.Anything, mock.Anything)
			senderMock.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpload_NoForm(t *testing.T) {
	initTest(t)
	test.Code(t, tEcho, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("olia")), http.StatusBadRequest)
}

func TestUpload_TooLarge(t *testing.T) {
	initTest(t)
	tData.MaxSize = "1K"
	tEcho = echo.New()
	require.Nil(t, InitRoutes(tEcho, tData))
	test.Code(t, tEcho, newTestRequest(t, "file", "a.txt", strings.Repeat("a", 2000)), http.StatusRequestEntityTooLarge)
	dbMock.AssertNotCalled(t, "InsertJob", mock.Anything, mock.Anything)
}

func TestUpload_Fails(t *testing.T) {
	tests := []struct {
		name    string
		prepare func()
	}{
		{name: "save", prepare: func() {
			filerMock.ExpectedCalls = nil
			filerMock.On("SaveFile", mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("olia"))
		}},
		{name: "db", prepare: func() {
			dbMock.ExpectedCalls = nil
			dbMock.On("InsertJob", mock.Anything, mock.Anything).Return(fmt.Errorf("olia"))
		}},
		{name: "queue", prepare: func() {
			senderMock.ExpectedCalls = nil
			senderMock.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("olia"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initTest(t)
			tt.prepare()
			test.Code(t, tEcho, newTestRequest(t, "file", "a.txt", "olia"), http.StatusInternalServerError)
		})
	}
}

func TestList(t *testing.T) {
	initTest(t)
	dbMock.On("ListJobs", mock.Anything).Return([]*persistence.Job{
		{ID: "1", Status: "completed", Filename: "a.txt", Progress: 3, TotalChunks: 3, AudioFile: utils.ToSQLStr("1.wav")},
		{ID: "2", Status: "queued", Filename: "b.pdf"},
	}, nil)
	resp := test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, "/jobs", nil), http.StatusOK)
	res := test.Decode[[]api.Job](t, resp.Result())
	require.Len(t, res, 2)
	assert.Equal(t, "1", res[0].ID)
	assert.Equal(t, 100, res[0].Percent)
	require.NotNil(t, res[0].AudioFile)
	assert.Equal(t, "1.wav", *res[0].AudioFile)
	assert.Equal(t, "2", res[1].ID)
	assert.Nil(t, res[1].AudioFile)
}

func TestList_Empty(t *testing.T) {
	initTest(t)
	dbMock.On("ListJobs", mock.Anything).Return([]*persistence.Job{}, nil)
	resp := test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, "/jobs", nil), http.StatusOK)
	assert.Equal(t, "[]", strings.TrimSpace(resp.Body.String()))
}

func TestList_Fail(t *testing.T) {
	initTest(t)
	dbMock.On("ListJobs", mock.Anything).Return(nil, fmt.Errorf("olia"))
	test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, "/jobs", nil), http.StatusInternalServerError)
}

func Test_validate(t *testing.T) {
	initTest(t)
	assert.Nil(t, validate(tData))
	assert.NotNil(t, validate(&Data{DB: dbMock, MsgSender: senderMock, Formats: extract.NewExtractor()}))
	assert.NotNil(t, validate(&Data{Saver: filerMock, MsgSender: senderMock, Formats: extract.NewExtractor()}))
	assert.NotNil(t, validate(&Data{Saver: filerMock, DB: dbMock, Formats: extract.NewExtractor()}))
	assert.NotNil(t, validate(&Data{Saver: filerMock, DB: dbMock, MsgSender: senderMock}))
}
