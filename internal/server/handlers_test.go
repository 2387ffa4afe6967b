package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
	"github.com/joseph-ayodele/syllabus-sync/internal/llm"
	"github.com/joseph-ayodele/syllabus-sync/internal/syllabus"
	"github.com/joseph-ayodele/syllabus-sync/internal/terms"
	"github.com/joseph-ayodele/syllabus-sync/internal/textextract"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLLM struct {
	fields *llm.SyllabusFields
	err    error
}

func (s stubLLM) ExtractDeadlines(context.Context, llm.ExtractRequest) (*llm.SyllabusFields, []byte, error) {
	return s.fields, nil, s.err
}

type mockCourses struct {
	course *entity.Course
	list   []*entity.Course
	sched  *entity.CourseSchedule
	err    error
}

func (m *mockCourses) GetCourse(context.Context, string) (*entity.Course, error) { return m.course, m.err }
func (m *mockCourses) ListCourses(context.Context, string) ([]*entity.Course, error) {
	return m.list, m.err
}
func (m *mockCourses) Schedule(context.Context, string) (*entity.CourseSchedule, error) {
	return m.sched, m.err
}

type mockExport struct {
	buf  []byte
	err  error
	code string
}

func (m *mockExport) ExportCourseScheduleXLSX(_ context.Context, code string) ([]byte, error) {
	m.code = code
	return m.buf, m.err
}

type mockDB struct{ err error }

func (m mockDB) HealthCheck(context.Context, time.Duration) error { return m.err }

func newRouter(t *testing.T, model llm.DeadlineExtractor, courses CourseService, export ExportService, db HealthChecker) *gin.Engine {
	t.Helper()
	ex := textextract.NewExtractor(textextract.Config{TmpDir: t.TempDir()}, nil)
	cal := terms.NewCalendar(terms.Term{Roster: "SP24", Dates: "Classes begin Jan 22"})
	svc := syllabus.NewService(ex, model, cal, 1, nil)
	h := NewHandler(svc, courses, export, db, nil)
	return NewRouter(RouterConfig{AllowOrigins: []string{"http://localhost:3000"}}, h, nil)
}

func multipartBody(t *testing.T, filename, contentType string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func decode(t *testing.T, body io.Reader) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestUploadSyllabus_OK(t *testing.T) {
	model := stubLLM{fields: &llm.SyllabusFields{CourseCode: "CS 2110", Todos: []llm.Todo{{Title: "HW1", Date: "2024-02-01", EventType: "assignment", Priority: 3}}}}
	r := newRouter(t, model, nil, nil, nil)

	body, ct := multipartBody(t, "cs2110.txt", "text/plain", []byte("CS 2110 syllabus"), map[string]string{"roster": "SP24"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/syllabi", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp struct {
		Code string              `json:"code"`
		Data entity.UploadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Code)
	assert.Equal(t, "CS 2110 syllabus", resp.Data.Text)
	require.NotNil(t, resp.Data.Extraction)
	assert.Equal(t, "HW1", resp.Data.Extraction.Todos[0].Title)
}

func TestUploadSyllabus_NullExtraction(t *testing.T) {
	r := newRouter(t, stubLLM{}, nil, nil, nil)
	body, ct := multipartBody(t, "a.txt", "text/plain", []byte("hello"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/syllabi", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"extraction":null`)
}

func TestUploadSyllabus_Statuses(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		content     []byte
		model       stubLLM
		want        int
	}{
		{name: "image rejected", filename: "a.png", contentType: "image/png", content: []byte("png"), want: http.StatusUnsupportedMediaType},
		{name: "legacy doc", filename: "a.doc", contentType: "application/msword", content: []byte("doc"), want: http.StatusUnsupportedMediaType},
		{name: "oversize", filename: "a.txt", contentType: "text/plain", content: bytes.Repeat([]byte("a"), (1<<20)+1), want: http.StatusRequestEntityTooLarge},
		{name: "broken pdf", filename: "a.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4 garbage"), want: http.StatusInternalServerError},
		{name: "model down", filename: "a.txt", contentType: "text/plain", content: []byte("x"), model: stubLLM{err: errors.New("timeout")}, want: http.StatusInternalServerError},
		{name: "octet stream with pdf extension", filename: "a.pdf", contentType: "application/octet-stream", content: []byte("not a pdf"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(t, tt.model, nil, nil, nil)
			body, ct := multipartBody(t, tt.filename, tt.contentType, tt.content, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/syllabi", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.want, w.Code, w.Body.String())
			resp := decode(t, w.Body)
			assert.NotEmpty(t, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestUploadSyllabus_MissingFile(t *testing.T) {
	r := newRouter(t, stubLLM{}, nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/syllabi", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractText(t *testing.T) {
	model := stubLLM{fields: &llm.SyllabusFields{Todos: []llm.Todo{}}}
	r := newRouter(t, model, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/syllabi/text", strings.NewReader(`{"text":"Prelim March 14","roster":"SP24"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/v1/syllabi/text", strings.NewReader(`{"text":""}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCourse(t *testing.T) {
	courses := &mockCourses{course: &entity.Course{Code: "CS 2110", Name: "OOP", Sections: []entity.Section{}}}
	r := newRouter(t, stubLLM{}, courses, nil, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/courses/CS%202110", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"CS 2110"`)

	courses.err = common.NotFoundErrorf("course %q", "CS 9999")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/courses/CS%209999", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w.Body).Code)
}

func TestListCoursesAndExams(t *testing.T) {
	courses := &mockCourses{
		list:  []*entity.Course{{Code: "CS 2110"}, {Code: "CS 3110"}},
		sched: &entity.CourseSchedule{Course: entity.Course{Code: "CS 2110"}, Exams: []entity.Exam{{Title: "CS 2110 Prelim"}}, Deliverables: []entity.FinalDeliverable{}},
	}
	r := newRouter(t, stubLLM{}, courses, nil, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/courses?subject=CS", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CS 3110")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/courses/CS2110/exams", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CS 2110 Prelim")
}

func TestExportCourseExams(t *testing.T) {
	export := &mockExport{buf: []byte("PK\x03\x04")}
	r := newRouter(t, stubLLM{}, nil, export, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/courses/CS%202110/exams/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "CS2110-exams.xlsx")
	assert.Equal(t, "CS 2110", export.code)
}

func TestHealth(t *testing.T) {
	r := newRouter(t, stubLLM{}, nil, nil, mockDB{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	r = newRouter(t, stubLLM{}, nil, nil, mockDB{err: errors.New("conn refused")})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORSAndRequestID(t *testing.T) {
	r := newRouter(t, stubLLM{}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/syllabi", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestUploadContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", uploadContentType("application/pdf", "x.bin"))
	assert.Equal(t, "application/pdf", uploadContentType("application/octet-stream", "x.pdf"))
	assert.Equal(t, "application/pdf", uploadContentType("", "X.PDF"))
	assert.Equal(t, "", uploadContentType("", "noext"))
}
