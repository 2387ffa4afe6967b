package syllabus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/llm"
	"github.com/joseph-ayodele/syllabus-sync/internal/terms"
	"github.com/joseph-ayodele/syllabus-sync/internal/textextract"
)

type stubLLM struct {
	fields *llm.SyllabusFields
	err    error
	got    []llm.ExtractRequest
}

func (s *stubLLM) ExtractDeadlines(_ context.Context, req llm.ExtractRequest) (*llm.SyllabusFields, []byte, error) {
	s.got = append(s.got, req)
	return s.fields, nil, s.err
}

func sampleFields() *llm.SyllabusFields {
	return &llm.SyllabusFields{
		CourseCode: "CS 2110",
		Todos:      []llm.Todo{{Title: "Prelim 1", Date: "2024-03-14", EventType: "exam", Priority: 1}},
	}
}

func newTestService(t *testing.T, deadlines llm.DeadlineExtractor) *Service {
	t.Helper()
	cal := terms.NewCalendar(terms.Term{Roster: "SP24", Name: "Spring 2024", Dates: "Classes begin Jan 22"})
	ex := textextract.NewExtractor(textextract.Config{TmpDir: t.TempDir()}, nil)
	return NewService(ex, deadlines, cal, 1, nil)
}

func TestUpload_PlainText(t *testing.T) {
	model := &stubLLM{fields: sampleFields()}
	svc := newTestService(t, model)

	res, err := svc.Upload(context.Background(), UploadRequest{
		File:        strings.NewReader("CS 2110\r\nPrelim 1 on March 14\r\n"),
		Filename:    "cs2110.txt",
		ContentType: "text/plain; charset=utf-8",
		Roster:      "sp24",
	})
	require.NoError(t, err)
	assert.Equal(t, "CS 2110\nPrelim 1 on March 14", res.Text)
	require.NotNil(t, res.Extraction)
	assert.Equal(t, "CS 2110", res.Extraction.CourseCode)
	assert.Len(t, res.Extraction.Todos, 1)

	require.Len(t, model.got, 1)
	assert.Equal(t, "Classes begin Jan 22", model.got[0].TermDates)
	assert.Equal(t, "cs2110.txt", model.got[0].FilenameHint)
}

func TestUpload_ExplicitTermDatesWin(t *testing.T) {
	model := &stubLLM{fields: sampleFields()}
	svc := newTestService(t, model)
	_, err := svc.Upload(context.Background(), UploadRequest{
		File: strings.NewReader("text"), Filename: "a.txt", ContentType: "text/plain",
		Roster: "SP24", TermDates: "Classes begin Jan 23",
	})
	require.NoError(t, err)
	assert.Equal(t, "Classes begin Jan 23", model.got[0].TermDates)
}

func TestUpload_RejectsContentType(t *testing.T) {
	svc := newTestService(t, &stubLLM{})
	_, err := svc.Upload(context.Background(), UploadRequest{
		File: strings.NewReader("x"), Filename: "a.png", ContentType: "image/png",
	})
	require.Error(t, err)
	assert.Equal(t, 415, common.HTTPStatus(err))
}

func TestUpload_TooLarge(t *testing.T) {
	svc := newTestService(t, &stubLLM{})

	_, err := svc.Upload(context.Background(), UploadRequest{
		File: strings.NewReader("x"), Filename: "a.txt", ContentType: "text/plain", Size: 2 << 20,
	})
	assert.True(t, errors.Is(err, common.ErrTooLarge))

	// the declared size can lie; the body is counted too
	big := bytes.Repeat([]byte("a"), (1<<20)+10)
	_, err = svc.Upload(context.Background(), UploadRequest{
		File: bytes.NewReader(big), Filename: "a.txt", ContentType: "text/plain",
	})
	assert.True(t, errors.Is(err, common.ErrTooLarge))
}

func TestUpload_LegacyDocIsUnsupported(t *testing.T) {
	svc := newTestService(t, &stubLLM{})
	_, err := svc.Upload(context.Background(), UploadRequest{
		File: strings.NewReader("\xd0\xcf\x11\xe0"), Filename: "old.doc", ContentType: "application/msword",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, textextract.ErrUnsupportedFormat))
	assert.Equal(t, 415, common.HTTPStatus(err))
}

func TestUpload_ModelFailureIsAnError(t *testing.T) {
	svc := newTestService(t, &stubLLM{err: errors.New("timeout")})
	_, err := svc.Upload(context.Background(), UploadRequest{
		File: strings.NewReader("text"), Filename: "a.txt", ContentType: "text/plain",
	})
	require.Error(t, err)
	assert.Equal(t, 500, common.HTTPStatus(err))
}

func TestUpload_UnusableAnswerYieldsNilExtraction(t *testing.T) {
	svc := newTestService(t, &stubLLM{})
	res, err := svc.Upload(context.Background(), UploadRequest{
		File: strings.NewReader("text"), Filename: "a.txt", ContentType: "text/plain",
	})
	require.NoError(t, err)
	assert.Equal(t, "text", res.Text)
	assert.Nil(t, res.Extraction)
}

func TestUpload_FilenameWithoutExtension(t *testing.T) {
	model := &stubLLM{fields: sampleFields()}
	svc := newTestService(t, model)
	res, err := svc.Upload(context.Background(), UploadRequest{
		File: strings.NewReader("hello"), Filename: "syllabus", ContentType: "text/plain",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
}

func TestFromText(t *testing.T) {
	model := &stubLLM{fields: sampleFields()}
	svc := newTestService(t, model)

	_, err := svc.FromText(context.Background(), TextRequest{Text: "   "})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	_, err = svc.FromText(context.Background(), TextRequest{Text: "x", Roster: "Spring"})
	assert.True(t, errors.Is(err, common.ErrValidation))

	res, err := svc.FromText(context.Background(), TextRequest{Text: "Prelim   \n\n\n\nMarch 14", Roster: "SP24"})
	require.NoError(t, err)
	assert.Equal(t, "Prelim\n\nMarch 14", res.Text)
	assert.NotNil(t, res.Extraction)
}

type failingExtractor struct{}

func (failingExtractor) ExtractUpload(context.Context, io.Reader, string) (textextract.Result, error) {
	return textextract.Result{}, textextract.ErrParse
}

func TestUpload_ExtractFailureIs500(t *testing.T) {
	svc := NewService(failingExtractor{}, &stubLLM{}, nil, constants.MaxUploadMBDefault, nil)
	_, err := svc.Upload(context.Background(), UploadRequest{
		File: strings.NewReader("%PDF-garbage"), Filename: "a.pdf", ContentType: "application/pdf",
	})
	require.Error(t, err)
	assert.Equal(t, 500, common.HTTPStatus(err))
}
