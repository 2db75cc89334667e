package artifact

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"go-plant-inspector/internal/clock"
	apperrors "go-plant-inspector/internal/errors"
	"go-plant-inspector/internal/report"
	"go-plant-inspector/internal/storage"
	"go-plant-inspector/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, delay time.Duration) (*Manager, *Reaper, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "reports")
	store := storage.NewReportStore(dir)
	reaper := NewReaper(store, delay, nil)
	t.Cleanup(reaper.Close)
	m := NewManager(store, report.NewRenderer(report.DefaultOptions()), reaper, clock.Fixed(testNow), nil)
	return m, reaper, dir
}

func listReports(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func plantPNG(t *testing.T) *models.ImagePayload {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < 16; i++ {
		img.Set(i, i, color.NRGBA{G: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &models.ImagePayload{MIMEType: "image/png", Data: buf.Bytes()}
}

func TestDeliver_MissingAnalysisCreatesNoFile(t *testing.T) {
	m, _, dir := newTestManager(t, 0)
	rec := httptest.NewRecorder()

	err := m.Deliver(context.Background(), rec, "   ", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMissingAnalysis))
	assert.Empty(t, listReports(t, dir))
	assert.Zero(t, rec.Body.Len())
}

func TestDeliver_SendsPDFAndDeletesFile(t *testing.T) {
	m, _, dir := newTestManager(t, 0)
	rec := httptest.NewRecorder()

	require.NoError(t, m.Deliver(context.Background(), rec, "Healthy monstera.", plantPNG(t)))

	res := rec.Result()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/pdf", res.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="plant_analysis_report_1792411200000.pdf"`, res.Header.Get("Content-Disposition"))
	assert.Equal(t, res.Header.Get("Content-Length"), strconv.Itoa(rec.Body.Len()))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
	assert.Empty(t, listReports(t, dir))
}

func TestDeliver_InvalidImageLeavesNoFile(t *testing.T) {
	m, _, dir := newTestManager(t, 0)

	err := m.Deliver(context.Background(), httptest.NewRecorder(), "ok",
		&models.ImagePayload{MIMEType: "image/png", Data: []byte("garbage")})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidFormat))
	assert.Empty(t, listReports(t, dir))
}

type abortingWriter struct {
	header http.Header
	wrote  int
}

func (w *abortingWriter) Header() http.Header { return w.header }
func (w *abortingWriter) WriteHeader(int)     {}
func (w *abortingWriter) Write(p []byte) (int, error) {
	if w.wrote > 0 {
		return 0, errors.New("connection reset by peer")
	}
	w.wrote += len(p) / 2
	return len(p) / 2, errors.New("broken pipe")
}

func TestSend_ClientAbortStillDeletesFile(t *testing.T) {
	m, _, dir := newTestManager(t, 0)

	job, err := m.Create(context.Background(), "Leaves are yellowing at the tips.", nil)
	require.NoError(t, err)
	require.FileExists(t, job.FilePath)

	err = m.Send(context.Background(), &abortingWriter{header: http.Header{}}, job)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSend))
	assert.NoFileExists(t, job.FilePath)
	assert.Empty(t, listReports(t, dir))
}

func TestSend_MissingFile(t *testing.T) {
	m, _, _ := newTestManager(t, 0)
	job := &models.ReportJob{ID: "gone", FilePath: filepath.Join(t.TempDir(), "nope.pdf"), DownloadName: "nope.pdf"}

	err := m.Send(context.Background(), httptest.NewRecorder(), job)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSend))
}

func TestCreate_ConcurrentJobsGetDistinctFiles(t *testing.T) {
	m, _, dir := newTestManager(t, 0)

	const jobs = 16
	paths := make([]string, jobs)
	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			job, err := m.Create(context.Background(), "Same millisecond, different job.", nil)
			if assert.NoError(t, err) {
				paths[i] = job.FilePath
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, jobs)
	for _, p := range paths {
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
	assert.Len(t, listReports(t, dir), jobs)
}

func TestReaper_DelayedDeletion(t *testing.T) {
	m, reaper, dir := newTestManager(t, 300*time.Millisecond)

	require.NoError(t, m.Deliver(context.Background(), httptest.NewRecorder(), "Healthy.", nil))
	assert.Len(t, listReports(t, dir), 1)
	assert.Equal(t, 1, reaper.Pending())

	assert.Eventually(t, func() bool {
		return len(listReports(t, dir)) == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, reaper.Pending())
}

func TestReaper_CloseDrainsPending(t *testing.T) {
	m, reaper, dir := newTestManager(t, time.Hour)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Deliver(context.Background(), httptest.NewRecorder(), "Healthy.", nil))
	}
	assert.Equal(t, 3, reaper.Pending())

	reaper.Close()
	assert.Equal(t, 0, reaper.Pending())
	assert.Empty(t, listReports(t, dir))

	// after Close deletions are immediate
	require.NoError(t, m.Deliver(context.Background(), httptest.NewRecorder(), "Healthy.", nil))
	assert.Empty(t, listReports(t, dir))
}

type failingRemover struct{ calls int }

func (f *failingRemover) Remove(string) error {
	f.calls++
	return errors.New("permission denied")
}

func TestReaper_RemoveErrorIsSwallowed(t *testing.T) {
	rm := &failingRemover{}
	r := NewReaper(rm, 0, nil)

	assert.NotPanics(t, func() { r.Schedule("/reports/x.pdf") })
	r.Schedule("")
	assert.Equal(t, 1, rm.calls)
}
