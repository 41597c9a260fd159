package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cpic-rag/internal/models"
)

func writePairsSheet(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Gene", "Drug", "Guideline"},
		{"CYP2D6", "Codeine", "https://cpicpgx.org/guidelines/cyp2d6-codeine/"},
		{"TPMT", "Azathioprine", "https://cpicpgx.org/guidelines/tpmt-azathioprine/"},
		{"CYP2D6", "Tramadol", "https://cpicpgx.org/guidelines/cyp2d6-tramadol/"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "pairs.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLocator_Locate(t *testing.T) {
	locator := NewLocator(writePairsSheet(t))

	url, err := locator.Locate("CYP2D6", "Codeine")
	require.NoError(t, err)
	assert.Equal(t, "https://cpicpgx.org/guidelines/cyp2d6-codeine/", url)
}

func TestLocator_LocateCaseInsensitive(t *testing.T) {
	locator := NewLocator(writePairsSheet(t))

	url, err := locator.Locate("cyp2d6", "CODEINE")
	require.NoError(t, err)
	assert.Equal(t, "https://cpicpgx.org/guidelines/cyp2d6-codeine/", url)
}

func TestLocator_UnknownPair(t *testing.T) {
	locator := NewLocator(writePairsSheet(t))

	_, err := locator.Locate("XXX", "Nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in the CPIC database")
}

func TestLocator_Options(t *testing.T) {
	locator := NewLocator(writePairsSheet(t))

	genes, drugs, pairs, err := locator.Options()
	require.NoError(t, err)
	assert.Equal(t, []string{"CYP2D6", "TPMT"}, genes)
	assert.Equal(t, []string{"Azathioprine", "Codeine", "Tramadol"}, drugs)
	assert.Len(t, pairs, 3)
	assert.Contains(t, pairs, models.GeneDrugPair{Gene: "CYP2D6", Drug: "Tramadol"})
}

func TestScraper_FindsFirstPDFLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a href="/about">About</a>
			<a href="/files/guideline.PDF">Download</a>
			<a href="/files/other.pdf">Other</a>
		</body></html>`))
	}))
	defer srv.Close()

	scraper := NewScraper(srv.Client())
	url, err := scraper.FindPDFLink(context.Background(), srv.URL+"/guidelines/cyp2d6-codeine/")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/files/guideline.PDF", url)
}

func TestScraper_NoPDFLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/about">About</a></body></html>`))
	}))
	defer srv.Close()

	scraper := NewScraper(srv.Client())
	_, err := scraper.FindPDFLink(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no PDF link found")
}

func TestDownloader_SavesPDF(t *testing.T) {
	content := []byte("%PDF-1.4 fake body")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(content)
	}))
	defer srv.Close()

	dir := t.TempDir()
	downloader := NewDownloader(srv.Client(), dir)
	path, err := downloader.Download(context.Background(), srv.URL+"/guideline.pdf", "CYP2D6", "Codeine")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "CYP2D6_Codeine_Guideline.pdf"), path)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, saved)
}

func TestDownloader_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	downloader := NewDownloader(srv.Client(), t.TempDir())
	_, err := downloader.Download(context.Background(), srv.URL+"/missing.pdf", "CYP2D6", "Codeine")
	require.Error(t, err)
}

func TestFindLocalPDF(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CYP2D6_Codeine_Guideline.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	f := New("unused.xlsx", dir)
	assert.Equal(t, filepath.Join(dir, "CYP2D6_Codeine_Guideline.pdf"), f.FindLocalPDF("codeine"))
	assert.Equal(t, "", f.FindLocalPDF("warfarin"))
}

func TestFindLocalPDF_MissingDir(t *testing.T) {
	f := New("unused.xlsx", filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Equal(t, "", f.FindLocalPDF("codeine"))
}
