package fetcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"cpic-rag/internal/models"
)

// Locator resolves a gene/drug pair to its guideline page URL using the
// CPIC gene-drug pairs spreadsheet.
type Locator struct {
	sheetPath string
}

func NewLocator(sheetPath string) *Locator {
	return &Locator{sheetPath: sheetPath}
}

func (l *Locator) readRows() ([][]string, error) {
	f, err := excelize.OpenFile(l.sheetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pairs spreadsheet: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read pairs spreadsheet: %v", err)
	}
	return rows, nil
}

// columnIndex finds a header column by name, case-insensitively.
func columnIndex(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Locate returns the guideline page URL for a gene/drug pair. The match is
// case-insensitive; an unknown pair is an error the caller reports as a
// not-found outcome.
func (l *Locator) Locate(gene, drug string) (string, error) {
	rows, err := l.readRows()
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("pairs spreadsheet is empty")
	}

	geneCol := columnIndex(rows[0], "Gene")
	drugCol := columnIndex(rows[0], "Drug")
	urlCol := columnIndex(rows[0], "Guideline")
	if geneCol < 0 || drugCol < 0 || urlCol < 0 {
		return "", fmt.Errorf("pairs spreadsheet is missing Gene/Drug/Guideline columns")
	}

	for _, row := range rows[1:] {
		if strings.EqualFold(cell(row, geneCol), gene) && strings.EqualFold(cell(row, drugCol), drug) {
			url := cell(row, urlCol)
			if url == "" {
				break
			}
			return url, nil
		}
	}
	return "", fmt.Errorf("gene-drug pair (%s/%s) not found in the CPIC database", gene, drug)
}

// Options returns the distinct genes, drugs, and valid pairs from the
// spreadsheet, for the ingest options passthrough.
func (l *Locator) Options() ([]string, []string, []models.GeneDrugPair, error) {
	rows, err := l.readRows()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil, fmt.Errorf("pairs spreadsheet is empty")
	}

	geneCol := columnIndex(rows[0], "Gene")
	drugCol := columnIndex(rows[0], "Drug")
	if geneCol < 0 || drugCol < 0 {
		return nil, nil, nil, fmt.Errorf("pairs spreadsheet is missing Gene/Drug columns")
	}

	geneSet := map[string]struct{}{}
	drugSet := map[string]struct{}{}
	var pairs []models.GeneDrugPair
	for _, row := range rows[1:] {
		gene := cell(row, geneCol)
		drug := cell(row, drugCol)
		if gene == "" || drug == "" {
			continue
		}
		geneSet[gene] = struct{}{}
		drugSet[drug] = struct{}{}
		pairs = append(pairs, models.GeneDrugPair{Gene: gene, Drug: drug})
	}

	genes := make([]string, 0, len(geneSet))
	for g := range geneSet {
		genes = append(genes, g)
	}
	drugs := make([]string, 0, len(drugSet))
	for d := range drugSet {
		drugs = append(drugs, d)
	}
	sort.Strings(genes)
	sort.Strings(drugs)
	return genes, drugs, pairs, nil
}
