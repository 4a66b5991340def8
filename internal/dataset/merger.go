package dataset

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sabarim/contango/internal/contango"
)

// HeaderLine is the fixed dataset header.
const HeaderLine = "Date,First Month,F1,F2,F3,F4,F5,F6,F7,F8,F9,F10,F11,F12,Contango 2/1,Contango 7/4,Con 7/4 div 3"

const (
	// legacyFileName predates the spelling fix. Consumers still read
	// it, so both names are written with identical content.
	legacyFileName    = "vix_contago.csv"
	correctedFileName = "vix_contango.csv"
)

// Merger folds newly computed records into the on-disk historical
// dataset. Existing rows are preserved byte-for-byte; only slots the
// insertion policy allows are replaced.
type Merger struct {
	outputRoot         string
	existingRoot       string
	vendorDir          string
	overwriteExisting  bool
	onlyDeploymentDate bool
	deploymentDate     time.Time
	parquetEnabled     bool
}

// NewMerger creates a dataset merger and ensures the output directory
// exists.
func NewMerger(outputRoot, existingRoot, vendorDir string, overwriteExisting, onlyDeploymentDate bool, deploymentDate time.Time, parquetEnabled bool) (*Merger, error) {
	m := &Merger{
		outputRoot:         outputRoot,
		existingRoot:       existingRoot,
		vendorDir:          vendorDir,
		overwriteExisting:  overwriteExisting,
		onlyDeploymentDate: onlyDeploymentDate,
		deploymentDate:     deploymentDate,
		parquetEnabled:     parquetEnabled,
	}
	if err := os.MkdirAll(m.outputDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return m, nil
}

func (m *Merger) outputDir() string {
	return filepath.Join(m.outputRoot, "alternative", m.vendorDir)
}

func (m *Merger) existingDir() string {
	return filepath.Join(m.existingRoot, "alternative", m.vendorDir)
}

// Merge loads whatever dataset already exists, applies the insertion
// policy to the new records and rewrites both output files with the
// combined, date-sorted result.
func (m *Merger) Merge(records []contango.Record) error {
	entries, err := m.loadExisting()
	if err != nil {
		return err
	}

	accepted := 0
	for _, record := range records {
		key := record.Date.Format("2006-01-02")
		if _, exists := entries[key]; exists && !m.overwriteExisting {
			continue
		}
		if m.onlyDeploymentDate && !record.Date.Equal(m.deploymentDate) {
			continue
		}
		entries[key] = FormatLine(record)
		accepted++
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, HeaderLine)
	for _, key := range keys {
		lines = append(lines, entries[key])
	}
	content := strings.Join(lines, "\n")

	for _, name := range []string{legacyFileName, correctedFileName} {
		path := filepath.Join(m.outputDir(), name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write dataset %s: %w", path, err)
		}
	}
	log.Printf("Merged %d of %d computed rows, wrote %d total rows to %s", accepted, len(records), len(entries), m.outputDir())

	if m.parquetEnabled {
		parquetPath := filepath.Join(m.outputDir(), strings.TrimSuffix(correctedFileName, ".csv")+".parquet")
		if err := writeRecords(parquetPath, records); err != nil {
			return fmt.Errorf("failed to write parquet mirror: %w", err)
		}
	}
	return nil
}

// loadExisting reads the pre-existing dataset, trying the corrected
// file name first and the legacy one second. Missing files mean an
// empty dataset, not an error.
func (m *Merger) loadExisting() (map[string]string, error) {
	for _, name := range []string{correctedFileName, legacyFileName} {
		path := filepath.Join(m.existingDir(), name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read existing dataset %s: %w", path, err)
		}
		log.Printf("Loaded existing dataset from %s", path)
		return ParseDataset(string(data))
	}
	return make(map[string]string), nil
}

// ParseDataset keys each data line of an existing dataset file by its
// leading date field. Lines are kept verbatim; they are never
// reformatted on the way back out.
func ParseDataset(content string) (map[string]string, error) {
	entries := make(map[string]string)
	content = strings.ReplaceAll(content, "\r", "")
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] < '0' || line[0] > '9' {
			continue
		}
		key := line
		if i := strings.Index(line, ","); i >= 0 {
			key = line[:i]
		}
		if _, err := time.Parse("2006-01-02", key); err != nil {
			return nil, fmt.Errorf("malformed date %q in existing dataset: %w", key, err)
		}
		entries[key] = line
	}
	return entries, nil
}

// FormatLine renders one record as a dataset row. Positions past the
// available price count render as blank fields, as do non-finite
// ratios.
func FormatLine(r contango.Record) string {
	fields := make([]string, 0, 17)
	fields = append(fields, r.Date.Format("2006-01-02"), strconv.Itoa(r.FrontMonth))
	for i := 0; i < contango.MaxPositions; i++ {
		if i < len(r.Prices) {
			fields = append(fields, decimal.NewFromFloat(r.Prices[i]).String())
		} else {
			fields = append(fields, "")
		}
	}
	fields = append(fields, formatRatio(r.Contango21), formatRatio(r.Contango74), formatRatio(r.Contango74Div3))
	return strings.Join(fields, ",")
}

// formatRatio rounds half away from zero to four places. A zero
// denominator upstream produces a non-finite ratio, rendered as absent.
func formatRatio(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return ""
	}
	return decimal.NewFromFloat(v).Round(4).String()
}
