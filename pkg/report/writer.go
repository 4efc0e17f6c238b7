package report

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/services"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// Writer writes pipeline results into an output directory. Column names of
// the written tables come from the vocabulary.
type Writer struct {
	dir    string
	vocab  models.Vocabulary
	engine *services.ReferenceEngine
	logger *zap.Logger
}

// NewWriter creates a Writer for dir. The directory is created on first write.
func NewWriter(dir string, vocab models.Vocabulary, logger *zap.Logger) *Writer {
	return &Writer{
		dir:    dir,
		vocab:  vocab,
		engine: services.NewReferenceEngine(vocab),
		logger: logger.Named("report"),
	}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

func (w *Writer) path(name string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}
	return filepath.Join(w.dir, FileName(name)), nil
}

func (w *Writer) writeWorkbook(name string, sheets []Sheet) (string, error) {
	path, err := w.path(name)
	if err != nil {
		return "", err
	}
	if err := WriteSheets(path, sheets); err != nil {
		return "", err
	}
	w.logger.Info("Wrote workbook", zap.String("path", path), zap.Int("sheets", len(sheets)))
	return path, nil
}

// typeFileName is <prefix>_<type>.xlsx, using the short type name when set.
func typeFileName(prefix string, et models.ElementType) string {
	name := et.Name
	if et.ShortName != "" {
		name = et.ShortName
	}
	return prefix + "_" + name + ".xlsx"
}

// WriteTable writes t as a single-sheet workbook named name.
func (w *Writer) WriteTable(name, sheet string, t *table.Table) (string, error) {
	return w.writeWorkbook(name, []Sheet{{Name: sheet, Table: t}})
}

// WriteReferences writes one workbook per element type with its reference
// values and the floor sums they were computed from. Types without floor
// sums are skipped.
func (w *Writer) WriteReferences(prefix string, types []models.ElementType, sums map[string][]services.FloorSum, refs map[string][]services.Reference) ([]string, error) {
	var paths []string
	for _, et := range types {
		if len(sums[et.Name]) == 0 {
			w.logger.Debug("No floor sums, skipping references", zap.String("element_type", et.Name))
			continue
		}
		path, err := w.writeWorkbook(typeFileName(prefix, et), []Sheet{
			{Name: w.vocab.Reference, Table: w.engine.ReferenceTable(refs[et.Name])},
			{Name: et.Measure, Table: w.engine.FloorSumTable(sums[et.Name], et.Measure)},
		})
		if err != nil {
			return paths, fmt.Errorf("failed to write references for %q: %w", et.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteDeviations writes one workbook per element type with every floor
// compared with its reference. Types without deviations are skipped.
func (w *Writer) WriteDeviations(prefix string, types []models.ElementType, devs map[string][]services.Deviation) ([]string, error) {
	var paths []string
	for _, et := range types {
		if len(devs[et.Name]) == 0 {
			continue
		}
		path, err := w.WriteTable(typeFileName(prefix, et), w.vocab.Deviation, w.engine.DeviationTable(devs[et.Name], et.Measure))
		if err != nil {
			return paths, fmt.Errorf("failed to write deviations for %q: %w", et.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteNomenclature writes one workbook with a sheet per element type.
func (w *Writer) WriteNomenclature(name string, types []models.ElementType, nom map[string]*table.Table) (string, error) {
	var sheets []Sheet
	for _, et := range types {
		if t, ok := nom[et.Name]; ok {
			sheets = append(sheets, Sheet{Name: et.Name, Table: t})
		}
	}
	if len(sheets) == 0 {
		return "", nil
	}
	return w.writeWorkbook(name, sheets)
}

// WriteQuality writes the quality report as <short>_info.txt.
func (w *Writer) WriteQuality(short string, q *services.QualityReport) (string, error) {
	path, err := w.path(short + "_info.txt")
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteQualityText(f, q, w.vocab); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	w.logger.Info("Wrote quality report", zap.String("path", path))
	return path, nil
}

// WritePremises writes the premise report workbook. crm may be nil, in which
// case the CRM comparison sheet is omitted.
func (w *Writer) WritePremises(name string, r *services.PremiseReport, crm *table.Table) (string, error) {
	sheets, err := PremiseSheets(r, w.vocab, crm)
	if err != nil {
		return "", err
	}
	return w.writeWorkbook(name, sheets)
}

// PremiseSheets evaluates the premise report into workbook sheets.
func PremiseSheets(r *services.PremiseReport, v models.Vocabulary, crm *table.Table) ([]Sheet, error) {
	p := v.Premises
	var sheets []Sheet
	add := func(name string, build func() (*table.Table, error)) error {
		t, err := build()
		if err != nil {
			return fmt.Errorf("failed to build %q: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Table: t})
		return nil
	}

	steps := []struct {
		name  string
		build func() (*table.Table, error)
	}{
		{"Object parameters", r.ConstructionObjectParameters},
		{"Budget", r.BudgetCalculator},
		{"Flat types (expertise)", func() (*table.Table, error) { return r.FlatTypeMatrix(true) }},
		{"Flat types (sales)", func() (*table.Table, error) { return r.FlatTypeMatrix(false) }},
		{"Common premises", r.CommonPremises},
		{"Technical premises", r.TechPremises},
		{"SFA and GFA", r.SFAandGFA},
		{"Floor types", r.FloorTypes},
		{"GNS by floor", r.GNSByFloor},
		{"Summer premises", r.SummerAreas},
		{"Duplex flats", r.DuplexFlats},
		{"Flats with different areas", func() (*table.Table, error) { return r.PremisesWithDifferentAreas(p.DestLiving) }},
		{"Parking doubles", func() (*table.Table, error) { return r.FindDoubles(p.KindParkingSpace) }},
	}
	for _, s := range steps {
		if err := add(s.name, s.build); err != nil {
			return nil, err
		}
	}
	if crm != nil {
		if err := add("CRM comparison", func() (*table.Table, error) { return r.CompareWithCRM(crm, table.OuterJoin) }); err != nil {
			return nil, err
		}
	}
	return sheets, nil
}
