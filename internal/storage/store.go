package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/partsim/internal/event"
	"github.com/san-kum/partsim/internal/metrics"
)

const (
	metadataFile   = "metadata.json"
	histogramsFile = "histograms.csv"
)

var ErrCorruptRun = errors.New("storage: corrupt run data")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// HistogramInfo records the binning and moments of a saved histogram.
type HistogramInfo struct {
	Name    string  `json:"name"`
	Bins    int     `json:"bins"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Entries int     `json:"entries"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stddev"`
}

type RunMetadata struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Timestamp         time.Time       `json:"timestamp"`
	Seed              int64           `json:"seed"`
	Events            int             `json:"events"`
	ParticlesPerEvent int             `json:"particles_per_event"`
	Smear             bool            `json:"smear"`
	Elapsed           time.Duration   `json:"elapsed_ns"`
	Summary           event.Summary   `json:"summary"`
	Histograms        []HistogramInfo `json:"histograms"`
}

// Save writes meta and the histogram contents under a new run directory and
// returns its id. ID, Timestamp and Histograms in meta are filled in here.
func (s *Store) Save(meta RunMetadata, hists []*metrics.Histogram) (string, error) {
	name := meta.Name
	if name == "" {
		name = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Name = name
	meta.Timestamp = now
	meta.Histograms = make([]HistogramInfo, 0, len(hists))
	for _, h := range hists {
		meta.Histograms = append(meta.Histograms, HistogramInfo{
			Name:    h.Name,
			Bins:    h.Bins,
			Min:     h.Min,
			Max:     h.Max,
			Entries: h.Entries,
			Mean:    h.Mean(),
			StdDev:  h.StdDev(),
		})
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, histogramsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := writeHistograms(w, hists); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeHistograms emits one row per bin. Bin -1 is the underflow and bin n
// the overflow of an n-bin histogram.
func writeHistograms(w *csv.Writer, hists []*metrics.Histogram) error {
	if err := w.Write([]string{"histogram", "bin", "low", "high", "content", "error"}); err != nil {
		return err
	}
	for _, h := range hists {
		rows := [][]string{{
			h.Name, "-1", formatFloat(math.Inf(-1)), formatFloat(h.Min),
			formatFloat(h.Underflow), "0",
		}}
		for i := 0; i < h.Bins; i++ {
			rows = append(rows, []string{
				h.Name, strconv.Itoa(i),
				formatFloat(h.BinLow(i)), formatFloat(h.BinLow(i + 1)),
				formatFloat(h.Counts[i]), formatFloat(h.BinError(i)),
			})
		}
		rows = append(rows, []string{
			h.Name, strconv.Itoa(h.Bins), formatFloat(h.Max), formatFloat(math.Inf(1)),
			formatFloat(h.Overflow), "0",
		})
		if err := w.WriteAll(rows); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadHistograms rebuilds the histograms of a run in their saved order.
// Moments are not stored per entry, so Mean and StdDev of the result are
// computed from bin centres.
func (s *Store) LoadHistograms(runID string) ([]*metrics.Histogram, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*metrics.Histogram, len(meta.Histograms))
	hists := make([]*metrics.Histogram, 0, len(meta.Histograms))
	for _, info := range meta.Histograms {
		h, err := metrics.NewHistogram(info.Name, info.Bins, info.Min, info.Max)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptRun, err)
		}
		h.Entries = info.Entries
		byName[info.Name] = h
		hists = append(hists, h)
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, histogramsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 6

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRun, err)
	}

	for i, record := range records {
		if i == 0 {
			continue
		}
		h, ok := byName[record[0]]
		if !ok {
			return nil, fmt.Errorf("%w: row %d: unknown histogram %q", ErrCorruptRun, i, record[0])
		}
		bin, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrCorruptRun, i, err)
		}
		content, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrCorruptRun, i, err)
		}
		binErr, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrCorruptRun, i, err)
		}

		switch {
		case bin == -1:
			h.Underflow = content
		case bin == h.Bins:
			h.Overflow = content
		case bin >= 0 && bin < h.Bins:
			h.Counts[bin] = content
			h.SumW2[bin] = binErr * binErr
		default:
			return nil, fmt.Errorf("%w: row %d: bin %d out of range", ErrCorruptRun, i, bin)
		}
	}

	return hists, nil
}

type ExportData struct {
	Run        RunMetadata          `json:"run"`
	Histograms []*metrics.Histogram `json:"histograms"`
}

// ExportJSON writes a saved run, metadata and histogram contents, as indented JSON.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	hists, err := s.LoadHistograms(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: *meta, Histograms: hists})
}
