// Package dataset assembles normalized observations from a source directory
// into an immutable, cached long-format corpus.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/couchcryptid/remote-sensing-etl/internal/domain"
	"github.com/couchcryptid/remote-sensing-etl/internal/normalize"
	"github.com/couchcryptid/remote-sensing-etl/internal/observability"
	"github.com/couchcryptid/remote-sensing-etl/internal/source"
)

// ErrSourceDir is returned when the source directory cannot be listed.
var ErrSourceDir = errors.New("source directory unavailable")

// Token identifies one state of the source directory. A rebuild happens when
// either field changes.
type Token struct {
	MaxModTime time.Time `json:"max_mod_time"`
	Files      int       `json:"files"`
}

// FileReport describes what one source file contributed to a rebuild.
type FileReport struct {
	Name       string               `json:"name"`
	Date       domain.Date          `json:"date"`
	DateSource normalize.DateSource `json:"date_source"`
	Encoding   string               `json:"encoding,omitempty"`
	Delimiter  string               `json:"delimiter,omitempty"`
	Rows       int                  `json:"rows"`
	Accepted   int                  `json:"accepted"`
	Dropped    int                  `json:"dropped"`
	Skipped    bool                 `json:"skipped"`
	Reason     string               `json:"reason,omitempty"`
}

// Report is the diagnostic summary of the last rebuild.
type Report struct {
	Files    []FileReport  `json:"files"`
	LoadedAt time.Time     `json:"loaded_at"`
	Token    Token         `json:"token"`
	Duration time.Duration `json:"duration"`
}

// Skipped returns the reports of files that contributed nothing.
func (r Report) Skipped() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Skipped {
			out = append(out, f)
		}
	}
	return out
}

// cache holds the last successful rebuild and the token it was built from.
type cache struct {
	dataset *Dataset
	report  Report
	token   Token
}

func (c *cache) fresh(t Token) bool {
	return c.dataset != nil && c.token.Files == t.Files && c.token.MaxModTime.Equal(t.MaxModTime)
}

// Loader owns one cached corpus for one directory. It is safe for concurrent
// use; loads are serialized.
type Loader struct {
	dir        string
	reader     *source.Reader
	normalizer Normalizer
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu    sync.Mutex
	cache cache
}

// NewLoader creates a Loader for dir.
func NewLoader(dir string, reader *source.Reader, bounds normalize.Bounds, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		dir:        dir,
		reader:     reader,
		normalizer: NewNormalizer(bounds),
		logger:     logger,
		metrics:    metrics,
	}
}

// Dir returns the source directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Load returns the cached corpus when the directory token is unchanged and
// force is false. Otherwise it rebuilds the whole corpus. Only a directory
// listing failure is returned as an error.
func (l *Loader) Load(force bool) (*Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	files, token, err := l.scan()
	if err != nil {
		return nil, err
	}

	if !force && l.cache.fresh(token) {
		l.metrics.CacheHits.Inc()
		return l.cache.dataset, nil
	}

	ds, report := l.rebuild(files, token)
	l.cache = cache{dataset: ds, report: report, token: token}
	return ds, nil
}

// Report returns the diagnostics of the last rebuild.
func (l *Loader) Report() Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cache.report
}

// Timepoints loads and returns the distinct observation dates.
func (l *Loader) Timepoints() ([]domain.Date, error) {
	ds, err := l.Load(false)
	if err != nil {
		return nil, err
	}
	return ds.Timepoints(), nil
}

// ValuesForDate loads and returns the observations on date projected onto idx.
func (l *Loader) ValuesForDate(date domain.Date, idx domain.Index) ([]DateValue, error) {
	ds, err := l.Load(false)
	if err != nil {
		return nil, err
	}
	return ds.ValuesForDate(date, idx)
}

// SeriesForRegion loads and returns one region's time series.
func (l *Loader) SeriesForRegion(name string) ([]domain.Observation, error) {
	ds, err := l.Load(false)
	if err != nil {
		return nil, err
	}
	return ds.SeriesForRegion(name), nil
}

// Regions loads and returns the distinct region names.
func (l *Loader) Regions() ([]string, error) {
	ds, err := l.Load(false)
	if err != nil {
		return nil, err
	}
	return ds.Regions(), nil
}

type sourceFile struct {
	name    string
	path    string
	modTime time.Time
	statErr error
}

// scan lists tabular files in name order and computes the directory token.
func (l *Loader) scan() ([]sourceFile, Token, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, Token{}, fmt.Errorf("%w: %w", ErrSourceDir, err)
	}

	var (
		files []sourceFile
		token Token
	)
	for _, e := range entries {
		if e.IsDir() || !source.IsTabular(e.Name()) {
			continue
		}
		f := sourceFile{name: e.Name(), path: filepath.Join(l.dir, e.Name())}
		info, err := e.Info()
		if err != nil {
			f.statErr = err
		} else {
			f.modTime = info.ModTime()
			if f.modTime.After(token.MaxModTime) {
				token.MaxModTime = f.modTime
			}
		}
		files = append(files, f)
	}
	token.Files = len(files)
	return files, token, nil
}

func (l *Loader) rebuild(files []sourceFile, token Token) (*Dataset, Report) {
	start := time.Now()

	var all []domain.Observation
	reports := make([]FileReport, 0, len(files))
	for _, f := range files {
		obs, rep := l.loadFile(f)
		all = append(all, obs...)
		reports = append(reports, rep)
	}

	ds := New(all)
	report := Report{
		Files:    reports,
		LoadedAt: domain.Now(),
		Token:    token,
		Duration: time.Since(start),
	}

	l.metrics.Reloads.Inc()
	l.metrics.ReloadDuration.Observe(report.Duration.Seconds())
	l.metrics.CorpusRows.Set(float64(ds.Len()))
	l.logger.Info("dataset rebuilt",
		"dir", l.dir,
		"files", len(files),
		"skipped", len(report.Skipped()),
		"rows", ds.Len(),
		"duration", report.Duration,
	)
	return ds, report
}

// loadFile decodes and normalizes one file. Failures become a skipped report.
func (l *Loader) loadFile(f sourceFile) ([]domain.Observation, FileReport) {
	rep := FileReport{Name: f.name}

	if f.statErr != nil {
		return nil, l.skip(rep, observability.SkipStat, f.statErr)
	}
	rep.Date, rep.DateSource = normalize.ResolveDate(f.name, f.modTime)

	table, err := l.reader.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, l.skip(rep, observability.SkipStat, err)
		}
		return nil, l.skip(rep, observability.SkipUndecodable, err)
	}
	rep.Encoding = table.Encoding
	rep.Delimiter = table.Delimiter
	rep.Rows = len(table.Rows)

	obs, dropped := l.normalizer.Normalize(table, rep.Date)
	rep.Accepted = len(obs)
	rep.Dropped = dropped
	l.metrics.RowsAccepted.Add(float64(rep.Accepted))
	l.metrics.RowsDropped.Add(float64(rep.Dropped))

	if len(obs) == 0 {
		return nil, l.skip(rep, observability.SkipNoRows, nil)
	}

	l.metrics.FilesLoaded.Inc()
	return obs, rep
}

func (l *Loader) skip(rep FileReport, reason string, err error) FileReport {
	rep.Skipped = true
	rep.Reason = reason
	attrs := []any{"file", rep.Name, "reason", reason}
	if err != nil {
		rep.Reason = fmt.Sprintf("%s: %v", reason, err)
		attrs = append(attrs, "error", err)
	}
	l.metrics.FilesSkipped.WithLabelValues(reason).Inc()
	l.logger.Warn("source file skipped", attrs...)
	return rep
}
