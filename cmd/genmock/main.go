// Command genmock writes a synthetic source directory of per-date remote
// sensing exports covering every input variation the loader accepts: comma,
// semicolon and tab delimiters, dot and comma decimals, a UTF-8 BOM, a
// windows-1258 file, an .xlsx workbook, a file with swapped coordinate
// columns, a date-less filename, and one unreadable file. It then loads the
// directory with the real loader and prints what each file contributed.
//
// Usage:
//
//	go run ./cmd/genmock -out data
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/remote-sensing-etl/internal/dataset"
	"github.com/couchcryptid/remote-sensing-etl/internal/normalize"
	"github.com/couchcryptid/remote-sensing-etl/internal/observability"
	"github.com/couchcryptid/remote-sensing-etl/internal/source"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// latestModTime stamps the date-less export.
var latestModTime = time.Date(2023, time.July, 1, 8, 0, 0, 0, time.UTC)

type ward struct {
	code     string
	name     string
	lon, lat float64
	landUse  string
}

var wards = []ward{
	{"26734", "Phường Tân Định", 106.690, 10.792, "đô thị"},
	{"26737", "Phường Đa Kao", 106.698, 10.788, "đô thị"},
	{"26740", "Phường Bến Nghé", 106.704, 10.778, "công viên"},
	{"26743", "Phường Bến Thành", 106.695, 10.773, "đô thị"},
	{"26746", "Phường Nguyễn Thái Bình", 106.700, 10.769, "đô thị"},
	{"26749", "Phường Phạm Ngũ Lão", 106.692, 10.767, "đô thị"},
	{"26752", "Phường Cầu Ông Lãnh", 106.697, 10.765, "mặt nước"},
	{"26755", "Phường Cô Giang", 106.694, 10.762, "đô thị"},
}

const parentRegion = "Quận 1"

// export describes one generated file.
type export struct {
	name      string
	month     int
	delimiter rune
	header    []string
	decimal   string // "." or ","
	swap      bool
	bom       bool
	cp1258    bool
	xlsx      bool
	modTime   time.Time
}

var exports = []export{
	{
		name: "15-01-2023.csv", month: 1, delimiter: ',', decimal: ".", bom: true,
		header: []string{"ma_xa", "ten_xa", "Quan", "loai", "toa_do_x", "toa_do_y", "NDVI", "LST", "TVDI"},
	},
	{
		name: "15-02-2023.csv", month: 2, delimiter: ';', decimal: ",",
		header: []string{"MaPhuong", "TenPhuong", "district", "landuse", "lon", "lat", "NDVI", "LST", "TVDI"},
	},
	{
		name: "15_03_2023.tsv", month: 3, delimiter: '\t', decimal: ".",
		header: []string{"region_code", "region_name", "district", "land_use", "longitude", "latitude", "ndvi", "lst", "tvdi"},
	},
	{
		name: "15-04-2023.csv", month: 4, delimiter: ',', decimal: ".", swap: true,
		header: []string{"ma_xa", "ten_xa", "Quan", "loai", "toa_do_x", "toa_do_y", "NDVI", "LST", "TVDI"},
	},
	{
		name: "15-05-2023.csv", month: 5, delimiter: ';', decimal: ",", cp1258: true,
		header: []string{"ma_xa", "ten_xa", "Quan", "loai", "toa_do_x", "toa_do_y", "NDVI", "LST", "TVDI"},
	},
	{
		name: "15-06-2023.xlsx", month: 6, xlsx: true, decimal: ".",
		header: []string{"ma_xa", "ten_xa", "Quan", "loai", "toa_do_x", "toa_do_y", "NDVI", "LST", "TVDI"},
	},
	{
		name: "latest_export.csv", month: 7, delimiter: ',', decimal: ".", modTime: latestModTime,
		header: []string{"ma_xa", "ten_xa", "Quan", "loai", "toa_do_x", "toa_do_y", "NDVI", "LST", "TVDI"},
	},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "data", "directory to write sample exports into")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	for _, e := range exports {
		path := filepath.Join(*outDir, e.name)
		if err := writeExport(path, e); err != nil {
			return fmt.Errorf("writing %s: %w", e.name, err)
		}
		if !e.modTime.IsZero() {
			if err := os.Chtimes(path, e.modTime, e.modTime); err != nil {
				return err
			}
		}
		log.Printf("wrote %s", path)
	}

	corrupt := filepath.Join(*outDir, "corrupt.csv")
	if err := os.WriteFile(corrupt, []byte{0x00, 0xff, 0xfe, 0x00, 0x01, 0x02}, 0o600); err != nil {
		return err
	}
	log.Printf("wrote %s", corrupt)

	return printSummary(*outDir)
}

func writeExport(path string, e export) error {
	rows := [][]string{e.header}
	for i, w := range wards {
		rows = append(rows, row(w, i, e))
	}

	if e.xlsx {
		return writeXLSX(path, rows)
	}

	var buf bytes.Buffer
	if e.bom {
		buf.WriteString("\ufeff")
	}
	cw := csv.NewWriter(&buf)
	cw.Comma = e.delimiter
	if err := cw.WriteAll(rows); err != nil {
		return err
	}

	data := buf.Bytes()
	if e.cp1258 {
		encoded, err := charmap.Windows1258.NewEncoder().Bytes([]byte(toCP1258Form(buf.String())))
		if err != nil {
			return fmt.Errorf("encode windows-1258: %w", err)
		}
		data = encoded
	}
	return os.WriteFile(path, data, 0o600)
}

func writeXLSX(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cells := make([]any, len(r))
		for j, v := range r {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// row renders one ward for one export. Values drift by month so the series
// views have something to show; every fifth cell of LST is left blank.
func row(w ward, i int, e export) []string {
	m := float64(e.month)
	ndvi := 0.25 + 0.05*float64(i%4) + 0.02*m
	lst := 30 + 0.4*float64(i) + 0.7*m
	tvdi := 0.3 + 0.03*float64(i) - 0.01*m

	lon, lat := w.lon, w.lat
	if e.swap {
		lon, lat = lat, lon
	}

	lstCell := num(lst, 1, e.decimal)
	if (i+e.month)%5 == 0 {
		lstCell = "n/a"
	}

	return []string{
		w.code, w.name, parentRegion, w.landUse,
		num(lon, 6, e.decimal), num(lat, 6, e.decimal),
		num(ndvi, 3, e.decimal), lstCell, num(tvdi, 3, e.decimal),
	}
}

func num(v float64, prec int, decimal string) string {
	s := fmt.Sprintf("%.*f", prec, v)
	return strings.Replace(s, ".", decimal, 1)
}

func printSummary(dir string) error {
	enc, err := source.LookupEncoding("windows-1258")
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	loader := dataset.NewLoader(dir, source.NewReader(enc), normalize.DefaultBounds, logger, observability.NewMetrics())

	ds, err := loader.Load(true)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Loaded with SECONDARY_ENCODING=windows-1258 ===")
	for _, f := range loader.Report().Files {
		status := fmt.Sprintf("%d/%d rows", f.Accepted, f.Rows)
		if f.Skipped {
			status = "skipped (" + f.Reason + ")"
		}
		fmt.Printf("%-20s %s via %-8s %s\n", f.Name, f.Date, f.DateSource, status)
	}
	fmt.Printf("Total: %d observations, %d regions, %d timepoints\n",
		ds.Len(), len(ds.Regions()), len(ds.Timepoints()))
	return nil
}
