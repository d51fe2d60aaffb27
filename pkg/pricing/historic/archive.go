package historic

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fxfeed/pkg/pricing"
)

// Column order of archive files: Time,Ask,Bid[,AskVolume,BidVolume].
const (
	colTime = iota
	colAsk
	colBid
	minColumns
)

var timeLayouts = []string{
	"02.01.2006 15:04:05.000",
	"02.01.2006 15:04:05",
	"02/01/2006 15:04:05.000",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
}

type row struct {
	pair string
	time time.Time
	bid  decimal.Decimal
	ask  decimal.Decimal
	src  string // file:line
}

// FileName returns the archive file name for pair on day.
func FileName(pair string, day time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", pair, day.Format("20060102"), ext)
}

// listDays returns the distinct YYYYMMDD dates for which at least one of the
// pairs has an archive file, in ascending order.
func listDays(dir, ext string, pairs []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("historic: read archive dir: %w", err)
	}
	patterns := make([]*regexp.Regexp, 0, len(pairs))
	for _, p := range pairs {
		patterns = append(patterns, regexp.MustCompile(`^`+regexp.QuoteMeta(p)+`_(\d{8})\.`+regexp.QuoteMeta(ext)+`$`))
	}

	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		for _, re := range patterns {
			if m := re.FindStringSubmatch(entry.Name()); m != nil {
				seen[m[1]] = struct{}{}
			}
		}
	}
	days := make([]string, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Strings(days)
	return days, nil
}

// loadDay reads every pair's file for day and merges the rows in timestamp
// order. Pairs without a file for the day contribute nothing; rows with equal
// timestamps keep pair order and then file order.
func loadDay(dir, ext, day string, pairs []string, loc *time.Location) ([]row, error) {
	var rows []row
	for _, p := range pairs {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", p, day, ext))
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("historic: open %s: %w", path, err)
		}
		pairRows, err := readRows(f, p, filepath.Base(path), loc)
		f.Close()
		if err != nil {
			return nil, err
		}
		rows = append(rows, pairRows...)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].time.Before(rows[j].time) })
	return rows, nil
}

func readRows(r io.Reader, pair, name string, loc *time.Location) ([]row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var rows []row
	for first := true; ; first = false {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("historic: %s: %w", name, err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) < minColumns {
			return nil, fmt.Errorf("historic: %s:%d: expected at least %d columns, got %d", name, line, minColumns, len(record))
		}
		ts, err := parseTime(record[colTime], loc)
		if err != nil {
			if first {
				continue // header
			}
			return nil, fmt.Errorf("historic: %s:%d: %w", name, line, err)
		}
		ask, err := pricing.Quantize(record[colAsk])
		if err != nil {
			return nil, fmt.Errorf("historic: %s:%d ask: %w", name, line, err)
		}
		bid, err := pricing.Quantize(record[colBid])
		if err != nil {
			return nil, fmt.Errorf("historic: %s:%d bid: %w", name, line, err)
		}
		rows = append(rows, row{
			pair: pair,
			time: ts,
			ask:  ask,
			bid:  bid,
			src:  fmt.Sprintf("%s:%d", name, line),
		})
	}
}

func parseTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}
