package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"

	"fxfeed/pkg/pricing"
)

// ArchiveTimeLayout is the timestamp layout of archive rows.
const ArchiveTimeLayout = "02.01.2006 15:04:05.000"

var archiveHeader = []string{"Time", "Ask", "Bid", "AskVolume", "BidVolume"}

// ArchiveWriter writes one day file of Time,Ask,Bid,AskVolume,BidVolume rows.
// Volumes are drawn uniformly from [1, 3) and rendered as x.xx00.
type ArchiveWriter struct {
	csv     *csv.Writer
	volumes *rand.Rand
	header  bool
	rows    int
}

// NewArchiveWriter wraps w. volumes supplies the synthetic volume draws.
func NewArchiveWriter(w io.Writer, volumes *rand.Rand) *ArchiveWriter {
	return &ArchiveWriter{csv: csv.NewWriter(w), volumes: volumes}
}

// Write appends tick, emitting the header before the first row.
func (a *ArchiveWriter) Write(tick pricing.TickEvent) error {
	if !a.header {
		if err := a.csv.Write(archiveHeader); err != nil {
			return fmt.Errorf("journal: archive header: %w", err)
		}
		a.header = true
	}
	row := []string{
		tick.Time.Format(ArchiveTimeLayout),
		pricing.FormatPrice(tick.Ask),
		pricing.FormatPrice(tick.Bid),
		a.volume(),
		a.volume(),
	}
	if err := a.csv.Write(row); err != nil {
		return fmt.Errorf("journal: archive row: %w", err)
	}
	a.rows++
	return nil
}

func (a *ArchiveWriter) volume() string {
	return fmt.Sprintf("%.2f00", 1+2*a.volumes.Float64())
}

// Rows is the number of ticks written.
func (a *ArchiveWriter) Rows() int { return a.rows }

// Flush writes buffered rows and reports any earlier write error.
func (a *ArchiveWriter) Flush() error {
	a.csv.Flush()
	return a.csv.Error()
}
