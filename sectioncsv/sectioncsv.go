// Package sectioncsv reads and writes the CSV shapes the paleochron command
// line tools exchange with the surrounding application: one proxy per samples
// file (depth, value, and once calibrated, age and extrapolated columns), and
// a shared tie-point file (section, depth, age).
package sectioncsv

import (
	"os"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"

	"github.com/Darkarion17/paleochron/chron"
)

type SampleRow struct {
	Depth        null.Float `csv:"depth"`
	Value        null.Float `csv:"value"`
	Age          null.Float `csv:"age"`
	Extrapolated bool       `csv:"extrapolated"`
}

type TiePointRow struct {
	Section string  `csv:"section"`
	Depth   float64 `csv:"depth"`
	Age     float64 `csv:"age"`
}

// ReadSection loads one section's samples file. The file's value column is
// stored under the given proxy key; rows without a value still contribute
// their depth (and any age) to the section.
func ReadSection(path, sectionID string, proxy chron.ProxyKey) (*chron.Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	var rows []SampleRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, pfx.Err(err)
	}

	sec := &chron.Section{ID: sectionID, Samples: make([]chron.Sample, 0, len(rows))}
	for _, row := range rows {
		samp := chron.Sample{
			Depth:        row.Depth,
			Age:          row.Age,
			Extrapolated: row.Extrapolated,
			Proxies:      map[chron.ProxyKey]float64{},
		}
		if row.Value.Valid {
			samp.Proxies[proxy] = row.Value.Float64
		}
		sec.Samples = append(sec.Samples, samp)
	}

	return sec, nil
}

// WriteSection writes the section back out in the same shape ReadSection
// consumes, including any calibrated ages and extrapolation flags.
func WriteSection(path string, sec *chron.Section, proxy chron.ProxyKey) error {
	rows := make([]SampleRow, 0, len(sec.Samples))
	for _, samp := range sec.Samples {
		row := SampleRow{
			Depth:        samp.Depth,
			Age:          samp.Age,
			Extrapolated: samp.Extrapolated,
		}
		if v, present := samp.Proxies[proxy]; present {
			row.Value = null.FloatFrom(v)
		}
		rows = append(rows, row)
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	return pfx.Err(gocsv.MarshalFile(&rows, f))
}

// ReadTiePoints loads tie points, optionally filtered to one section ID
// (empty keeps all).
func ReadTiePoints(path, sectionID string) ([]chron.TiePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	var rows []TiePointRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]chron.TiePoint, 0, len(rows))
	for _, row := range rows {
		if sectionID != "" && row.Section != sectionID {
			continue
		}
		out = append(out, chron.TiePoint{SectionID: row.Section, Depth: row.Depth, Age: row.Age})
	}

	return out, nil
}

// WriteTiePoints writes tie points in the shape ReadTiePoints consumes.
func WriteTiePoints(path string, tps []chron.TiePoint) error {
	rows := make([]TiePointRow, 0, len(tps))
	for _, tp := range tps {
		rows = append(rows, TiePointRow{Section: tp.SectionID, Depth: tp.Depth, Age: tp.Age})
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	return pfx.Err(gocsv.MarshalFile(&rows, f))
}
