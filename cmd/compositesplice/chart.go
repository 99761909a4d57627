package main

import (
	"os"
	"sort"

	"github.com/carbocation/pfx"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/Darkarion17/paleochron/chron"
)

// renderComposite draws the composite as one series per contributing
// section, so the section handoffs are visible as color changes.
func renderComposite(path string, composite []chron.CompositeSample, key chron.ProxyKey) error {
	grouped := make(map[string]*chart.ContinuousSeries)
	for _, cs := range composite {
		s := grouped[cs.SectionID]
		if s == nil {
			s = &chart.ContinuousSeries{Name: cs.SectionID}
			grouped[cs.SectionID] = s
		}
		s.XValues = append(s.XValues, cs.Age)
		s.YValues = append(s.YValues, cs.Values[key])
	}

	names := make([]string, 0, len(grouped))
	for name, s := range grouped {
		// A single point cannot be drawn as a line.
		if len(s.XValues) >= 2 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	series := make([]chart.Series, 0, len(names))
	for _, name := range names {
		series = append(series, *grouped[name])
	}

	graph := chart.Chart{
		XAxis:  chart.XAxis{Name: "Age (ka)"},
		YAxis:  chart.YAxis{Name: string(key)},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	return pfx.Err(graph.Render(chart.PNG, f))
}
