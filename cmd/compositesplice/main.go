// compositesplice merges calibrated section CSVs into one composite record
// ordered by age, optionally honoring explicit per-section coverage
// intervals and optionally rendering the result to a PNG.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"

	_ "github.com/Darkarion17/paleochron/compileinfoprint"

	"github.com/Darkarion17/paleochron/chron"
	"github.com/Darkarion17/paleochron/sectioncsv"
	"github.com/Darkarion17/paleochron/splice"
)

type compositeRow struct {
	Age     float64 `csv:"age"`
	Section string  `csv:"section"`
	Value   float64 `csv:"value"`
}

func main() {
	var inSpec, coverageSpec, proxy, outFile, pngFile string
	flag.StringVar(&inSpec, "in", "", "comma-separated id=path pairs of calibrated section CSVs, e.g. 'X=x.csv,Y=y.csv'")
	flag.StringVar(&coverageSpec, "coverage", "", "optional comma-separated id=min:max age intervals, e.g. 'X=0:10,Y=10:25'. Omit to let each interval go to the highest-resolution section")
	flag.StringVar(&proxy, "proxy", "value", "proxy name carried into the composite")
	flag.StringVar(&outFile, "out", "", "output composite CSV")
	flag.StringVar(&pngFile, "png", "", "optional PNG chart of the composite over its source sections")
	flag.Parse()

	if inSpec == "" || outFile == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	key := chron.ProxyKey(proxy)

	sections, err := loadSections(inSpec, key)
	if err != nil {
		log.Fatalln(err)
	}

	coverage, err := parseCoverage(coverageSpec)
	if err != nil {
		log.Fatalln(err)
	}

	composite, err := splice.Compose(sections, coverage)
	if err != nil {
		log.Fatalln(err)
	}
	if len(composite) == 0 {
		log.Println("Composite is empty; nothing to write")
		return
	}

	if err := writeComposite(outFile, composite, key); err != nil {
		log.Fatalln(err)
	}

	if pngFile != "" {
		if err := renderComposite(pngFile, composite, key); err != nil {
			log.Fatalln(err)
		}
	}

	log.Printf("Spliced %d sections into %d composite samples spanning ages [%g, %g]\n",
		len(sections), len(composite), composite[0].Age, composite[len(composite)-1].Age)
}

func loadSections(spec string, key chron.ProxyKey) ([]*chron.Section, error) {
	var out []*chron.Section
	for _, pair := range strings.Split(spec, ",") {
		id, path, found := cut(pair)
		if !found {
			return nil, fmt.Errorf("malformed -in entry %q; want id=path", pair)
		}
		sec, err := sectioncsv.ReadSection(path, id, key)
		if err != nil {
			return nil, err
		}
		out = append(out, sec)
	}

	return out, nil
}

func parseCoverage(spec string) (splice.Coverage, error) {
	if spec == "" {
		return nil, nil
	}

	out := make(splice.Coverage)
	for _, pair := range strings.Split(spec, ",") {
		id, rng, found := cut(pair)
		if !found {
			return nil, fmt.Errorf("malformed -coverage entry %q; want id=min:max", pair)
		}
		parts := strings.SplitN(rng, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed -coverage interval %q; want min:max", rng)
		}
		min, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, pfx.Err(err)
		}
		max, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, pfx.Err(err)
		}
		out[id] = chron.AgeRange{Min: min, Max: max}
	}

	return out, nil
}

func cut(pair string) (key, value string, found bool) {
	idx := strings.Index(pair, "=")
	if idx < 0 {
		return "", "", false
	}

	return pair[:idx], pair[idx+1:], true
}

func writeComposite(path string, composite []chron.CompositeSample, key chron.ProxyKey) error {
	rows := make([]compositeRow, 0, len(composite))
	for _, cs := range composite {
		rows = append(rows, compositeRow{Age: cs.Age, Section: cs.SectionID, Value: cs.Values[key]})
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	return pfx.Err(gocsv.MarshalFile(&rows, f))
}
