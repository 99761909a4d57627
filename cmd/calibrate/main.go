// calibrate builds a section's age model from its tie points and writes the
// samples file back out with age and extrapolated columns filled in.
package main

import (
	"flag"
	"log"
	"os"

	_ "github.com/Darkarion17/paleochron/compileinfoprint"

	"github.com/Darkarion17/paleochron/agemodel"
	"github.com/Darkarion17/paleochron/chron"
	"github.com/Darkarion17/paleochron/sectioncsv"
)

func main() {
	var samplesFile, tiePointFile, sectionID, proxy, outFile string
	flag.StringVar(&samplesFile, "samples", "", "CSV of the section's samples (depth,value columns)")
	flag.StringVar(&tiePointFile, "tiepoints", "", "CSV of tie points (section,depth,age columns)")
	flag.StringVar(&sectionID, "section", "", "section ID; selects rows from the tie-point file")
	flag.StringVar(&proxy, "proxy", "", "proxy name for the value column. If set, interval ages bend toward proxy variation instead of pure interpolation")
	flag.StringVar(&outFile, "out", "", "output CSV of calibrated samples")
	flag.Parse()

	if samplesFile == "" || tiePointFile == "" || sectionID == "" || outFile == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	sec, err := sectioncsv.ReadSection(samplesFile, sectionID, chron.ProxyKey(proxy))
	if err != nil {
		log.Fatalln(err)
	}

	tps, err := sectioncsv.ReadTiePoints(tiePointFile, sectionID)
	if err != nil {
		log.Fatalln(err)
	}

	model, err := agemodel.Build(sec, tps, chron.ProxyKey(proxy))
	if err != nil {
		log.Fatalln(err)
	}
	model.Apply(sec)

	if err := sectioncsv.WriteSection(outFile, sec, chron.ProxyKey(proxy)); err != nil {
		log.Fatalln(err)
	}

	lo, hi := model.Domain()
	log.Printf("Calibrated %d samples in section %s over depths [%g, %g] from %d tie points\n",
		len(sec.Samples), sec.ID, lo, hi, len(tps))
}
