// tiepointsuggest aligns one proxy curve between two sections and prints a
// ranked table of suggested tie-point correspondences. With -promote it also
// converts the top suggestions into target-section tie points, taking each
// anchor's age from the reference section's age model.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/Darkarion17/paleochron/compileinfoprint"

	"github.com/Darkarion17/paleochron/agemodel"
	"github.com/Darkarion17/paleochron/chron"
	"github.com/Darkarion17/paleochron/curvealign"
	"github.com/Darkarion17/paleochron/sectioncsv"
)

func main() {
	var refFile, targetFile, proxy string
	var refTiePointFile, refID, targetID, outTiePointFile string
	var maxSuggestions, promote int
	flag.StringVar(&refFile, "ref", "", "CSV of the reference section's samples")
	flag.StringVar(&targetFile, "target", "", "CSV of the target section's samples")
	flag.StringVar(&proxy, "proxy", "value", "proxy name; informational only, both files' value columns are aligned")
	flag.IntVar(&maxSuggestions, "max", curvealign.DefaultMaxSuggestions, "maximum number of suggestions to print")
	flag.IntVar(&promote, "promote", 0, "promote the top N suggestions to target tie points (requires -reftiepoints and -outtiepoints)")
	flag.StringVar(&refTiePointFile, "reftiepoints", "", "CSV of the reference section's tie points, used to assign ages to promoted anchors")
	flag.StringVar(&refID, "refid", "reference", "reference section ID in the tie-point file")
	flag.StringVar(&targetID, "targetid", "target", "target section ID written on promoted tie points")
	flag.StringVar(&outTiePointFile, "outtiepoints", "", "output CSV of promoted target tie points")
	flag.Parse()

	if refFile == "" || targetFile == "" || (promote > 0 && (refTiePointFile == "" || outTiePointFile == "")) {
		flag.PrintDefaults()
		os.Exit(1)
	}

	key := chron.ProxyKey(proxy)

	ref, err := sectioncsv.ReadSection(refFile, refID, key)
	if err != nil {
		log.Fatalln(err)
	}
	target, err := sectioncsv.ReadSection(targetFile, targetID, key)
	if err != nil {
		log.Fatalln(err)
	}

	cands, err := curvealign.Suggest(ref.ProxySeries(key), target.ProxySeries(key), maxSuggestions)
	if err != nil {
		log.Fatalln(err)
	}
	if len(cands) == 0 {
		log.Println("No alignment candidates found")
		return
	}

	fmt.Println("ref_depth\ttarget_depth\tconfidence")
	for _, c := range cands {
		fmt.Printf("%g\t%g\t%.0f\n", c.RefDepth, c.TargetDepth, c.Confidence)
	}

	if promote > 0 {
		if err := promoteTop(ref, cands, promote, refTiePointFile, refID, targetID, key, outTiePointFile); err != nil {
			log.Fatalln(err)
		}
	}
}

// promoteTop assigns ages to the top candidates via the reference section's
// age model and writes them out as target tie points. Candidates whose
// promotion would require an extrapolated reference age are skipped; an
// anchor should not inherit an age the reference chronology cannot vouch
// for.
func promoteTop(ref *chron.Section, cands []chron.AlignmentCandidate, n int, refTiePointFile, refID, targetID string, key chron.ProxyKey, outFile string) error {
	refTPs, err := sectioncsv.ReadTiePoints(refTiePointFile, refID)
	if err != nil {
		return err
	}

	model, err := agemodel.Build(ref, refTPs, key)
	if err != nil {
		return err
	}

	promoted := make([]chron.TiePoint, 0, n)
	for _, c := range cands {
		if len(promoted) == n {
			break
		}
		age, extrapolated := model.AgeAt(c.RefDepth)
		if extrapolated {
			log.Printf("Skipping candidate at ref depth %g: outside the reference tie-point range\n", c.RefDepth)
			continue
		}
		promoted = append(promoted, chron.TiePoint{SectionID: targetID, Depth: c.TargetDepth, Age: age})
	}

	if err := sectioncsv.WriteTiePoints(outFile, promoted); err != nil {
		return err
	}
	log.Printf("Promoted %d suggestions to tie points in %s\n", len(promoted), outFile)

	return nil
}
