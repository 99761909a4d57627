// chronserver is a thin JSON-over-HTTP front over the chronology core, for
// interactive correlation sessions. It holds sections in memory only;
// persistence belongs to the surrounding application.
package main

import (
	"flag"
	"log"
	"net/http"

	_ "github.com/Darkarion17/paleochron/compileinfoprint"
)

func main() {
	var listen string
	flag.StringVar(&listen, "listen", ":9357", "address to listen on")
	flag.Parse()

	log.Printf("chronserver listening on %s\n", listen)
	log.Fatalln(http.ListenAndServe(listen, router(newStore())))
}
