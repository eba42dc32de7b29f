package server

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/maptoolkit/maplibre-contour/internal/config"
	"github.com/maptoolkit/maplibre-contour/internal/contour"
)

// Run is the subcommand's entrypoint
func Run(flagSet *flag.FlagSet) {

	configPtr := flagSet.String("config", "", "Path to config.json")
	addrPtr := flagSet.String("addr", ":8080", "Listen address")
	namePtr := flagSet.String("name", "contours", "Tileset name for tile.json")
	maxZoomPtr := flagSet.Int("maxzoom", 15, "Maximum zoom advertised in tile.json")

	flagSet.Parse(os.Args[2:])

	if *configPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Read(*configPtr)
	if err != nil {
		log.Fatal(err)
	}
	engineCfg, defaults, err := cfg.EngineConfig()
	if err != nil {
		log.Fatal(err)
	}
	engine, err := contour.NewEngine(engineCfg)
	if err != nil {
		log.Fatal(err)
	}

	srv := New(engine, defaults, *namePtr, uint8(*maxZoomPtr))

	fmt.Printf("▶️  Serving contour tiles on %s\n", *addrPtr)
	log.Fatal(http.ListenAndServe(*addrPtr, srv.ServeMux()))
}
