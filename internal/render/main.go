package render

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/semaphore"

	"github.com/maptoolkit/maplibre-contour/internal/config"
	"github.com/maptoolkit/maplibre-contour/internal/contour"
	"github.com/maptoolkit/maplibre-contour/internal/coords"
	"github.com/maptoolkit/maplibre-contour/internal/mbtiles"
	"github.com/maptoolkit/maplibre-contour/internal/tilejson"
	"github.com/maptoolkit/maplibre-contour/internal/utils"
)

// Run is the subcommand's entrypoint
func Run(flagSet *flag.FlagSet) {

	start := time.Now()

	configPtr := flagSet.String("config", "", "Path to config.json")
	outputPtr := flagSet.String("out", "", "Path to output .mbtiles file")
	namePtr := flagSet.String("name", "contours", "Tileset name")
	minZoomPtr := flagSet.Int("minzoom", 8, "First zoom level to render")
	maxZoomPtr := flagSet.Int("maxzoom", 12, "Last zoom level to render")
	northPtr := flagSet.Float64("north", 0, "Northern bound (degrees)")
	southPtr := flagSet.Float64("south", 0, "Southern bound (degrees)")
	westPtr := flagSet.Float64("west", 0, "Western bound (degrees)")
	eastPtr := flagSet.Float64("east", 0, "Eastern bound (degrees)")

	flagSet.Parse(os.Args[2:])

	if *configPtr == "" || *outputPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}
	if *northPtr <= *southPtr || *eastPtr <= *westPtr {
		log.Fatal(errors.New("bounding box is empty, check -north/-south/-east/-west"))
	}

	cfg, err := config.Read(*configPtr)
	if err != nil {
		log.Fatal(err)
	}
	engineCfg, opts, err := cfg.EngineConfig()
	if err != nil {
		log.Fatal(err)
	}
	engine, err := contour.NewEngine(engineCfg)
	if err != nil {
		log.Fatal(err)
	}

	archive, err := mbtiles.Create(*outputPtr, *namePtr, fmt.Sprintf("Contour tiles rendered %s", time.Now().Format(time.DateOnly)))
	if err != nil {
		log.Fatal(err)
	}

	var total, empty uint64
	for zoom := *minZoomPtr; zoom <= *maxZoomPtr; zoom++ {
		timer := time.Now()
		fmt.Println("▶️  Rendering tiles for zoom", zoom)

		rendered, skipped := renderZoom(engine, archive, opts, zoom, *northPtr, *southPtr, *westPtr, *eastPtr)
		total += rendered
		empty += skipped

		fmt.Println("✔️  Finished zoom", zoom, "in", time.Since(timer).String())
	}

	if err := archive.InsertMeta([][2]string{
		{"minzoom", fmt.Sprintf("%d", *minZoomPtr)},
		{"maxzoom", fmt.Sprintf("%d", *maxZoomPtr)},
		{"bounds", fmt.Sprintf("%f,%f,%f,%f", *westPtr, *southPtr, *eastPtr, *northPtr)},
		{"json", vectorLayersJSON(*namePtr, opts)},
	}); err != nil {
		log.Fatal(err)
	}
	if err := archive.Close(); err != nil {
		log.Fatal(err)
	}

	// tile.json next to the archive for servers that want it
	if dir := path.Dir(*outputPtr); utils.IsDirectory(dir) {
		doc := tilejson.ForContours(*namePtr, opts.ContourLayer, opts.ElevationKey, opts.LevelKey, uint8(*minZoomPtr), uint8(*maxZoomPtr), nil)
		if err := tilejson.Write(dir, doc); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("ℹ️  Wrote %d tiles (%d empty skipped)\n", total, empty)
	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}

// renderZoom fans the zoom's tile range out over the CPUs and inserts
// every non-empty tile into the archive.
func renderZoom(engine *contour.Engine, archive *mbtiles.MBTiles, opts contour.Options, zoom int, north, south, west, east float64) (rendered, empty uint64) {
	nw, err := coords.LatLng2Tile(zoom, coords.LatLng{Latitude: north, Longitude: west})
	if err != nil {
		log.Fatal(err)
	}
	se, err := coords.LatLng2Tile(zoom, coords.LatLng{Latitude: south, Longitude: east})
	if err != nil {
		log.Fatal(err)
	}

	sem := semaphore.NewWeighted(int64(runtime.NumCPU()))
	insertMux := sync.Mutex{}
	wg := sync.WaitGroup{}

	for x := nw.X; x <= se.X; x++ {
		for y := nw.Y; y <= se.Y; y++ {
			wg.Add(1)
			go func(x, y int) {
				defer wg.Done()

				sem.Acquire(context.Background(), 1)
				defer sem.Release(1)

				data, err := engine.FetchContourTile(context.Background(), zoom, x, y, opts)
				if err != nil {
					fmt.Printf("Error while creating tile %d/%d/%d: %v\n", zoom, x, y, err)
					return
				}
				if len(data) == 0 {
					atomic.AddUint64(&empty, 1)
					return
				}

				compressed, err := gzipTile(data)
				if err != nil {
					fmt.Printf("Error while compressing tile %d/%d/%d: %v\n", zoom, x, y, err)
					return
				}

				insertMux.Lock()
				err = archive.InsertTile(zoom, x, y, compressed)
				insertMux.Unlock()
				if err != nil {
					fmt.Printf("Error while writing tile %d/%d/%d: %v\n", zoom, x, y, err)
					return
				}
				atomic.AddUint64(&rendered, 1)
			}(x, y)
		}
	}

	wg.Wait()
	return rendered, empty
}

func gzipTile(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func vectorLayersJSON(name string, opts contour.Options) string {
	return fmt.Sprintf(
		`{ "vector_layers": [ { "id": "%s", "fields": { "%s": "Number", "%s": "Number", "terrain_type": "String" } } ] }`,
		opts.ContourLayer, opts.ElevationKey, opts.LevelKey,
	)
}
