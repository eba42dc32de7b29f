package preview

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"
	"path"
	"time"

	"github.com/nfnt/resize"

	"github.com/maptoolkit/maplibre-contour/internal/config"
	"github.com/maptoolkit/maplibre-contour/internal/dem"
	"github.com/maptoolkit/maplibre-contour/internal/fetch"
	"github.com/maptoolkit/maplibre-contour/internal/utils"
)

var sizes = []uint{64, 128, 512}

// Run is the subcommand's entrypoint
func Run(flagSet *flag.FlagSet) {

	start := time.Now()

	configPtr := flagSet.String("config", "", "Path to config.json")
	outputPtr := flagSet.String("out", "", "Path to output directory")
	zPtr := flagSet.Int("z", 10, "Tile zoom")
	xPtr := flagSet.Int("x", 0, "Tile column")
	yPtr := flagSet.Int("y", 0, "Tile row")

	flagSet.Parse(os.Args[2:])

	if *configPtr == "" || *outputPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	if !utils.IsDirectory(*outputPtr) {
		log.Fatal(errors.New("output directory doesn't exist"))
	}

	cfg, err := config.Read(*configPtr)
	if err != nil {
		log.Fatal(err)
	}
	engineCfg, _, err := cfg.EngineConfig()
	if err != nil {
		log.Fatal(err)
	}

	timer := time.Now()
	fmt.Printf("▶️  Fetching DEM tile %d/%d/%d\n", *zPtr, *xPtr, *yPtr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url := fetch.ExpandURL(engineCfg.Dem.URL, *zPtr, *xPtr, *yPtr)
	resp, err := fetch.HTTP(nil)(ctx, url)
	if err != nil {
		log.Fatal(err)
	}
	tile, err := dem.DecodeImage(resp.Data, engineCfg.Dem.Encoding)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Fetched DEM tile in", time.Since(timer).String())

	timer = time.Now()
	fmt.Println("▶️  Rendering elevation preview")
	previewImage := renderElevation(tile)
	saveImage(path.Join(*outputPtr, "preview.png"), previewImage)
	fmt.Println("✔️  Rendered preview in", time.Since(timer).String())

	for _, size := range sizes {
		timer = time.Now()
		fmt.Printf("▶️  Building x%d image\n", size)

		img := resize.Resize(size, size, previewImage, resize.MitchellNetravali)
		saveImage(path.Join(*outputPtr, fmt.Sprintf("preview_%d.png", size)), img)

		fmt.Printf("✔️  Built x%d in %s\n", size, time.Since(timer).String())
	}

	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}

// renderElevation maps the tile's elevation range onto a grayscale ramp.
func renderElevation(tile *dem.Tile) *image.Gray {
	min := math.Inf(1)
	max := math.Inf(-1)
	for _, e := range tile.Elevations {
		v := float64(e)
		if math.IsNaN(v) {
			continue
		}
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	img := image.NewGray(image.Rect(0, 0, tile.Width, tile.Height))
	span := max - min
	if span <= 0 {
		span = 1
	}
	for y := 0; y < tile.Height; y++ {
		for x := 0; x < tile.Width; x++ {
			v := float64(tile.Elevations[y*tile.Width+x])
			if math.IsNaN(v) {
				continue
			}
			img.SetGray(x, y, color.Gray{Y: uint8(math.Round((v - min) / span * 255))})
		}
	}
	return img
}

func saveImage(imagePath string, img image.Image) {
	out, err := os.Create(imagePath)
	if err != nil {
		log.Fatal(err)
	}
	if err := png.Encode(out, img); err != nil {
		log.Fatal(err)
	}
	if err := out.Close(); err != nil {
		log.Fatal(err)
	}
}
