package contour

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/maptoolkit/maplibre-contour/internal/cache"
	"github.com/maptoolkit/maplibre-contour/internal/dem"
	"github.com/maptoolkit/maplibre-contour/internal/fetch"
	"github.com/maptoolkit/maplibre-contour/internal/isoline"
	"github.com/maptoolkit/maplibre-contour/internal/mvt"
	"github.com/maptoolkit/maplibre-contour/internal/terrain"
)

// DemSource describes the raster-DEM tile endpoint.
type DemSource struct {
	// URL is a template with {z}, {x} and {y} placeholders.
	URL      string
	Encoding dem.Encoding
	// MaxZoom is the deepest zoom the endpoint serves.
	MaxZoom int
}

// TerrainSource describes the companion vector-tile endpoint holding
// the glacier and rock polygons.
type TerrainSource struct {
	URL            string
	SourceLayer    string
	TypeKey        string
	GlacierValues  []string
	RockValues     []string
	SimplifyMethod terrain.SimplifyMethod
}

// DecodeFunc turns fetched DEM image bytes into an elevation grid.
type DecodeFunc func(ctx context.Context, data []byte, encoding dem.Encoding) (*dem.Tile, error)

// Config assembles an Engine.
type Config struct {
	Dem     DemSource
	Terrain *TerrainSource
	// Fetch defaults to plain HTTP.
	Fetch fetch.Func
	// Decode defaults to dem.DecodeImage.
	Decode DecodeFunc
	// Timeout bounds each fetch; defaults to 10s.
	Timeout time.Duration
	// CacheSize bounds each of the tile caches; defaults to 100.
	CacheSize int
	// Compute bounds concurrent contour generation; defaults to the
	// number of CPUs.
	Compute int64
}

// Engine services contour-tile requests end to end: it fetches and
// stitches DEM neighborhoods, extracts and simplifies isolines, splits
// them against terrain polygons and encodes the result as a Mapbox
// vector tile.
type Engine struct {
	cfg      Config
	splitter *terrain.Splitter

	rawDem   *cache.Cache[*fetch.Response]
	demTiles *cache.Cache[*dem.Tile]
	rawVec   *cache.Cache[*fetch.Response]
	polygons *cache.Cache[[]terrain.Polygon]
	results  *cache.Cache[[]byte]

	sem *semaphore.Weighted
}

// NewEngine validates cfg, fills its defaults and builds an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Dem.URL == "" {
		return nil, errors.New("dem url must not be empty")
	}
	if !cfg.Dem.Encoding.Valid() {
		return nil, fmt.Errorf("unknown dem encoding %q", cfg.Dem.Encoding)
	}
	if cfg.Fetch == nil {
		cfg.Fetch = fetch.HTTP(nil)
	}
	if cfg.Decode == nil {
		cfg.Decode = func(_ context.Context, data []byte, encoding dem.Encoding) (*dem.Tile, error) {
			return dem.DecodeImage(data, encoding)
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 100
	}
	if cfg.Compute <= 0 {
		cfg.Compute = int64(runtime.NumCPU())
	}
	method := terrain.SimplifyMethod("")
	if cfg.Terrain != nil {
		method = cfg.Terrain.SimplifyMethod
	}
	return &Engine{
		cfg:      cfg,
		splitter: terrain.NewSplitter(method),
		rawDem:   cache.New[*fetch.Response](cfg.CacheSize),
		demTiles: cache.New[*dem.Tile](cfg.CacheSize),
		rawVec:   cache.New[*fetch.Response](cfg.CacheSize),
		polygons: cache.New[[]terrain.Polygon](cfg.CacheSize),
		results:  cache.New[[]byte](cfg.CacheSize),
		sem:      semaphore.NewWeighted(cfg.Compute),
	}, nil
}

// FetchContourTile builds the vector tile of classified contour lines
// for (z, x, y). An empty buffer without error means there is nothing
// to draw: no thresholds apply at this zoom, or the DEM has no coverage
// here. Identical concurrent requests share one computation.
func (e *Engine) FetchContourTile(ctx context.Context, z, x, y int, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	levels := opts.Thresholds.ForZoom(z)
	if len(levels) == 0 {
		return []byte{}, nil
	}
	key := fmt.Sprintf("%d/%d/%d/%s", z, x, y, opts.CacheKey())
	return e.results.Get(ctx, key, func(ctx context.Context, _ string) ([]byte, error) {
		return e.buildTile(ctx, z, x, y, levels, opts)
	})
}

func (e *Engine) buildTile(ctx context.Context, z, x, y int, levels []float64, opts Options) ([]byte, error) {
	demZ := z - opts.Overzoom
	if demZ > e.cfg.Dem.MaxZoom {
		demZ = e.cfg.Dem.MaxZoom
	}
	if demZ < 0 {
		demZ = 0
	}
	demX := x >> uint(z-demZ)
	demY := y >> uint(z-demZ)

	virtual, ok, err := e.fetchNeighborhood(ctx, demZ, demX, demY)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []byte{}, nil
	}

	if subZ := z - demZ; subZ > 0 {
		mask := (1 << uint(subZ)) - 1
		virtual = virtual.Split(subZ, x&mask, y&mask)
	}

	// heavy compute from here on; bound it like any other worker pool
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	tile := virtual
	if tile.Width >= opts.SubsampleBelow {
		tile = tile.Materialize(2)
	} else {
		for tile.Width < opts.SubsampleBelow {
			tile = tile.SubsamplePixelCenters(2).Materialize(2)
		}
	}
	tile = tile.AveragePixelCentersToGrid().
		ScaleElevation(float32(opts.Multiplier)).
		Materialize(1)

	isolines := isoline.Generate(tile, levels[0], opts.Extent, opts.Buffer)
	if opts.Simplify > 0 {
		for ele, lines := range isolines {
			isolines[ele] = isoline.Simplify(lines, opts.Simplify, opts.Extent)
		}
	}

	var classified map[float64][]terrain.Segment
	if opts.SplitMode == SplitClassic && e.cfg.Terrain != nil {
		polys := e.fetchTerrainPolygons(ctx, z, x, y)
		classified = e.splitter.Split(isolines, polys, opts.Extent, z)
	} else {
		classified = terrain.AllNormal(isolines)
	}

	// never emit a partial tile after cancellation
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return mvt.Encode(classified, mvt.EncodeOptions{
		Layer:        opts.ContourLayer,
		Extent:       opts.Extent,
		ElevationKey: opts.ElevationKey,
		LevelKey:     opts.LevelKey,
		Thresholds:   levels,
	})
}

// fetchNeighborhood fetches the 3x3 block of DEM tiles around the
// center in parallel, wrapping x around the antimeridian. The center
// must resolve; failed or out-of-domain neighbors become NaN holes.
func (e *Engine) fetchNeighborhood(ctx context.Context, z, x, y int) (dem.HeightTile, bool, error) {
	n := 1 << uint(z)
	tiles := make([]*dem.Tile, 9)
	errs := make([]error, 9)

	var wg sync.WaitGroup
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= n {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			i := (dy+1)*3 + dx + 1
			nx := ((x+dx)%n + n) % n
			wg.Add(1)
			go func(i, nx, ny int) {
				defer wg.Done()
				tiles[i], errs[i] = e.fetchDemTile(ctx, z, nx, ny)
			}(i, nx, ny)
		}
	}
	wg.Wait()

	if errs[4] != nil {
		return dem.HeightTile{}, false, errs[4]
	}
	if tiles[4] == nil {
		// center is outside the DEM domain
		return dem.HeightTile{}, false, nil
	}

	heights := make([]*dem.HeightTile, 9)
	for i, t := range tiles {
		if t != nil {
			h := dem.FromRaw(t)
			heights[i] = &h
		}
	}
	combined, ok := dem.CombineNeighbors(heights)
	return combined, ok, nil
}

func (e *Engine) fetchDemTile(ctx context.Context, z, x, y int) (*dem.Tile, error) {
	url := fetch.ExpandURL(e.cfg.Dem.URL, z, x, y)
	return e.demTiles.Get(ctx, url, func(ctx context.Context, key string) (*dem.Tile, error) {
		raw, err := e.fetchRaw(ctx, e.rawDem, key)
		if err != nil {
			return nil, err
		}
		return e.cfg.Decode(ctx, raw.Data, e.cfg.Dem.Encoding)
	})
}

// fetchTerrainPolygons loads and parses the companion vector tile.
// Failures degrade to "no polygons": contours still render, unsplit.
func (e *Engine) fetchTerrainPolygons(ctx context.Context, z, x, y int) []terrain.Polygon {
	ts := e.cfg.Terrain
	url := fetch.ExpandURL(ts.URL, z, x, y)
	polys, err := e.polygons.Get(ctx, url, func(ctx context.Context, key string) ([]terrain.Polygon, error) {
		raw, err := e.fetchRaw(ctx, e.rawVec, key)
		if err != nil {
			return nil, err
		}
		polys, err := mvt.DecodeTerrainPolygons(raw.Data, mvt.TerrainLayerConfig{
			SourceLayer:   ts.SourceLayer,
			TypeKey:       ts.TypeKey,
			GlacierValues: ts.GlacierValues,
			RockValues:    ts.RockValues,
		})
		if err != nil {
			log.Printf("terrain tile %s: %v", key, err)
			return nil, nil
		}
		return polys, nil
	})
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("terrain polygons %d/%d/%d unavailable: %v", z, x, y, err)
		}
		return nil
	}
	return polys
}

// fetchRaw pulls url through the given response cache with the
// configured per-fetch deadline.
func (e *Engine) fetchRaw(ctx context.Context, c *cache.Cache[*fetch.Response], url string) (*fetch.Response, error) {
	return c.Get(ctx, url, func(ctx context.Context, key string) (*fetch.Response, error) {
		ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
		resp, err := e.cfg.Fetch(ctx, key)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, fetch.ErrTimeout) {
			err = fmt.Errorf("%w: %v", fetch.ErrTimeout, err)
		}
		return resp, err
	})
}
