package main

import (
	"fmt"
	"github.com/alecthomas/kong"
	"github.com/hauke96/sigolo/v2"
	"math"
	"os"
	"spatialgrid/importing"
	"spatialgrid/index"
	ownIo "spatialgrid/io"
	"spatialgrid/web"
	"strings"
)

const VERSION = "v0.1.0"

type GridFlags struct {
	XStart float64 `help:"Lower x bound of the grid (inclusive)." default:"0" env:"GRID_X_START"`
	XEnd   float64 `help:"Upper x bound of the grid (exclusive)." default:"10" env:"GRID_X_END"`
	YStart float64 `help:"Lower y bound of the grid (inclusive)." default:"0" env:"GRID_Y_START"`
	YEnd   float64 `help:"Upper y bound of the grid (exclusive)." default:"10" env:"GRID_Y_END"`
	XBins  int     `help:"Number of bins along the x axis." default:"10" env:"GRID_X_BINS"`
	YBins  int     `help:"Number of bins along the y axis." default:"10" env:"GRID_Y_BINS"`
}

var cli struct {
	Logging string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info"`
	Version VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	Grid    GridFlags   `embed:"" prefix:"grid-"`
	Demo    struct{}    `cmd:"" help:"Runs a small insert, search and delete scenario on the grid."`
	Import  struct {
		Input string `help:"The input file. Either .osm or .osm.pbf." placeholder:"<input-file>" arg:"" type:"existingfile"`
		Fit   bool   `help:"Fit the grid bounds to the extent of the input data instead of using the grid flags."`
	} `cmd:"" help:"Imports the nodes of the given OSM file into the grid and reports the result."`
	Nearest struct {
		X        float64 `help:"X coordinate of the query point." required:""`
		Y        float64 `help:"Y coordinate of the query point." required:""`
		Strategy string  `help:"Search strategy." enum:"linear,expanding" short:"s" default:"expanding"`
		Input    string  `help:"Optional OSM file whose nodes are imported before searching." placeholder:"<input-file>" type:"existingfile"`
		Fit      bool    `help:"Fit the grid bounds to the extent of the input data."`
	} `cmd:"" help:"Finds the point nearest to the given coordinate and prints it as GeoJSON."`
	Export struct {
		Input  string `help:"The input file. Either .osm or .osm.pbf." placeholder:"<input-file>" arg:"" type:"existingfile"`
		Output string `help:"The GeoJSON output file." placeholder:"<output-file>" arg:""`
		Fit    bool   `help:"Fit the grid bounds to the extent of the input data."`
	} `cmd:"" help:"Imports the given OSM file and writes all points of the grid as GeoJSON."`
	Server struct {
		Port    string `help:"The port this server should listen to." short:"p" default:"8080"`
		Input   string `help:"Optional OSM file whose nodes are imported on startup." placeholder:"<input-file>" type:"existingfile"`
		Fit     bool   `help:"Fit the grid bounds to the extent of the input data."`
		TlsCert string `help:"Certificate file for TLS. Requires --tls-key." placeholder:"<cert-file>" type:"existingfile"`
		TlsKey  string `help:"Key file for TLS. Requires --tls-cert." placeholder:"<key-file>" type:"existingfile"`
	} `cmd:"" help:"Starts an HTTP server providing the grid operations."`
}

type VersionFlag string

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("Spatial grid"),
		kong.Description("A uniform grid index for 2-D points with nearest-neighbor search."),
		kong.Vars{
			"version": VERSION,
		},
	)

	if strings.ToLower(cli.Logging) == "debug" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	} else if strings.ToLower(cli.Logging) == "trace" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	} else if strings.ToLower(cli.Logging) == "info" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
	} else {
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
		sigolo.Fatalf("Unknown logging level '%s'", cli.Logging)
	}

	switch ctx.Command() {
	case "demo":
		runDemo()
	case "import <input>":
		loadGrid(cli.Import.Input, cli.Import.Fit)
	case "nearest":
		grid := loadGrid(cli.Nearest.Input, cli.Nearest.Fit)

		strategy, err := index.ParseStrategy(cli.Nearest.Strategy)
		sigolo.FatalCheck(err)

		if !isFinite(cli.Nearest.X) || !isFinite(cli.Nearest.Y) {
			sigolo.Fatalf("Query coordinates must be finite numbers but were (%f, %f)", cli.Nearest.X, cli.Nearest.Y)
		}

		result := grid.Search(cli.Nearest.X, cli.Nearest.Y, strategy)
		if !result.Found {
			sigolo.Infof("Grid contains no points")
		}

		err = ownIo.WriteSearchResultAsGeoJson(result, strategy, os.Stdout)
		sigolo.FatalCheck(err)
	case "export <input> <output>":
		grid := loadGrid(cli.Export.Input, cli.Export.Fit)

		err := ownIo.WritePointsAsGeoJsonFile(grid.Points(), cli.Export.Output)
		sigolo.FatalCheck(err)

		sigolo.Infof("Wrote %d points to %s", grid.Len(), cli.Export.Output)
	case "server":
		grid := loadGrid(cli.Server.Input, cli.Server.Fit)

		if cli.Server.TlsCert != "" && cli.Server.TlsKey != "" {
			web.StartServerTls(cli.Server.Port, cli.Server.TlsCert, cli.Server.TlsKey, grid)
		} else if cli.Server.TlsCert != "" || cli.Server.TlsKey != "" {
			sigolo.Fatalf("Both --tls-cert and --tls-key are required for TLS")
		} else {
			web.StartServer(cli.Server.Port, grid)
		}
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
}

// loadGrid creates the grid from the grid flags, or fitted to the input data, and imports the input file if one is
// given.
func loadGrid(inputFile string, fit bool) *index.Grid {
	var grid *index.Grid
	var err error

	if fit && inputFile != "" {
		grid, err = importing.FitGrid(inputFile, cli.Grid.XBins, cli.Grid.YBins)
	} else {
		if fit {
			sigolo.Errorf("Ignoring --fit without input file")
		}
		grid, err = index.NewGrid(cli.Grid.XStart, cli.Grid.XEnd, cli.Grid.YStart, cli.Grid.YEnd, cli.Grid.XBins, cli.Grid.YBins)
	}
	sigolo.FatalCheck(err)

	if inputFile == "" {
		return grid
	}

	summary, err := importing.Import(inputFile, grid)
	sigolo.FatalCheck(err)

	bound := grid.Bound()
	numXBins, numYBins := grid.Resolution()
	sigolo.Infof("Grid x=[%f, %f), y=[%f, %f) with %dx%d bins contains %d points, %d nodes were outside of the grid",
		bound.Min.X(), bound.Max.X(), bound.Min.Y(), bound.Max.Y(), numXBins, numYBins, grid.Len(), summary.Rejected)

	return grid
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func runDemo() {
	grid, err := index.NewGrid(cli.Grid.XStart, cli.Grid.XEnd, cli.Grid.YStart, cli.Grid.YEnd, cli.Grid.XBins, cli.Grid.YBins)
	sigolo.FatalCheck(err)

	for _, point := range [][2]float64{{2.5, 3.5}, {8.1, 8.2}, {2.8, 3.1}, {5.5, 5.5}} {
		err = grid.Insert(point[0], point[1])
		if err != nil {
			sigolo.Errorf("Insert failed: %s", err.Error())
			continue
		}
		sigolo.Infof("Inserted (%.1f, %.1f)", point[0], point[1])
	}

	logNearest(grid, 2.6, 3.2)

	err = grid.Delete(8.1, 8.2)
	if err != nil {
		sigolo.Errorf("Delete failed: %s", err.Error())
	} else {
		sigolo.Infof("Deleted (8.1, 8.2)")
	}

	err = grid.Delete(8.1, 8.2)
	if err != nil {
		sigolo.Infof("Deleting (8.1, 8.2) again failed as expected: %s", err.Error())
	}

	logNearest(grid, 8, 8)
}

func logNearest(grid *index.Grid, x float64, y float64) {
	for _, strategy := range []index.Strategy{index.StrategyLinear, index.StrategyExpanding} {
		result := grid.Search(x, y, strategy)
		if !result.Found {
			sigolo.Infof("%s search for (%.1f, %.1f): no point found", strategy, x, y)
			continue
		}
		sigolo.Infof("%s search for (%.1f, %.1f): nearest point is (%.1f, %.1f) at distance %f, %d of %d visited bins scanned",
			strategy, x, y, result.Point.X(), result.Point.Y(), result.Distance, result.Stats.CellsScanned, result.Stats.CellsVisited)
	}
}
