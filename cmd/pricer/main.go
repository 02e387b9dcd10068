package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/mahmedddd/ezsell-sub001/internal/config"
	"github.com/mahmedddd/ezsell-sub001/internal/history"
	"github.com/mahmedddd/ezsell-sub001/internal/mcp"
	"github.com/mahmedddd/ezsell-sub001/internal/model"
	"github.com/mahmedddd/ezsell-sub001/internal/predict"
	"github.com/mahmedddd/ezsell-sub001/internal/vocab"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "predict":
		if err := runPredict(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "models":
		if err := runModels(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "history":
		if err := runHistory(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := runMCP(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("pricer %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// buildEngine resolves configuration and constructs the shared pieces.
func buildEngine(cliVocab, cliModels, cliLogLevel string) (*predict.Engine, *model.Registry, config.ResolvedConfig, error) {
	cfg, err := config.ResolveConfig(config.ResolveOptions{
		CLIVocab:    cliVocab,
		CLIModelDir: cliModels,
		CLILogLevel: cliLogLevel,
	})
	if err != nil {
		return nil, nil, cfg, err
	}

	logger := newLogger(cfg.LogLevel.Value)

	if cfg.ONNXLibPath.Value != "" {
		model.SetONNXLibraryPath(cfg.ONNXLibPath.Value)
	}

	tables, err := vocab.Load(cfg.VocabPath.Value)
	if err != nil {
		return nil, nil, cfg, err
	}

	regOpts := []model.RegistryOption{model.WithLogger(logger)}
	if cfg.ModelDir.Value != "" {
		regOpts = append(regOpts, model.WithArtifactDir(cfg.ModelDir.Value))
	}
	registry, err := model.NewRegistry(regOpts...)
	if err != nil {
		return nil, nil, cfg, err
	}

	engine := predict.NewEngine(registry, tables, predict.WithLogger(logger))
	return engine, registry, cfg, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

func runPredict(args []string) error {
	req := predict.Request{}
	var asJSON bool
	var cliVocab, cliModels, cliLogLevel, cliDB string

	setNum := func(dst **float64, raw, flag string) error {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %q", flag, raw)
		}
		*dst = &v
		return nil
	}

	i := 0
	next := func(flag string) (string, error) {
		i++
		if i >= len(args) {
			return "", fmt.Errorf("%s needs a value", flag)
		}
		return args[i], nil
	}
	for ; i < len(args); i++ {
		arg := args[i]
		var val string
		var err error
		switch arg {
		case "--json":
			asJSON = true
			continue
		case "--category", "--title", "--description", "--condition",
			"--brand", "--processor", "--gpu", "--material", "--type",
			"--ram", "--storage", "--camera", "--battery", "--screen",
			"--generation", "--seats", "--age",
			"--vocab", "--models", "--log-level", "--db":
			val, err = next(arg)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}

		switch arg {
		case "--category":
			req.Category = val
		case "--title":
			req.Title = val
		case "--description":
			req.Description = val
		case "--condition":
			req.Condition = val
		case "--brand":
			req.Hints.Brand = val
		case "--processor":
			req.Hints.Processor = val
		case "--gpu":
			req.Hints.GPU = val
		case "--material":
			req.Hints.Material = val
		case "--type":
			req.Hints.FurnitureType = val
		case "--ram":
			err = setNum(&req.Hints.RAMGB, val, arg)
		case "--storage":
			err = setNum(&req.Hints.StorageGB, val, arg)
		case "--camera":
			err = setNum(&req.Hints.CameraMP, val, arg)
		case "--battery":
			err = setNum(&req.Hints.BatteryMAH, val, arg)
		case "--screen":
			err = setNum(&req.Hints.ScreenSizeIn, val, arg)
		case "--generation":
			err = setNum(&req.Hints.Generation, val, arg)
		case "--seats":
			err = setNum(&req.Hints.SeatingCapacity, val, arg)
		case "--age":
			err = setNum(&req.Hints.AgeMonths, val, arg)
		case "--vocab":
			cliVocab = val
		case "--models":
			cliModels = val
		case "--log-level":
			cliLogLevel = val
		case "--db":
			cliDB = val
		}
		if err != nil {
			return err
		}
	}

	engine, _, _, err := buildEngine(cliVocab, cliModels, cliLogLevel)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := engine.Predict(context.Background(), req)
	if err != nil {
		var verr *predict.ValidationError
		if errors.As(err, &verr) {
			fmt.Println("Request rejected:", verr.Reason.Message)
			for _, r := range verr.Reason.Required {
				fmt.Println("  required:   ", r)
			}
			for _, r := range verr.Reason.Recommended {
				fmt.Println("  recommended:", r)
			}
			if verr.Reason.Example != "" {
				fmt.Println("  example:    ", verr.Reason.Example)
			}
			os.Exit(2)
		}
		return err
	}

	if err := recordPrediction(cliDB, req, res, time.Since(start)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record prediction: %v\n", err)
	}

	if asJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Estimated price: %.0f PKR (confidence: %s)\n", res.PredictedPrice, res.Confidence)
	fmt.Printf("Range:           %.0f – %.0f PKR\n", res.PriceRange.Min, res.PriceRange.Max)
	fmt.Printf("Completeness:    %.0f%%  (model %s)\n", res.Completeness*100, res.ModelVersion)
	if len(res.ExtractedFeatures) > 0 {
		fmt.Println("Extracted:")
		for k, v := range res.ExtractedFeatures {
			fmt.Printf("  %-18s %v\n", k, v)
		}
	}
	return nil
}

// recordPrediction appends a served CLI prediction to the same audit log
// the MCP server writes to, so `pricer history` covers both surfaces.
func recordPrediction(cliDB string, req predict.Request, res *predict.Result, took time.Duration) error {
	cfg, err := config.ResolveConfig(config.ResolveOptions{CLIDBPath: cliDB})
	if err != nil {
		return err
	}
	st, err := history.NewStore(cfg.DBPath.Value)
	if err != nil {
		return err
	}
	defer st.Close()

	_, err = st.Add(context.Background(), &history.Record{
		Category:     string(res.Category),
		TitleHash:    history.HashTitle(req.Title),
		Completeness: res.Completeness,
		Confidence:   string(res.Confidence),
		Price:        res.PredictedPrice,
		PriceMin:     res.PriceRange.Min,
		PriceMax:     res.PriceRange.Max,
		ModelVersion: res.ModelVersion,
		DurationMS:   took.Milliseconds(),
	})
	return err
}

func runModels(args []string) error {
	_, registry, _, err := buildEngine("", "", "")
	if err != nil {
		return err
	}
	for cat, ver := range registry.Versions() {
		fmt.Printf("%-10s %s\n", cat, ver)
	}
	return nil
}

func runHistory(args []string) error {
	limit := 20
	var dbPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--limit":
			i++
			if i >= len(args) {
				return fmt.Errorf("--limit needs a value")
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return fmt.Errorf("invalid --limit: %q", args[i])
			}
			limit = n
		case "--db":
			i++
			if i >= len(args) {
				return fmt.Errorf("--db needs a value")
			}
			dbPath = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	cfg, err := config.ResolveConfig(config.ResolveOptions{CLIDBPath: dbPath})
	if err != nil {
		return err
	}
	st, err := history.NewStore(cfg.DBPath.Value)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No predictions recorded yet.")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %-10s %8.0f PKR  [%8.0f – %8.0f]  %-6s  %s\n",
			r.CreatedAt.Format(time.DateTime), r.Category, r.Price,
			r.PriceMin, r.PriceMax, r.Confidence, r.ModelVersion)
	}
	return nil
}

func runMCP(args []string) error {
	var dbPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--db":
			i++
			if i >= len(args) {
				return fmt.Errorf("--db needs a value")
			}
			dbPath = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	engine, registry, cfg, err := buildEngine("", "", "")
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel.Value)

	resolved, err := config.ResolveConfig(config.ResolveOptions{CLIDBPath: dbPath})
	if err != nil {
		return err
	}
	st, err := history.NewStore(resolved.DBPath.Value)
	if err != nil {
		return err
	}
	defer st.Close()

	s := mcp.NewServer(mcp.ServerConfig{
		Engine:   engine,
		Registry: registry,
		History:  st,
		Version:  version,
		Logger:   logger,
	})
	return mcpserver.ServeStdio(s)
}

func printUsage() {
	fmt.Printf(`pricer %s - price estimation for ezsell listings

Usage:
  pricer <command> [arguments]

Commands:
  predict             Estimate a price for a listing
  models              Show loaded category models and versions
  history             Show recently served predictions
  mcp                 Serve the predictor over MCP (stdio)
  version             Print version

Predict Flags:
  --category <c>      mobile | laptop | furniture (required)
  --title <s>         Listing title (required)
  --description <s>   Listing description (required)
  --condition <c>     new | used | refurbished (required)
  --material <s>      Material (required for furniture unless in text)
  --brand, --processor, --gpu, --type
                      Structured string hints (override text extraction)
  --ram, --storage, --camera, --battery, --screen, --generation,
  --seats, --age      Structured numeric hints (override text extraction)
  --json              Emit the result as JSON

Common Flags:
  --vocab <path>      Vocabulary override file (YAML)
  --models <dir>      Model artifact directory (default: built-in)
  --db <path>         Prediction history database
  --log-level <lvl>   trace|debug|info|warn|error
  -h, --help          Show this help message
  -v, --version       Print version
`, version)
}
