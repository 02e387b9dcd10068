// Package mcp exposes the price estimation engine over the Model Context
// Protocol: a predict tool, a model-info tool, and a recent-history tool.
// Supports stdio transport for agent hosts.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/mahmedddd/ezsell-sub001/internal/history"
	"github.com/mahmedddd/ezsell-sub001/internal/model"
	"github.com/mahmedddd/ezsell-sub001/internal/predict"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Engine   *predict.Engine
	Registry *model.Registry
	History  history.Store // optional; history tool is skipped when nil
	Version  string
	Logger   zerolog.Logger
}

// NewServer creates a configured MCP server with all pricer tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"ezsell-pricer",
		ver,
		server.WithToolCapabilities(false),
	)

	registerPredictTool(s, cfg)
	registerModelsTool(s, cfg.Registry)
	if cfg.History != nil {
		registerHistoryTool(s, cfg.History)
	}

	return s
}

func registerPredictTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("price_predict",
		mcp.WithDescription("Estimate a fair price for a classifieds listing. Returns a point estimate, a confidence tier, and a price range. Categories: mobile, laptop, furniture. Furniture requires a material, either in the text or as the material argument."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Listing category"),
			mcp.Enum("mobile", "laptop", "furniture"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Listing title (at least 10 characters)"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Listing description (at least 20 characters)"),
		),
		mcp.WithString("condition",
			mcp.Required(),
			mcp.Description("Item condition"),
			mcp.Enum("new", "used", "refurbished"),
		),
		mcp.WithString("brand", mcp.Description("Explicit brand, overrides text extraction")),
		mcp.WithNumber("ram_gb", mcp.Description("Explicit RAM in GB, overrides text extraction")),
		mcp.WithNumber("storage_gb", mcp.Description("Explicit storage in GB, overrides text extraction")),
		mcp.WithNumber("camera_mp", mcp.Description("Explicit camera megapixels (mobile)")),
		mcp.WithNumber("battery_mah", mcp.Description("Explicit battery capacity in mAh (mobile)")),
		mcp.WithNumber("screen_size_in", mcp.Description("Explicit screen size in inches")),
		mcp.WithString("processor", mcp.Description("Explicit processor family (laptop)")),
		mcp.WithNumber("generation", mcp.Description("Explicit processor generation (laptop)")),
		mcp.WithString("gpu", mcp.Description("Explicit GPU family (laptop)")),
		mcp.WithString("material", mcp.Description("Material (required for furniture unless named in the text)")),
		mcp.WithString("furniture_type", mcp.Description("Explicit furniture type")),
		mcp.WithNumber("seating_capacity", mcp.Description("Explicit seating capacity (furniture)")),
		mcp.WithNumber("age_months", mcp.Description("Item age in months")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		preq, err := requestFromArgs(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		start := time.Now()
		res, err := cfg.Engine.Predict(ctx, preq)
		if err != nil {
			var verr *predict.ValidationError
			if errors.As(err, &verr) {
				data, _ := json.MarshalIndent(verr.Reason, "", "  ")
				return mcp.NewToolResultError("validation failed: " + string(data)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("prediction error: %v", err)), nil
		}

		if cfg.History != nil {
			rec := &history.Record{
				Category:     string(res.Category),
				TitleHash:    history.HashTitle(preq.Title),
				Completeness: res.Completeness,
				Confidence:   string(res.Confidence),
				Price:        res.PredictedPrice,
				PriceMin:     res.PriceRange.Min,
				PriceMax:     res.PriceRange.Max,
				ModelVersion: res.ModelVersion,
				DurationMS:   time.Since(start).Milliseconds(),
			}
			if _, err := cfg.History.Add(ctx, rec); err != nil {
				cfg.Logger.Warn().Err(err).Msg("recording prediction to history failed")
			}
		}

		data, _ := json.MarshalIndent(res, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerModelsTool(s *server.MCPServer, registry *model.Registry) {
	tool := mcp.NewTool("price_models",
		mcp.WithDescription("List the loaded category models and their artifact versions."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, _ := json.MarshalIndent(registry.Versions(), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerHistoryTool(s *server.MCPServer, st history.Store) {
	tool := mcp.NewTool("price_history_recent",
		mcp.WithDescription("List recently served price predictions from the audit log."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of records (default: 20, max: 100)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := 20
		if v, err := req.RequireFloat("limit"); err == nil {
			limit = int(v)
			if limit > 100 {
				limit = 100
			}
		}
		records, err := st.Recent(ctx, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("history error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(records, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// requestFromArgs maps MCP tool arguments onto a prediction request.
func requestFromArgs(req mcp.CallToolRequest) (predict.Request, error) {
	var out predict.Request

	category, err := req.RequireString("category")
	if err != nil {
		return out, fmt.Errorf("category is required")
	}
	title, err := req.RequireString("title")
	if err != nil {
		return out, fmt.Errorf("title is required")
	}
	description, err := req.RequireString("description")
	if err != nil {
		return out, fmt.Errorf("description is required")
	}
	condition, err := req.RequireString("condition")
	if err != nil {
		return out, fmt.Errorf("condition is required")
	}

	out = predict.Request{
		Category:    category,
		Title:       title,
		Description: description,
		Condition:   condition,
	}

	str := func(name string, dst *string) {
		if v, err := req.RequireString(name); err == nil && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst **float64) {
		if v, err := req.RequireFloat(name); err == nil {
			f := v
			*dst = &f
		}
	}

	str("brand", &out.Hints.Brand)
	str("processor", &out.Hints.Processor)
	str("gpu", &out.Hints.GPU)
	str("material", &out.Hints.Material)
	str("furniture_type", &out.Hints.FurnitureType)
	num("ram_gb", &out.Hints.RAMGB)
	num("storage_gb", &out.Hints.StorageGB)
	num("camera_mp", &out.Hints.CameraMP)
	num("battery_mah", &out.Hints.BatteryMAH)
	num("screen_size_in", &out.Hints.ScreenSizeIn)
	num("generation", &out.Hints.Generation)
	num("seating_capacity", &out.Hints.SeatingCapacity)
	num("age_months", &out.Hints.AgeMonths)

	return out, nil
}
