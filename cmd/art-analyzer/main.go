package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/artlab/art-analyzer/internal/config"
	"github.com/artlab/art-analyzer/internal/logging"
	"github.com/artlab/art-analyzer/internal/utils"
	"github.com/artlab/art-analyzer/pkg/deepanalysis"
	"github.com/artlab/art-analyzer/pkg/llm"
	"github.com/artlab/art-analyzer/pkg/ollama"
	"github.com/artlab/art-analyzer/pkg/openrouter"
	"github.com/artlab/art-analyzer/pkg/scene"
	"github.com/artlab/art-analyzer/pkg/types"
)

func main() {
	var in, predictionsPath, module, configPath, out string

	flag.StringVar(&in, "in", "", "input image path, or a directory of images (jpg/png/webp)")
	flag.StringVar(&predictionsPath, "predictions", "", "optional JSON file with classifier predictions")
	flag.StringVar(&module, "module", "", "run a single module: color|composition|scene|technique|historical (default: full analysis)")
	flag.StringVar(&configPath, "config", "", "config file path (default: "+config.GetConfigPath()+")")
	flag.StringVar(&out, "out", "", "write result JSON to this file instead of stdout")
	flag.Parse()

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()
	log := logging.Init()

	if in == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -in painting.jpg [-predictions preds.json] [-module color] [-out result.json]\n",
			filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	cfg := loadConfig(configPath, log)
	preds := loadPredictions(predictionsPath, log)

	provider, vision := buildProviders(cfg, log)
	service := deepanalysis.NewServiceWithConfig(provider, vision,
		analysisConfig(cfg), sceneConfig(cfg), log)

	paths := inputPaths(in, log)
	results := make([]any, 0, len(paths))
	for _, path := range paths {
		result, err := runOne(context.Background(), service, module, path, preds)
		if err != nil {
			log.Fatal().Err(err).Str("image", path).Msg("analysis failed")
		}
		results = append(results, result)
	}

	var payload any = results
	if len(results) == 1 {
		payload = results[0]
	}
	if err := writeResult(out, payload); err != nil {
		log.Fatal().Err(err).Msg("writing result")
	}
}

func runOne(ctx context.Context, service *deepanalysis.Service, module, path string, preds *types.PredictionSet) (any, error) {
	if module == "" {
		return service.RunFullDeepAnalysis(ctx, path, preds)
	}
	return service.RunSingleModuleAnalysis(ctx, module, path, preds)
}

func loadConfig(path string, log zerolog.Logger) *config.Config {
	var cfg *config.Config
	switch {
	case path != "":
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("loading config")
		}
		cfg = loaded
	case utils.FileExists(config.GetConfigPath()):
		loaded, err := config.LoadFromFile(config.GetConfigPath())
		if err != nil {
			log.Fatal().Err(err).Msg("loading default config")
		}
		cfg = loaded
	default:
		cfg = config.Default()
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	return cfg
}

func loadPredictions(path string, log zerolog.Logger) *types.PredictionSet {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("reading predictions")
	}
	var preds types.PredictionSet
	if err := json.Unmarshal(data, &preds); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("parsing predictions")
	}
	return &preds
}

// buildProviders constructs the text and vision providers once; both are
// reused across every analysis in this run. An unknown provider downgrades
// to stub-only with a warning rather than failing.
func buildProviders(cfg *config.Config, log zerolog.Logger) (llm.Provider, llm.VisionProvider) {
	var provider llm.Provider
	var vision llm.VisionProvider

	switch cfg.LLM.Provider {
	case "none":
		log.Info().Msg("no LLM provider configured, analyses will use stubs")

	case "ollama":
		baseURL := cfg.LLM.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		client, err := ollama.NewClient(baseURL, cfg.LLM.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("creating ollama client")
		}
		provider = client
		if cfg.Vision.Enabled {
			visionClient, err := ollama.NewClient(baseURL, cfg.Vision.Model)
			if err != nil {
				log.Fatal().Err(err).Msg("creating ollama vision client")
			}
			vision = visionClient
		}

	case "openrouter", "openai", "llamacpp":
		client, err := openrouter.NewClient(openrouter.Options{
			Name:    cfg.LLM.Provider,
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("creating chat-completions client")
		}
		provider = client
		if cfg.Vision.Enabled {
			visionClient, err := openrouter.NewClient(openrouter.Options{
				Name:    cfg.LLM.Provider,
				BaseURL: cfg.LLM.BaseURL,
				APIKey:  cfg.LLM.APIKey,
				Model:   cfg.Vision.Model,
				Timeout: time.Duration(cfg.Vision.TimeoutSeconds) * time.Second,
			})
			if err != nil {
				log.Fatal().Err(err).Msg("creating vision client")
			}
			vision = visionClient
		}

	default:
		log.Warn().Str("provider", cfg.LLM.Provider).Msg("unknown provider, falling back to stubs")
	}
	return provider, vision
}

func analysisConfig(cfg *config.Config) deepanalysis.Config {
	c := deepanalysis.DefaultConfig()
	c.StandardTimeout = time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	c.SynthesisTimeout = time.Duration(cfg.Analysis.SynthesisTimeoutSeconds) * time.Second
	return c
}

func sceneConfig(cfg *config.Config) scene.Config {
	c := scene.DefaultConfig()
	c.Timeout = time.Duration(cfg.Vision.TimeoutSeconds) * time.Second
	c.SendFormat = cfg.Vision.SendFormat
	c.SendMaxDim = cfg.Vision.SendMaxDim
	c.SendQuality = cfg.Vision.SendQuality
	return c
}

func inputPaths(in string, log zerolog.Logger) []string {
	info, err := os.Stat(in)
	if err != nil {
		log.Fatal().Err(err).Str("path", in).Msg("reading input")
	}
	if !info.IsDir() {
		return []string{in}
	}
	paths, err := utils.ListImageFiles(in)
	if err != nil {
		log.Fatal().Err(err).Str("path", in).Msg("scanning input directory")
	}
	if len(paths) == 0 {
		log.Fatal().Str("path", in).Msg("no image files in input directory")
	}
	return paths
}

func writeResult(out string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if out == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(out)); err != nil {
		return err
	}
	return os.WriteFile(out, append(data, '\n'), 0o644)
}
