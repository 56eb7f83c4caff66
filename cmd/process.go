package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wanglei-dev/goodscut/internal/config"
	"github.com/wanglei-dev/goodscut/internal/douyin"
	"github.com/wanglei-dev/goodscut/internal/media"
	"github.com/wanglei-dev/goodscut/internal/pipeline"
)

// Exit codes per failure class, for scripting around the CLI.
const (
	exitOK         = 0
	exitFailure    = 1
	exitResolution = 2
	exitFetch      = 3
)

type processOptions struct {
	configPath string
	cookie     string
	outputDir  string
	cacheDir   string
	upscale    float64
	maxSize    int
	retries    int
	dryRun     bool
}

func newProcessCmd() *cobra.Command {
	opts := processOptions{}

	cmd := &cobra.Command{
		Use:   "process <share-link-or-product-id>",
		Short: "Download and process every image of a product listing",
		Long: `Resolves the given share reference to a product id, fetches the product's
image list, and runs each image through background removal and resolution
enhancement, storing one PNG per image in the output directory.`,
		Example: `  # Process a share link copied from the app
  goodscut process "爆款好物 https://v.douyin.com/abc123/ 马上开抢"

  # Keep original downloads around for later runs
  goodscut process https://haohuo.douyin.com/product/12345 --cache .cache

  # Resolution only
  goodscut process 3573742169462999153 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&opts.cookie, "cookie", "", "Cookie header for authenticated requests (overrides config and DOUYIN_COOKIE)")
	cmd.Flags().StringVar(&opts.outputDir, "output", "output", "Directory to store processed images")
	cmd.Flags().StringVar(&opts.cacheDir, "cache", "", "Optional cache directory for original assets")
	cmd.Flags().Float64Var(&opts.upscale, "upscale", 2.0, "Upscale factor for enhanced images")
	cmd.Flags().IntVar(&opts.maxSize, "max-size", 2048, "Maximum dimension (px) for processed images")
	cmd.Flags().IntVar(&opts.retries, "retries", media.DefaultRetries, "Download retries per asset")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Resolve the product id and URL without downloading anything")

	return cmd
}

func newResolveCmd() *cobra.Command {
	opts := processOptions{dryRun: true}

	cmd := &cobra.Command{
		Use:   "resolve <share-link-or-product-id>",
		Short: "Resolve a share reference to its product id without downloading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&opts.cookie, "cookie", "", "Cookie header for authenticated requests (overrides config and DOUYIN_COOKIE)")

	return cmd
}

func runProcess(cmd *cobra.Command, input string, opts processOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyConfig(cmd, cfg, &opts)
	cookie := cfg.ResolveCookie(opts.cookie)

	resolver := douyin.NewResolver(cookie)
	if cfg.UserAgent != "" {
		resolver.UserAgent = cfg.UserAgent
	}

	resolved, err := resolver.ResolveProduct(input, "")
	if err != nil {
		return err
	}
	slog.Info("Resolved product", "product_id", resolved.ProductID, "final_url", resolved.FinalURL)

	if opts.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "product_id: %s\n", resolved.ProductID)
		if resolved.FinalURL != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "final_url: %s\n", resolved.FinalURL)
		}
		return nil
	}

	client := douyin.NewClient(cookie)
	client.Endpoints = cfg.Endpoints
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}

	assets, err := client.FetchAssets(resolved.ProductID, "")
	if err != nil {
		return err
	}
	slog.Info("Retrieved assets", "product_id", resolved.ProductID, "count", len(assets))

	downloader, err := media.NewDownloader(opts.cacheDir, opts.retries)
	if err != nil {
		return err
	}

	remover := pipeline.NewBackgroundRemover(pipeline.DefaultBackgroundConfig())
	enhancer := pipeline.NewEnhancer(pipeline.EnhanceConfig{
		UpscaleFactor: opts.upscale,
		MaxSize:       opts.maxSize,
	})

	pipe, err := pipeline.New(downloader, remover, enhancer, opts.outputDir)
	if err != nil {
		return err
	}

	processed, err := pipe.Process(assets)
	if err != nil {
		return err
	}
	for _, item := range processed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", item.Path)
	}
	return nil
}

// applyConfig fills options from the config file for flags the user did not
// set explicitly.
func applyConfig(cmd *cobra.Command, cfg *config.Config, opts *processOptions) {
	flags := cmd.Flags()
	if cfg.CacheDir != "" && !flags.Changed("cache") {
		opts.cacheDir = cfg.CacheDir
	}
	if cfg.Retries != nil && !flags.Changed("retries") {
		opts.retries = *cfg.Retries
	}
	if cfg.Upscale != nil && !flags.Changed("upscale") {
		opts.upscale = *cfg.Upscale
	}
	if cfg.MaxSize != nil && !flags.Changed("max-size") {
		opts.maxSize = *cfg.MaxSize
	}
}

// ExitCode maps a command error to the process exit code contract: 2 for
// input/resolution failures, 3 for fetch and processing failures, 1
// otherwise.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var idErr *douyin.ProductIDError
	switch {
	case errors.Is(err, douyin.ErrInvalidInput),
		errors.Is(err, douyin.ErrResolution),
		errors.As(err, &idErr):
		return exitResolution
	case errors.Is(err, douyin.ErrAssetFetch),
		errors.Is(err, douyin.ErrNoImages),
		errors.Is(err, media.ErrDownload),
		errors.Is(err, pipeline.ErrOutputNotConfigured):
		return exitFetch
	default:
		return exitFailure
	}
}
