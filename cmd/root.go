package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goodscut",
		Short: "Turn Douyin product share links into clean, upscaled product images",
		Long: `Goodscut resolves a Douyin product share reference (long link, short link,
free-form share text, or a bare numeric product id) to its product listing,
downloads the product images, removes their backgrounds, and stores enhanced
PNG cutouts locally.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newProcessCmd())
	cmd.AddCommand(newResolveCmd())

	return cmd
}
