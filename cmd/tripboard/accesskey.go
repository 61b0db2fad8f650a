package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alecgard/tripboard/internal/auth"
)

var accessKeyCmd = &cobra.Command{
	Use:   "access-key",
	Short: "Generate an access key for the companion server",
	Long: `Generate an access key for the companion server.

The plaintext is printed once. Add the hash to server.access_key_hashes
(or TRIPBOARD_ACCESS_KEY_HASHES) and send the key as "Authorization: Bearer <key>".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, plaintext, err := auth.GenerateAccessKey()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]string{"key": plaintext, "hash": key.Hash, "prefix": key.Prefix})
		}
		fmt.Printf("key:  %s\nhash: %s\n", plaintext, key.Hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accessKeyCmd)
}
