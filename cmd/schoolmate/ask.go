package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the agent a single question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		subject, _ := cmd.Flags().GetString("student")
		asJSON, _ := cmd.Flags().GetBool("json")

		d, err := newDeps(cmd.Context(), cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer d.Close()

		resp, err := d.app.RunAgentQuery(cmd.Context(), args[0], subject)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
		return nil
	},
}

func init() {
	askCmd.Flags().StringP("student", "s", "", "Student ID the question is about")
	askCmd.Flags().Bool("json", false, "Print the response as JSON")
	rootCmd.AddCommand(askCmd)
}
