package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bitnetd",
	Short: "BitNet completion gateway",
	Long:  "bitnetd is an HTTP completion gateway wrapping the BitNet llama-cli executable, with an OpenAI-style chat API and multi-turn conversations.",
}

func Execute() error {
	return rootCmd.Execute()
}
