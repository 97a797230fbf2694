package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "ospfd",
	Short: "ospfd - OSPFv2/OSPFv3 link-state routing daemon core",
	Long: `ospfd runs the OSPF link-state routing protocol core: interface and
neighbor adjacency forming, link-state database flooding and aging, SPF
computation, and route publication for both OSPFv2 (IPv4, RFC 2328) and
OSPFv3 (IPv6, RFC 5340).

Use "ospfd [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to rootCmd and parses command-line flags.
// It is called once by main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "configuration file (yaml, toml, or json)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ospfd version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("ospfd %s (%s)\n", Version, Commit)
		return nil
	},
}

func exitf(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}
