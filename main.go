package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smartpark",
	Short: "SmartPark IoT - simulated parking lot monitoring",
	Long: `SmartPark IoT serves a simulated parking lot: slot occupancy, environmental
sensors, live updates, reservations and receipts.`,
	SilenceUsage: true,
}

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
