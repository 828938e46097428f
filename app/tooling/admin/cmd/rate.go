package cmd

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

// rateCmd represents the rate command.
var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Show the epoch rate currently in effect",
	Run: func(cmd *cobra.Command, args []string) {
		get("/v1/rate")
	},
}

// feesCmd represents the fees command.
var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "Show the priority fees of recently produced blocks",
	Run: func(cmd *cobra.Command, args []string) {
		get("/v1/fees/recent")
	},
}

// bidCmd represents the bid command.
var bidCmd = &cobra.Command{
	Use:   "bid",
	Short: "Show a priority-fee bid likely to land",
	Run: func(cmd *cobra.Command, args []string) {
		get("/v1/fees/suggested")
	},
}

func get(path string) {
	resp, err := http.Get(fmt.Sprintf("%s%s", url, path))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(body))
}

func init() {
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(feesCmd)
	rootCmd.AddCommand(bidCmd)
}
