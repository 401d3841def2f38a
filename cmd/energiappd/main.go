package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jmartell/energiapp/internal/mlservice"
	"github.com/jmartell/energiapp/internal/store"
	"github.com/jmartell/energiapp/internal/uiapi"
	"github.com/spf13/cobra"
)

func main() {
	var port int
	var dbPath string
	var mlURL string

	rootCmd := &cobra.Command{
		Use:   "energiappd",
		Short: "EnergiApp HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				home, _ := os.UserHomeDir()
				dbPath = filepath.Join(home, ".energiapp", "energiapp.db")
				os.MkdirAll(filepath.Dir(dbPath), 0755)
			}

			st, err := store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer st.Close()

			srv := uiapi.NewServer(st, mlservice.NewClient(mlURL))

			addr := fmt.Sprintf(":%d", port)
			log.Printf("EnergiApp server starting on port %d", port)
			log.Printf("Database: %s", dbPath)
			if mlURL != "" {
				log.Printf("ML service: %s", mlURL)
			} else {
				log.Println("ML service not configured; predictions use the heuristic estimator")
			}

			return http.ListenAndServe(addr, srv.Handler())
		},
	}

	rootCmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP port")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "Database path")
	rootCmd.Flags().StringVar(&mlURL, "ml-url", "", "Base URL of the ML prediction service (optional)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
