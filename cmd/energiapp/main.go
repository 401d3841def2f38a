package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmartell/energiapp/internal/engine"
	"github.com/jmartell/energiapp/internal/mlservice"
	"github.com/jmartell/energiapp/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	dbPath  string
	userID  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "energiapp",
		Short: "EnergiApp - Monitor and estimate household energy consumption",
		Long: `EnergiApp estimates your household energy consumption and cost from
your registered devices and suggests ways to save.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.energiapp/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default is $HOME/.energiapp/energiapp.db)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "user ID (defaults to the first user)")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(deviceCmd())
	rootCmd.AddCommand(estimateCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(predictCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".energiapp")
		os.MkdirAll(configDir, 0755)

		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.ReadInConfig()

	if dbPath == "" {
		home, _ := os.UserHomeDir()
		dbPath = filepath.Join(home, ".energiapp", "energiapp.db")
	}
}

func openStore() (*store.Store, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return st, nil
}

// resolveUser returns the requested user, or the only/first user when no
// --user flag was given.
func resolveUser(st *store.Store) (*store.User, error) {
	if userID != "" {
		return st.GetUser(userID)
	}

	users, err := st.ListUsers()
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no users configured (run 'energiapp init' first)")
	}
	return users[0], nil
}

func initCmd() *cobra.Command {
	var name, email string
	var rate float64

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize EnergiApp with a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			user := &store.User{
				Name:       name,
				Email:      email,
				TariffRate: rate,
			}
			if err := st.SaveUser(user); err != nil {
				return err
			}

			fmt.Println("✓ Created user")
			fmt.Printf("  ID: %s\n", user.ID)
			fmt.Printf("  Tariff rate: %.2f EUR/kWh\n", user.Rate())
			fmt.Println("\nNext steps:")
			fmt.Println("  1. Add devices: energiapp device add")
			fmt.Println("  2. Estimate consumption: energiapp estimate")

			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "My Home", "User name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email (required)")
	cmd.Flags().Float64VarP(&rate, "rate", "r", 0, "Tariff rate in EUR/kWh (0 = default)")
	cmd.MarkFlagRequired("email")

	return cmd
}

func deviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Manage devices",
	}

	cmd.AddCommand(deviceAddCmd())
	cmd.AddCommand(deviceListCmd())
	cmd.AddCommand(deviceToggleCmd())

	return cmd
}

func deviceAddCmd() *cobra.Command {
	var name, devType, efficiency string
	var watts float64
	var controllable bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new device",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := resolveUser(st)
			if err != nil {
				return err
			}

			device := &engine.Device{
				UserID:          user.ID,
				Name:            name,
				Type:            engine.DeviceType(devType),
				RatedPowerWatts: watts,
				Controllable:    controllable,
				Efficiency:      efficiency,
			}
			if device.RatedPowerWatts <= 0 {
				return fmt.Errorf("rated power must be positive")
			}
			if err := st.SaveDevice(device); err != nil {
				return err
			}

			fmt.Printf("✓ Added device: %s\n", name)
			fmt.Printf("  ID: %s\n", device.ID)
			fmt.Printf("  Assumed usage: %.1f h/day\n", engine.UsageHoursForType(device.Type))

			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Device name (required)")
	cmd.Flags().StringVarP(&devType, "type", "t", "other", "Device type (refrigerator, television, ...)")
	cmd.Flags().Float64VarP(&watts, "watts", "w", 0, "Rated power in watts (required)")
	cmd.Flags().BoolVar(&controllable, "controllable", false, "Device supports remote control")
	cmd.Flags().StringVar(&efficiency, "efficiency", "", "Efficiency label (A+++ .. G)")

	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("watts")

	return cmd
}

func deviceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := resolveUser(st)
			if err != nil {
				return err
			}

			devices, err := st.ListDevices(user.ID)
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Println("No devices configured")
				return nil
			}

			fmt.Printf("%-25s %-36s %-18s %8s %9s\n", "NAME", "ID", "TYPE", "WATTS", "STATUS")
			fmt.Println("--------------------------------------------------------------------------------------------------")
			for _, d := range devices {
				fmt.Printf("%-25s %-36s %-18s %8.0f %9s\n",
					d.Name, d.ID, d.Type, d.RatedPowerWatts, d.Status)
			}

			return nil
		},
	}
}

func deviceToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <device-id>",
		Short: "Toggle a device between active and inactive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			device, err := st.GetDevice(args[0])
			if err != nil {
				return fmt.Errorf("device not found: %s", args[0])
			}

			next := engine.StatusInactive
			if device.Status == engine.StatusInactive {
				next = engine.StatusActive
			}
			if err := st.SetDeviceStatus(device.ID, next); err != nil {
				return err
			}

			fmt.Printf("✓ %s is now %s\n", device.Name, next)
			return nil
		},
	}
}

func estimateCmd() *cobra.Command {
	var hours float64

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate consumption and cost over a horizon",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := resolveUser(st)
			if err != nil {
				return err
			}
			devices, err := st.ListDevices(user.ID)
			if err != nil {
				return err
			}

			est, err := engine.Estimate(devices, hours, user.Rate())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(est)
		},
	}

	cmd.Flags().Float64VarP(&hours, "hours", "H", 24, "Horizon in hours")
	return cmd
}

func recommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Generate saving recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := resolveUser(st)
			if err != nil {
				return err
			}
			devices, err := st.ListDevices(user.ID)
			if err != nil {
				return err
			}

			est, err := engine.Estimate(devices, 24, user.Rate())
			if err != nil {
				return err
			}

			recs := engine.Recommend(devices, est)
			if len(recs) == 0 {
				fmt.Println("No recommendations - your setup looks good")
				return nil
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		},
	}
}

func predictCmd() *cobra.Command {
	var hoursAhead int
	var mlURL string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Fetch a consumption forecast (ML service with heuristic fallback)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := resolveUser(st)
			if err != nil {
				return err
			}
			devices, err := st.ListDevices(user.ID)
			if err != nil {
				return err
			}

			totalPower := 0.0
			for _, d := range devices {
				if d.Active() {
					totalPower += d.RatedPowerWatts
				}
			}

			client := mlservice.NewClient(mlURL)
			forecast, err := client.PredictWithFallback(cmd.Context(), mlservice.PredictRequest{
				HoursAhead:       hoursAhead,
				Occupancy:        user.Occupancy,
				HouseSize:        user.HouseSizeM2,
				TotalDevicePower: totalPower,
			}, devices, user.Rate(), time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Model: %s\n", forecast.ModelType)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(forecast.Predictions)
		},
	}

	cmd.Flags().IntVar(&hoursAhead, "hours", 24, "Hours ahead to forecast")
	cmd.Flags().StringVar(&mlURL, "ml-url", "", "Base URL of the ML prediction service (optional)")

	return cmd
}
