package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"taskdeck/internal/api"
	"taskdeck/internal/config"
	"taskdeck/internal/session"
	"taskdeck/internal/snapshot"
	"taskdeck/internal/state"
	"taskdeck/internal/tui"
	"taskdeck/internal/web"
)

var (
	configPathFlag   string
	apiURLFlag       string
	snapshotPathFlag string
	webFlag          bool
	portFlag         int
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "taskdeck",
		Short: "Terminal dashboard for the team task tracker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api", "", "backend API base URL")
	rootCmd.PersistentFlags().StringVar(&snapshotPathFlag, "snapshot", "", "snapshot db path")
	rootCmd.Flags().BoolVar(&webFlag, "web", false, "serve the read-only board alongside the TUI")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 0, "board server port")

	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Serve the read-only board from the last-synced snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard()
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored session and wipe the local snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout()
		},
	}

	rootCmd.AddCommand(boardCmd, logoutCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfgPath := configPathFlag
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultConfigPath()
		if err != nil {
			return config.Config{}, err
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, err
	}

	if env := os.Getenv("TASKDECK_API_URL"); env != "" {
		cfg.APIURL = env
	}
	if apiURLFlag != "" {
		cfg.APIURL = apiURLFlag
	}
	if snapshotPathFlag != "" {
		cfg.SnapshotPath = snapshotPathFlag
	}
	if cfg.SnapshotPath == "" {
		cfg.SnapshotPath = filepath.Join(filepath.Dir(cfgPath), "taskdeck.db")
	}
	if webFlag {
		cfg.WebEnabled = true
	}
	if portFlag != 0 {
		cfg.WebPort = portFlag
	}
	if cfg.WebPort == 0 {
		cfg.WebPort = 8090
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openSnapshot(path string) (*snapshot.Store, error) {
	if err := config.EnsureDir(path); err != nil {
		return nil, err
	}
	sqlDB, err := snapshot.Open(path)
	if err != nil {
		return nil, err
	}
	return snapshot.NewStore(sqlDB), nil
}

func runTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snap, err := openSnapshot(cfg.SnapshotPath)
	if err != nil {
		return err
	}

	tokenPath, err := config.DefaultTokenPath()
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.APIURL)
	sess := session.New(client, tokenPath)
	st := state.New()
	loader := state.NewLoader(client, st, snap)

	// A dead or expired token just means starting at the login screen.
	if err := sess.Restore(context.Background()); err == nil {
		st.SetUser(sess.User())
		if err := loader.PreloadSnapshot(context.Background()); err != nil {
			log.Printf("snapshot preload: %v", err)
		}
	}

	if cfg.WebEnabled {
		addr := fmt.Sprintf(":%d", cfg.WebPort)
		handler := web.NewServer(snap).Handler()
		go func() {
			if err := http.ListenAndServe(addr, handler); err != nil {
				log.Printf("board server error: %v", err)
			}
		}()
	}

	return tui.Run(sess, st, loader)
}

func runBoard() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snap, err := openSnapshot(cfg.SnapshotPath)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.WebPort)
	log.Printf("Board running at http://localhost%s", addr)
	return http.ListenAndServe(addr, web.NewServer(snap).Handler())
}

func runLogout() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tokenPath, err := config.DefaultTokenPath()
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.APIURL)
	if err := session.New(client, tokenPath).Logout(); err != nil {
		return err
	}

	snap, err := openSnapshot(cfg.SnapshotPath)
	if err != nil {
		return err
	}
	if err := snap.Clear(context.Background()); err != nil {
		return err
	}

	fmt.Println("Signed out.")
	return nil
}
