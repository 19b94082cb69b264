package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arnavshah/staffing-engine-go/pkg/auth"
	"github.com/arnavshah/staffing-engine-go/pkg/config"
	"github.com/arnavshah/staffing-engine-go/pkg/database"
	"github.com/arnavshah/staffing-engine-go/pkg/staffing"
)

var cfg *config.Config

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "staffctl",
		Short:         "Staffing engine operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()
			c, err := config.Load()
			if err != nil {
				return eris.Wrap(err, "staffctl: load config")
			}
			cfg = c

			if err := config.InitLogger(cfg.Log); err != nil {
				return eris.Wrap(err, "staffctl: init logger")
			}
			auth.Configure(cfg.Auth)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}
	root.AddCommand(newKeygenCmd(), newAutoFillCmd(), newBudgetCmd())
	return root
}

// openService connects to the configured database.
func openService() (*gorm.DB, *staffing.Service, error) {
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	svc := staffing.NewService(database.NewStore(db), cfg.Features.PlanningStatus, cfg.Budget)
	return db, svc, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
