package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"lapordesa/pkg/config"
	"lapordesa/pkg/database"
	"lapordesa/services/auth-service/models"
	"lapordesa/services/report-service/lifecycle"
	"lapordesa/services/report-service/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env holds what commands need so tests can swap the backends.
type env struct {
	out      io.Writer
	service  func(ctx context.Context) (*lifecycle.Service, func(), error)
	accounts func() (accountStore, error)
}

func main() {
	if err := newRootCmd(defaultEnv()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "lapordesa-admin",
		Short:         "LaporDesa maintenance CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(e.out)
	root.PersistentFlags().Bool("json", false, "output JSON")

	root.AddCommand(seedAdminCmd(e), staffCmd(e), reconcileCmd(e), statsCmd(e))
	return root
}

func defaultEnv() *env {
	return &env{
		out: os.Stdout,
		service: func(ctx context.Context) (*lifecycle.Service, func(), error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, nil, err
			}
			mongo := database.NewMongo(cfg.MongoURI, cfg.MongoDB)
			db, err := mongo.Database(ctx)
			if err != nil {
				return nil, nil, err
			}
			client, err := mongo.Client(ctx)
			if err != nil {
				return nil, nil, err
			}
			svc := lifecycle.New(lifecycle.Deps{
				Reports:       store.NewReportStore(db),
				Tasks:         store.NewTaskStore(db),
				Staff:         store.NewStaffStore(db),
				Notifications: store.NewNotificationStore(db),
				Tx:            database.NewTransactor(client, cfg.MongoTransactions),
				Logger:        zap.NewNop(),
			})
			closeFn := func() { _ = mongo.Close(context.Background()) }
			return svc, closeFn, nil
		},
		accounts: func() (accountStore, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			db, err := database.ConnectPostgres(cfg.PostgresDSN)
			if err != nil {
				return nil, err
			}
			if err := db.AutoMigrate(&models.User{}); err != nil {
				return nil, fmt.Errorf("migration failed: %w", err)
			}
			return &gormAccounts{db: db}, nil
		},
	}
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
