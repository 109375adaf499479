package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	gate "github.com/goliatone/go-account-gate"
	"github.com/goliatone/go-account-gate/provider/supabase"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := gate.NewConfigFromEnv()
	if err != nil {
		return err
	}

	fmt.Println(print.MaybeHighlightJSON(map[string]any{
		"provider_url": cfg.ProviderURL,
		"mailer_url":   cfg.MailerURL,
		"redirect_url": cfg.RedirectURL,
	}))

	dsn := os.Getenv("GATE_DSN")
	if dsn == "" {
		dsn = "file:gate.db?cache=shared"
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx := context.Background()
	if _, err := db.NewCreateTable().
		Model((*gate.Profile)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	profiles := gate.NewProfilesRepository(db)

	client, err := supabase.New(supabase.Config{
		BaseURL:    cfg.ProviderURL,
		AnonKey:    cfg.AnonKey,
		ServiceKey: cfg.ServiceKey,
	})
	if err != nil {
		return err
	}

	store := gate.NewStore(client, profiles)
	defer store.Close()

	if err := store.Start(ctx); err != nil {
		return err
	}

	renderer, err := gate.NewMailRenderer()
	if err != nil {
		return err
	}

	handler := &gate.SendConfirmationHandler{
		Admin:    client,
		Renderer: renderer,
		Mailer:   gate.NewHTTPMailer(cfg.MailerURL, cfg.ServiceKey),
		Config:   cfg,
	}

	controller := gate.NewConfirmationController(handler)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	gate.RegisterConfirmationRoutes(srv.Router(), controller)

	addr := os.Getenv("GATE_ADDR")
	if addr == "" {
		addr = ":8572"
	}

	return srv.Serve(addr)
}
