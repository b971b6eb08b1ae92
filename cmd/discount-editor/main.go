package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/lensretail-backend/internal/discounts/apiclient"
	"github.com/angelmondragon/lensretail-backend/internal/discounts/editor"
	"github.com/angelmondragon/lensretail-backend/pkg/config"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
)

var _ editor.Store = (*apiclient.Client)(nil)

func main() {
	_ = godotenv.Load()

	var editorCfg config.EditorConfig
	if err := config.LoadInto(&editorCfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load editor config: %v\n", err)
		os.Exit(1)
	}

	baseURL := flag.String("api", editorCfg.BaseURL, "lens retail API base url")
	token := flag.String("token", editorCfg.Token, "bearer access token")
	customer := flag.Int64("customer", 0, "customer id to load on start")
	logLevel := flag.String("log-level", "warn", "editor log level")
	flag.Parse()

	logg := logger.New(logger.Options{
		ServiceName: "discount-editor",
		Level:       logger.ParseLevel(*logLevel),
		Output:      os.Stderr,
	})

	client, err := apiclient.NewClient(*baseURL,
		apiclient.WithToken(*token),
		apiclient.WithTimeout(editorCfg.Timeout),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create api client: %v\n", err)
		os.Exit(1)
	}

	ed, err := editor.New(client, logg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create editor: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sh := newShell(ed, os.Stdout)
	if *customer > 0 {
		sh.exec(ctx, []string{"load", fmt.Sprint(*customer)})
	}
	if err := sh.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "editor stopped: %v\n", err)
		os.Exit(1)
	}
}
