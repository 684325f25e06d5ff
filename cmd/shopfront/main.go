// ABOUTME: Shopper CLI for the vegshop storefront backend
// ABOUTME: Browses the catalog, manages the cart, and keeps auth state in sync

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/vegshop/shopfront/internal/api"
	"github.com/vegshop/shopfront/internal/cart"
	"github.com/vegshop/shopfront/internal/config"
	"github.com/vegshop/shopfront/internal/identity"
	"github.com/vegshop/shopfront/internal/kv"
	"github.com/vegshop/shopfront/internal/render"
	"github.com/vegshop/shopfront/internal/session"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
     _                 __                 _
 ___| |__   ___  _ __ / _|_ __ ___  _ __ | |_
/ __| '_ \ / _ \| '_ \|  _| '__/ _ \| '_ \| __|
\__ \ | | | (_) | |_) | | | | | (_) | | | | |_
|___/_| |_|\___/| .__/|_| |_|  \___/|_| |_|\__|
                |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := newApp()
	if err == nil {
		defer app.Close()

		switch cmd {
		case "products":
			err = app.cmdProducts(ctx, args)
		case "show":
			err = app.cmdShow(ctx, args)
		case "cart":
			err = app.cmdCart(ctx, args)
		case "login":
			err = app.cmdLogin(ctx, args)
		case "register":
			err = app.cmdRegister(ctx, args)
		case "logout":
			err = app.cmdLogout()
		case "whoami":
			err = app.cmdWhoami(ctx)
		case "watch":
			err = app.cmdWatch(ctx)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
			printUsage()
			os.Exit(1)
		}
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n", version)
	fmt.Println()
	fmt.Println("Usage: shopfront <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  products [query]        Browse the catalog, optionally filtered")
	fmt.Println("  show <id>               Show one product")
	fmt.Println("  cart                    Show the cart")
	fmt.Println("  cart add <id>           Add one unit of a product")
	fmt.Println("  cart inc <id>           Increase a line item's quantity")
	fmt.Println("  cart dec <id>           Decrease a line item's quantity")
	fmt.Println("  cart rm <id>            Remove a line item")
	fmt.Println("  login <username>        Sign in (prompts for password)")
	fmt.Println("  register <username> <email>  Create an account and sign in")
	fmt.Println("  logout                  Sign out")
	fmt.Println("  whoami                  Show the current identity")
	fmt.Println("  watch                   Follow sign-in state across processes")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  SHOPFRONT_SERVER        Backend base URL (default: http://localhost:8080)")
	fmt.Println("  SHOPFRONT_STATE_DIR     Local state directory")
	fmt.Println("  SHOPFRONT_CONFIG        Config file path")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  shopfront products kale")
	fmt.Println("  shopfront cart add 7")
	fmt.Println("  shopfront login alice")
	fmt.Println()
}

// getConfigPath returns the path to the client config file.
// Priority: SHOPFRONT_CONFIG env var > <user config dir>/shopfront/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SHOPFRONT_CONFIG"); envPath != "" {
		return envPath
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "shopfront", "config.yaml")
}

func loadConfig() (*config.Config, error) {
	path := getConfigPath()
	if _, err := os.Stat(path); err != nil {
		// No config file is the normal case for the CLI
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}

	// Logs go to stderr; stdout belongs to the rendered output
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// app wires the kv store, identity, cart, API client, and synchronizer.
type app struct {
	cfg    *config.Config
	store  *kv.SQLiteStore
	ids    *identity.Store
	carts  *cart.Store
	client *api.Client
	sync   *session.Synchronizer
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(setupLogger(cfg.Logging))

	if err := os.MkdirAll(cfg.State.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	store, err := kv.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	ids := identity.NewStore(store)
	carts := cart.NewStore(store, ids)
	view := render.NewAuthView(os.Stdout)
	sync := session.New(ids, carts, view)
	client := api.NewClient(cfg.Server.BaseURL, ids,
		api.WithTimeout(cfg.Server.Timeout),
		api.OnUnauthorized(sync.HandleUnauthorized),
	)

	return &app{
		cfg:    cfg,
		store:  store,
		ids:    ids,
		carts:  carts,
		client: client,
		sync:   sync,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

func (a *app) cmdProducts(ctx context.Context, args []string) error {
	query := strings.Join(args, " ")
	products, err := a.client.ListProducts(ctx, query)
	if err != nil {
		return err
	}
	render.Products(os.Stdout, products)
	return nil
}

func (a *app) cmdShow(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: show <product-id>")
	}
	product, err := a.client.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}
	render.ProductDetail(os.Stdout, product)
	return nil
}

func (a *app) cmdCart(ctx context.Context, args []string) error {
	subcmd := "show"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "show":
		render.CartDrawer(os.Stdout, a.carts.Get())
		return nil
	case "add":
		if len(args) < 1 {
			return fmt.Errorf("usage: cart add <product-id>")
		}
		// Name and price are captured at add time
		product, err := a.client.GetProduct(ctx, args[0])
		if err != nil {
			return err
		}
		if err := a.carts.AddItem(string(product.ID), product.Name, product.Price); err != nil {
			return err
		}
	case "inc", "dec":
		if len(args) < 1 {
			return fmt.Errorf("usage: cart %s <product-id>", subcmd)
		}
		delta := 1
		if subcmd == "dec" {
			delta = -1
		}
		if err := a.carts.ChangeQuantity(args[0], delta); err != nil {
			return err
		}
	case "rm", "remove":
		if len(args) < 1 {
			return fmt.Errorf("usage: cart rm <product-id>")
		}
		if err := a.carts.RemoveItem(args[0]); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown cart subcommand: %s (use show, add, inc, dec, rm)", subcmd)
	}

	render.CartDrawer(os.Stdout, a.carts.Get())
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: login <username>")
	}
	username := args[0]

	password, err := promptPassword()
	if err != nil {
		return err
	}

	resp, err := a.client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := a.sync.HandleLogin(resp.ResolveToken(), resp.ResolveUsername()); err != nil {
		if errors.Is(err, session.ErrNoToken) {
			return fmt.Errorf("login succeeded but the server returned no token")
		}
		return err
	}

	render.CartDrawer(os.Stdout, a.carts.Get())
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: register <username> <email>")
	}
	username, email := args[0], args[1]

	password, err := promptPassword()
	if err != nil {
		return err
	}

	resp, err := a.client.Register(ctx, username, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	green := color.New(color.FgGreen)
	if err := a.sync.HandleLogin(resp.ResolveToken(), resp.ResolveUsername()); err != nil {
		if errors.Is(err, session.ErrNoToken) {
			// Registered, but the server wants an explicit login
			green.Printf("✓ Registered %s\n", username)
			fmt.Printf("  Sign in with: shopfront login %s\n", username)
			return nil
		}
		return err
	}

	green.Printf("✓ Registered %s\n", username)
	return nil
}

func (a *app) cmdLogout() error {
	return a.sync.Logout()
}

func (a *app) cmdWhoami(ctx context.Context) error {
	a.sync.Refresh()

	id := a.ids.Resolve()
	if !id.Authenticated {
		return nil
	}

	// The persisted token is the local view; /me is the server's
	me, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("  Server identity: %s\n", me.Username)
	if roles := me.RoleNames(); len(roles) > 0 {
		fmt.Printf("  Roles:           %s\n", strings.Join(roles, ", "))
	}
	return nil
}

func (a *app) cmdWatch(ctx context.Context) error {
	a.sync.Refresh()

	bus := session.NewBus()
	a.sync.WatchChanges(bus)
	bus.Subscribe(func(e session.Event) {
		if e.Key == cart.GuestKey || strings.HasPrefix(e.Key, cart.UserKeyPrefix) {
			render.CartDrawer(os.Stdout, a.carts.Get())
		}
	})

	watcher, err := session.NewWatcher(a.store, bus)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	gray := color.New(color.FgHiBlack)
	gray.Println("watching for changes, Ctrl+C to stop")

	<-ctx.Done()
	return nil
}

// promptPassword reads the password from SHOPFRONT_PASSWORD or prompts on
// stdin.
func promptPassword() (string, error) {
	if pw := os.Getenv("SHOPFRONT_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Print("Password: ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no password given")
	}
	return strings.TrimSpace(scanner.Text()), nil
}
