// ABOUTME: Admin CLI for vegshop product management
// ABOUTME: Verifies admin access via /me, then lists, saves, and deletes products

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
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

const banner = `
     _                 __                 _                  _           _
 ___| |__   ___  _ __ / _|_ __ ___  _ __ | |_      __ _  __| |_ __ ___ (_)_ __
/ __| '_ \ / _ \| '_ \|  _| '__/ _ \| '_ \| __|   / _' |/ _' | '_ ' _ \| | '_ \
\__ \ | | | (_) | |_) | | | | | (_) | | | | |_   | (_| | (_| | | | | | | | | | |
|___/_| |_|\___/| .__/|_| |_|  \___/|_| |_|\__|   \__,_|\__,_|_| |_| |_|_|_| |_|
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
		case "list":
			err = app.cmdList(ctx, args)
		case "save":
			err = app.cmdSave(ctx, args)
		case "delete", "rm":
			err = app.cmdDelete(ctx, args)
		case "me":
			err = app.cmdMe(ctx)
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
	fmt.Println()
	fmt.Println("Usage: shopfront-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  list                    List all products with descriptions")
	fmt.Println("  save [--id <id>]        Create a product, or update when --id is given")
	fmt.Println("       --name <name> --price <price> [--stock <n>]")
	fmt.Println("       [--category <cat>] [--description <text>] [--image <path>]")
	fmt.Println("  delete <id>             Delete a product")
	fmt.Println("  me                      Show the signed-in identity and roles")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  SHOPFRONT_SERVER        Backend base URL (default: http://localhost:8080)")
	fmt.Println("  SHOPFRONT_STATE_DIR     Local state directory (shared with shopfront)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  shopfront login admin          # sign in with the shopper CLI first")
	fmt.Println("  shopfront-admin list")
	fmt.Println("  shopfront-admin save --name 'Kale' --price 2.10 --stock 40 --image kale.jpg")
	fmt.Println("  shopfront-admin save --id 7 --name 'Curly Kale' --price 2.30")
	fmt.Println()
}

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
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// app shares the shopper CLI's state store, so the token stored by
// `shopfront login` is the one used here.
type app struct {
	store  *kv.SQLiteStore
	ids    *identity.Store
	client *api.Client
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
	sync := session.New(ids, carts, render.NewAuthView(os.Stdout))
	client := api.NewClient(cfg.Server.BaseURL, ids,
		api.WithTimeout(cfg.Server.Timeout),
		api.OnUnauthorized(sync.HandleUnauthorized),
	)

	return &app{store: store, ids: ids, client: client}, nil
}

func (a *app) Close() {
	a.store.Close()
}

// verifyAdmin confirms the stored token belongs to an admin before any
// admin call is attempted.
func (a *app) verifyAdmin(ctx context.Context) (*api.MeResponse, error) {
	if !identity.TokenUsable(a.ids.GetToken()) {
		return nil, fmt.Errorf("not signed in (run: shopfront login <username>)")
	}
	me, err := a.client.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("verifying identity: %w", err)
	}
	if !session.IsAdmin(me.RoleNames()) {
		return nil, fmt.Errorf("%s is not an admin", me.Username)
	}
	return me, nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	if _, err := a.verifyAdmin(ctx); err != nil {
		return err
	}

	query := strings.Join(args, " ")
	products, err := a.client.ListProducts(ctx, query)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Products")
	cyan.Println("  --------")
	render.AdminTable(os.Stdout, products)
	fmt.Println()
	return nil
}

func (a *app) cmdSave(ctx context.Context, args []string) error {
	var id, name, description, category, imagePath string
	var priceRaw, stockRaw string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--id":
			if i+1 < len(args) {
				id = args[i+1]
				i++
			}
		case "--name", "-n":
			if i+1 < len(args) {
				name = args[i+1]
				i++
			}
		case "--price", "-p":
			if i+1 < len(args) {
				priceRaw = args[i+1]
				i++
			}
		case "--stock", "-s":
			if i+1 < len(args) {
				stockRaw = args[i+1]
				i++
			}
		case "--category", "-c":
			if i+1 < len(args) {
				category = args[i+1]
				i++
			}
		case "--description", "-d":
			if i+1 < len(args) {
				description = args[i+1]
				i++
			}
		case "--image":
			if i+1 < len(args) {
				imagePath = args[i+1]
				i++
			}
		}
	}

	if name == "" || priceRaw == "" {
		return fmt.Errorf("usage: save [--id <id>] --name <name> --price <price> [--stock <n>] [--category <cat>] [--description <text>] [--image <path>]")
	}

	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		return fmt.Errorf("invalid price: %w", err)
	}
	var stock int
	if stockRaw != "" {
		stock, err = strconv.Atoi(stockRaw)
		if err != nil {
			return fmt.Errorf("invalid stock: %w", err)
		}
	}

	if _, err := a.verifyAdmin(ctx); err != nil {
		return err
	}

	var image io.Reader
	var imageName string
	if imagePath != "" {
		f, err := os.Open(imagePath)
		if err != nil {
			return fmt.Errorf("opening image: %w", err)
		}
		defer f.Close()
		image = f
		imageName = filepath.Base(imagePath)
	}

	input := api.ProductInput{
		Name:        name,
		Description: description,
		Price:       &price,
		Stock:       stock,
		Category:    category,
	}
	product, err := a.client.SaveProduct(ctx, id, input, imageName, image)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	if id == "" {
		green.Printf("✓ Created product: %s\n", product.ID)
	} else {
		green.Printf("✓ Updated product: %s\n", product.ID)
	}
	fmt.Printf("  Name:      %s\n", product.Name)
	fmt.Printf("  Price:     %.2f\n", product.Price)
	fmt.Printf("  Stock:     %d\n", product.Stock)
	if product.Category != "" {
		fmt.Printf("  Category:  %s\n", product.Category)
	}
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: delete <product-id>")
	}
	id := args[0]

	if _, err := a.verifyAdmin(ctx); err != nil {
		return err
	}
	if err := a.client.DeleteProduct(ctx, id); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Deleted product: %s\n", id)
	return nil
}

func (a *app) cmdMe(ctx context.Context) error {
	if !identity.TokenUsable(a.ids.GetToken()) {
		return fmt.Errorf("not signed in (run: shopfront login <username>)")
	}
	me, err := a.client.Me(ctx)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	fmt.Println()
	cyan.Println("  Identity")
	cyan.Println("  --------")
	fmt.Printf("  Username:  %s\n", me.Username)
	if roles := me.RoleNames(); len(roles) > 0 {
		green.Printf("  Roles:     %s\n", strings.Join(roles, ", "))
	} else {
		fmt.Printf("  Roles:     (none)\n")
	}
	if session.IsAdmin(me.RoleNames()) {
		green.Println("  Admin:     yes")
	} else {
		fmt.Println("  Admin:     no")
	}
	fmt.Println()
	return nil
}
