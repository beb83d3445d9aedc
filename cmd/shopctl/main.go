// Command shopctl drives a running shopfront server through the session
// aware client: login, profile, catalog reads and logout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/Skotchmaster/shopfront/pkg/apiclient"
	"github.com/Skotchmaster/shopfront/pkg/clientstate"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

const usage = `usage: shopctl [flags] <command> [args]

commands:
  login <email> <password>
  signup <name> <email> <password>
  profile
  products            (admin)
  featured
  category <name>
  search <query>
  logout
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("shopctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	baseURL := fs.String("api", envOr("SHOPCTL_API", "http://localhost:5000/api"), "API base URL")
	state := fs.String("state", envOr("SHOPCTL_STATE", defaultStatePath()), "file holding the session cookies")
	timeout := fs.Duration("timeout", 15*time.Second, "overall timeout")
	level := fs.String("log-level", "warn", "log level")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	logger := logging.NewWithWriter(stderr, *level)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(logging.IntoContext(ctx, logger), *timeout)
	defer cancel()

	api, coord, err := apiclient.NewWithSession(*baseURL, nil)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	jar := &cookieFile{path: *state}
	if err := jar.load(api); err != nil {
		logger.Warn("session_state_unreadable", "path", *state, "error", err)
	}

	notify := clientstate.LogNotifier{Logger: logger}
	users := clientstate.NewUserStore(api, notify)
	users.ClearOnExpiry(coord)
	products := clientstate.NewProductStore(api, notify)

	c := &cli{ctx: ctx, out: stdout, api: api, users: users, products: products}
	err = c.dispatch(fs.Arg(0), fs.Args()[1:])

	if serr := jar.save(api); serr != nil {
		logger.Warn("session_state_not_saved", "path", *state, "error", serr)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fs.Usage()
		return 2
	case errors.Is(err, apiclient.ErrRefreshInvalid), errors.Is(err, apiclient.ErrAuthExpired):
		fmt.Fprintln(stderr, "session expired, run: shopctl login <email> <password>")
		return 1
	default:
		fmt.Fprintln(stderr, err)
		return 1
	}
}

var errUsage = errors.New("usage")

type cli struct {
	ctx      context.Context
	out      io.Writer
	api      *apiclient.Client
	users    *clientstate.UserStore
	products *clientstate.ProductStore
}

func (c *cli) dispatch(cmd string, args []string) error {
	switch cmd {
	case "login":
		if len(args) != 2 {
			return errUsage
		}
		if err := c.users.Login(c.ctx, args[0], args[1]); err != nil {
			return err
		}
		return c.print(c.users.Get().User)
	case "signup":
		if len(args) != 3 {
			return errUsage
		}
		in := clientstate.SignupInput{Name: args[0], Email: args[1], Password: args[2], ConfirmPassword: args[2]}
		if err := c.users.Signup(c.ctx, in); err != nil {
			return err
		}
		return c.print(c.users.Get().User)
	case "profile":
		if err := c.users.CheckAuth(c.ctx); err != nil {
			return err
		}
		return c.print(c.users.Get().User)
	case "products":
		if err := c.products.FetchAllProducts(c.ctx); err != nil {
			return err
		}
		return c.print(c.products.Get().Products)
	case "featured":
		if err := c.products.FetchFeaturedProducts(c.ctx); err != nil {
			return err
		}
		return c.print(c.products.Get().Products)
	case "category":
		if len(args) != 1 {
			return errUsage
		}
		if err := c.products.FetchProductsByCategory(c.ctx, args[0]); err != nil {
			return err
		}
		return c.print(c.products.Get().Products)
	case "search":
		if len(args) != 1 {
			return errUsage
		}
		var page json.RawMessage
		if err := c.api.Get(c.ctx, "/products/search?q="+queryEscape(args[0]), &page); err != nil {
			return err
		}
		return c.print(page)
	case "logout":
		return c.users.Logout(c.ctx)
	}
	return errUsage
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
