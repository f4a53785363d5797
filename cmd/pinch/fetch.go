package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/pinch/component"
	"github.com/kbukum/pinch/fetch"
	"github.com/kbukum/pinch/native"
)

// fetchFlags are the command line options of `pinch fetch`.
type fetchFlags struct {
	method  string
	headers []string
	body    string
	certs   []string
	timeout int
	include bool
	asJSON  bool
	cookies bool
}

func newFetchCmd(a *app) *cobra.Command {
	var f fetchFlags

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a URL, optionally trusting only pinned certificates",
		Example: `  pinch fetch https://api.example.com/health
  pinch fetch https://api.example.com/items -X POST -H 'Content-Type: application/json' -d '{"n":1}' --cert api
  pinch fetch https://api.example.com/login --cookies`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var opts []native.Option
			if a.metrics != nil {
				opts = append(opts, native.WithMetrics(a.metrics))
			}
			backend := native.NewComponent(a.cfg.Native, opts...)

			registry := component.NewRegistry()
			if err := registry.Register(backend); err != nil {
				return err
			}
			if err := registry.StartAll(ctx); err != nil {
				return err
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				_ = registry.StopAll(stopCtx)
			}()

			return runFetch(ctx, cmd.OutOrStdout(), fetch.New(backend.Fetcher()), args[0], f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.method, "request", "X", "", "HTTP method (default GET)")
	fl.StringArrayVarP(&f.headers, "header", "H", nil, "request header as 'Name: value' (repeatable)")
	fl.StringVarP(&f.body, "data", "d", "", "request body")
	fl.StringArrayVar(&f.certs, "cert", nil, "pinned certificate name or path (repeatable)")
	fl.IntVar(&f.timeout, "timeout", 0, "request timeout in milliseconds")
	fl.BoolVarP(&f.include, "include", "i", false, "print status line and response headers")
	fl.BoolVar(&f.asJSON, "json", false, "parse the body as JSON and pretty-print it")
	fl.BoolVar(&f.cookies, "cookies", false, "print the cookies stored for the URL afterwards")
	return cmd
}

// options turns flags into native fetch options.
func (f fetchFlags) options() (native.Options, error) {
	headers, err := parseHeaders(f.headers)
	if err != nil {
		return native.Options{}, err
	}
	opts := native.Options{
		Method:          f.method,
		Headers:         headers,
		Body:            f.body,
		TimeoutInterval: f.timeout,
	}
	switch len(f.certs) {
	case 0:
	case 1:
		opts.SSLPinning = &native.Pinning{Cert: f.certs[0]}
	default:
		opts.SSLPinning = &native.Pinning{Certs: f.certs}
	}
	return opts, nil
}

func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// runFetch performs one fetch through a and writes the result to out.
func runFetch(ctx context.Context, out io.Writer, a *fetch.Adapter, url string, f fetchFlags) error {
	opts, err := f.options()
	if err != nil {
		return err
	}

	res, err := a.Fetch(url, opts, nil).Await(ctx)
	if err != nil {
		return err
	}

	if f.include {
		fmt.Fprintf(out, "%d %s\n", res.Status, res.StatusText)
		for _, name := range sortedKeys(res.Headers) {
			fmt.Fprintf(out, "%s: %s\n", name, res.Headers[name])
		}
		fmt.Fprintln(out)
	}

	if f.asJSON {
		v, err := res.JSON().Await(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return err
		}
	} else {
		text, err := res.Text().Await(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
		if text != "" && !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(out)
		}
	}

	if f.cookies {
		cookies, err := a.Cookies(url).Await(ctx)
		if err != nil {
			return err
		}
		for _, name := range sortedKeys(cookies) {
			fmt.Fprintf(out, "cookie %s=%s\n", name, cookies[name])
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
