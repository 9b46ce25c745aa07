// Package main is the entry point for wampcli, a minimal command-line
// client demonstrating the wamp package: connect, subscribe, publish, call.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hollowoak/wampcore/internal/buildinfo"
	"github.com/hollowoak/wampcore/internal/config"
	"github.com/hollowoak/wampcore/wamp"
	"github.com/hollowoak/wampcore/wampauth"
	"github.com/hollowoak/wampcore/wampjson"
	"github.com/hollowoak/wampcore/wampmsgpack"
	"github.com/hollowoak/wampcore/wampws"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	url := flag.String("url", "", "router URL, e.g. ws://localhost:8080/ws (overrides config)")
	realm := flag.String("realm", "", "realm to join (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if flag.NArg() == 0 {
		printUsage()
		return
	}

	if flag.Arg(0) == "version" {
		fmt.Println(buildinfo.String())
		for k, v := range buildinfo.BuildInfo() {
			fmt.Printf("  %-12s %s\n", k+":", v)
		}
		return
	}

	cfg, err := loadConfig(*configPath, *url, *realm)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wampcli:", err)
		os.Exit(1)
	}
	if lvl, lerr := config.ParseLogLevel(cfg.LogLevel); lerr == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:       lvl,
			ReplaceAttr: config.ReplaceLogLevelNames,
		}))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch flag.Arg(0) {
	case "subscribe":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "usage: wampcli subscribe <topic>")
			os.Exit(1)
		}
		runSubscribe(ctx, logger, cfg, wamp.URI(flag.Arg(1)))
	case "publish":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "usage: wampcli publish <topic> [json-arg...]")
			os.Exit(1)
		}
		runPublish(ctx, logger, cfg, wamp.URI(flag.Arg(1)), flag.Args()[2:])
	case "call":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "usage: wampcli call <procedure> [json-arg...]")
			os.Exit(1)
		}
		runCall(ctx, logger, cfg, wamp.URI(flag.Arg(1)), flag.Args()[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", flag.Arg(0))
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("wampcli - minimal client for a routed pub/sub + RPC protocol")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  subscribe <topic>                Subscribe and print events until interrupted")
	fmt.Println("  publish   <topic> [arg...]        Publish an event (args parsed as JSON, else string)")
	fmt.Println("  call      <procedure> [arg...]    Call a remote procedure and print the result")
	fmt.Println("  version                            Show build metadata")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

// loadConfig reads config from path (or the default search path), then
// applies -url/-realm overrides, which take precedence even over an
// explicit config file.
func loadConfig(path, urlOverride, realmOverride string) (*config.Config, error) {
	var cfg *config.Config
	if found, err := config.FindConfig(path); err == nil {
		cfg, err = config.Load(found)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}
	if urlOverride != "" {
		cfg.URL = urlOverride
	}
	if realmOverride != "" {
		cfg.Realm = realmOverride
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// codecsFor builds the Codec list in the order cfg.Codecs names them; that
// order is the preference order wamp.Connect advertises (the config default
// lists msgpack before json).
func codecsFor(cfg *config.Config) []wamp.Codec {
	codecs := make([]wamp.Codec, 0, len(cfg.Codecs))
	for _, name := range cfg.Codecs {
		switch name {
		case "msgpack":
			codecs = append(codecs, wampmsgpack.New())
		case "json":
			codecs = append(codecs, wampjson.New())
		}
	}
	return codecs
}

func connect(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*wamp.Client, error) {
	dialer := &wampws.Dialer{Logger: logger}
	opts := []wamp.ConnectOption{
		wamp.WithConnectTimeout(cfg.ConnectTimeout()),
		wamp.WithKeepalive(cfg.Keepalive()),
		wamp.WithCodecs(codecsFor(cfg)...),
		wamp.WithLogger(logger),
		wamp.WithAgentID(wamp.NewAgentID()),
	}
	if cfg.AuthSecret != "" {
		opts = append(opts, wamp.WithAuthenticator(wampauth.NewCRA(cfg.AuthSecret), wamp.Dict{}))
	}
	return wamp.Connect(ctx, cfg.URL, wamp.URI(cfg.Realm), dialer, opts...)
}

func runSubscribe(ctx context.Context, logger *slog.Logger, cfg *config.Config, topic wamp.URI) {
	client, err := connect(ctx, logger, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wampcli: connect:", err)
		os.Exit(1)
	}

	fut, err := client.Subscribe(topic, wamp.MatchExact, func(ev wamp.Event) {
		fmt.Printf("event %s args=%v kwargs=%v\n", topic, ev.Args, ev.KwArgs)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "wampcli: subscribe:", err)
		os.Exit(1)
	}
	if _, err := fut.Wait(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "wampcli: subscribe:", err)
		os.Exit(1)
	}
	fmt.Printf("subscribed to %s, waiting for events (ctrl-c to stop)\n", topic)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = client.Shutdown(shutdownCtx)
}

func runPublish(ctx context.Context, logger *slog.Logger, cfg *config.Config, topic wamp.URI, rawArgs []string) {
	client, err := connect(ctx, logger, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wampcli: connect:", err)
		os.Exit(1)
	}

	fut, err := client.PublishAck(topic, parseArgs(rawArgs), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wampcli: publish:", err)
		os.Exit(1)
	}
	if _, err := fut.Wait(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "wampcli: publish:", err)
		os.Exit(1)
	}
	fmt.Printf("published to %s\n", topic)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = client.Shutdown(shutdownCtx)
}

func runCall(ctx context.Context, logger *slog.Logger, cfg *config.Config, procedure wamp.URI, rawArgs []string) {
	client, err := connect(ctx, logger, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wampcli: connect:", err)
		os.Exit(1)
	}

	fut, err := client.Call(procedure, parseArgs(rawArgs), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wampcli: call:", err)
		os.Exit(1)
	}
	result, err := fut.Wait(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wampcli: call failed:", err)
		os.Exit(1)
	}
	fmt.Printf("result: args=%v kwargs=%v\n", result.Args, result.KwArgs)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = client.Shutdown(shutdownCtx)
}

// parseArgs turns CLI positional strings into a wamp.List, parsing each as
// JSON first (so "42" becomes a number and "true" a bool) and falling back
// to the raw string when it isn't valid JSON.
func parseArgs(raw []string) wamp.List {
	args := make(wamp.List, len(raw))
	for i, s := range raw {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			args[i] = v
		} else {
			args[i] = s
		}
	}
	return args
}
