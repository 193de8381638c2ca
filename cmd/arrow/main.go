// Command arrow is one directional endpoint of a message-queueing
// performance test: it sends or receives a stream of messages over a
// single connection and writes one timing record per transfer to stdout.
//
// It is invoked with key=value arguments:
//
//	arrow connection-mode=client channel-mode=active operation=send \
//	      id=sender-1 host=localhost port=5672 path=q0 \
//	      duration=30 count=0 body-size=100 credit-window=1000 \
//	      transaction-size=0 durable=0 settlement=0
//
// With no arguments it prints its implementation name and exits 0, which
// the harness uses as an availability probe. The scheme argument selects
// the transport binding: amqp (default) and amqps use the AMQP 1.0
// client; native uses the built-in framed transport, which also supports
// server and passive modes.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mqbench/arrow/pkg/arrow"
	"github.com/mqbench/arrow/pkg/output"
	amqptransport "github.com/mqbench/arrow/pkg/transport/amqp"
	"github.com/mqbench/arrow/pkg/transport/native"
)

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", filepath.Base(os.Args[0]), fmt.Sprintf(format, args...))
	os.Exit(1)
}

// kwargs holds the parsed key=value invocation arguments.
type kwargs map[string]string

func parseKwargs(args []string) (kwargs, error) {
	kw := make(kwargs, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("malformed argument %q: want key=value", arg)
		}
		kw[key] = value
	}
	return kw, nil
}

func (kw kwargs) get(key string) string {
	return kw[key]
}

func (kw kwargs) getInt(key string) (int, error) {
	value := kw[key]
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("argument %s=%q is not an integer", key, value)
	}
	return n, nil
}

// getUint parses a count-like argument; negative values are rejected
// rather than wrapping into huge unsigned targets.
func (kw kwargs) getUint(key string) (int, error) {
	n, err := kw.getInt(key)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("argument %s=%q must not be negative", key, kw[key])
	}
	return n, nil
}

func (kw kwargs) getBool(key string) (bool, error) {
	n, err := kw.getInt(key)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func main() {
	if len(os.Args) == 1 {
		fmt.Println("MQBench Arrow Go")
		os.Exit(0)
	}

	kw, err := parseKwargs(os.Args[1:])
	if err != nil {
		fail("%v", err)
	}

	params, err := buildParams(kw)
	if err != nil {
		fail("%v", err)
	}

	connector, err := newConnector(scheme(kw), kw)
	if err != nil {
		fail("%v", err)
	}

	engine, err := arrow.New(arrow.Config{
		Params:    params,
		Connector: connector,
		Output:    output.NewWriter(os.Stdout),
	})
	if err != nil {
		fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Run(ctx); err != nil {
		fail("%v", err)
	}
}

func defaultPort(scheme string) string {
	switch scheme {
	case "amqps":
		return "5671"
	default:
		return "5672"
	}
}

func scheme(kw kwargs) string {
	if s := kw.get("scheme"); s != "" {
		return s
	}
	return "amqp"
}

// buildParams assembles the run configuration from the invocation
// arguments, applying the contract's defaults: a generated container id,
// "-" or empty port meaning the scheme default, and zero for every
// omitted numeric argument.
func buildParams(kw kwargs) (arrow.Params, error) {
	var p arrow.Params
	var err error

	if p.Role, err = arrow.ParseOperation(kw.get("operation")); err != nil {
		return p, err
	}
	if p.ConnectionMode, err = arrow.ParseConnectionMode(kw.get("connection-mode")); err != nil {
		return p, err
	}
	if p.ChannelMode, err = arrow.ParseChannelMode(kw.get("channel-mode")); err != nil {
		return p, err
	}

	p.ID = kw.get("id")
	if p.ID == "" {
		p.ID = "arrow-" + uuid.NewString()[:8]
	}

	port := kw.get("port")
	if port == "" || port == "-" {
		port = defaultPort(scheme(kw))
	}
	p.Address = fmt.Sprintf("%s:%s", kw.get("host"), port)
	p.Path = kw.get("path")

	seconds, err := kw.getUint("duration")
	if err != nil {
		return p, err
	}
	p.Duration = time.Duration(seconds) * time.Second

	count, err := kw.getUint("count")
	if err != nil {
		return p, err
	}
	p.Count = uint64(count)

	if p.BodySize, err = kw.getUint("body-size"); err != nil {
		return p, err
	}
	if p.CreditWindow, err = kw.getInt("credit-window"); err != nil {
		return p, err
	}
	if p.TransactionSize, err = kw.getInt("transaction-size"); err != nil {
		return p, err
	}
	if p.Durable, err = kw.getBool("durable"); err != nil {
		return p, err
	}
	if p.Settlement, err = kw.getBool("settlement"); err != nil {
		return p, err
	}
	return p, nil
}

func newConnector(scheme string, kw kwargs) (arrow.Connector, error) {
	switch scheme {
	case "native":
		return native.NewConnector(native.Config{}), nil

	case "amqp", "amqps":
		cfg := amqptransport.Config{
			Username: kw.get("username"),
			Password: kw.get("password"),
		}
		if scheme == "amqps" {
			tlsConfig := &tls.Config{}
			if cert, key := kw.get("cert"), kw.get("key"); cert != "" && key != "" {
				pair, err := tls.LoadX509KeyPair(cert, key)
				if err != nil {
					return nil, fmt.Errorf("loading client certificate: %w", err)
				}
				tlsConfig.Certificates = []tls.Certificate{pair}
			}
			cfg.TLSConfig = tlsConfig
		}
		return amqptransport.NewConnector(cfg), nil

	default:
		return nil, fmt.Errorf("%w: scheme %q", arrow.ErrUnsupportedMode, scheme)
	}
}
