// Command redis-ping dials a single Redis node, issues PING in a loop, and
// logs the lifecycle transitions, demonstrating the wiring between a
// redisconn.Handler and a transport.Dialer.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/relaydb/redisconn"
	"github.com/relaydb/redisconn/command"
	"github.com/relaydb/redisconn/transport"
)

type args struct {
	Addr           string        `long:"addr" optional:"true" default:"localhost:6379" description:"host:port or Unix socket path"`
	Auth           string        `long:"auth" optional:"true" description:"AUTH password, replayed on every (re)connect"`
	SelectDB       int64         `long:"db" optional:"true" default:"-1" description:"SELECT database index, replayed on every (re)connect"`
	Interval       time.Duration `long:"interval" optional:"true" default:"1s" description:"delay between PINGs"`
	CommandTimeout time.Duration `long:"command-timeout" optional:"true" default:"5s"`
	AtLeastOnce    bool          `long:"at-least-once" description:"hold commands written while disconnected and replay them on reconnect instead of failing them"`
	Verbose        bool          `long:"verbose" short:"v"`
}

func main() {
	var a args
	if _, err := flags.Parse(&a); err != nil {
		os.Exit(1)
	}

	logger := log.New()
	if a.Verbose {
		logger.SetLevel(log.TraceLevel)
	}

	opts := []redisconn.Option{
		redisconn.WithLogger(logger),
		redisconn.WithCommandTimeout(a.CommandTimeout),
		redisconn.WithMetrics(redisconn.NewMetrics(prometheus.DefaultRegisterer, a.Addr)),
	}
	if a.AtLeastOnce {
		opts = append(opts, redisconn.WithAutoReconnect(true))
	}
	if a.Auth != "" {
		opts = append(opts, redisconn.WithAuth([]byte(a.Auth)))
	}
	if a.SelectDB >= 0 {
		opts = append(opts, redisconn.WithSelectDB(a.SelectDB))
	}

	h := redisconn.New(opts...)

	dialer := transport.NewDialer(transport.Config{
		Addr:        a.Addr,
		DialTimeout: 2 * time.Second,
	}, h)
	go dialer.Run()
	defer dialer.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			dialer.Stop()
			return
		case <-ticker.C:
			out := &command.ValueOutput{}
			cmd, err := h.Write(command.NewRedis(out, "PING"))
			if err != nil {
				logger.WithError(err).Warn("write rejected")
				continue
			}
			<-cmd.Done()
			if err := cmd.Err(); err != nil {
				logger.WithError(err).Warn("ping failed")
				continue
			}
			if serr, ok := out.ServerErr().(command.ServerError); ok {
				logger.WithField("code", serr.Prefix()).Warn(serr.Error())
				continue
			}
			fmt.Println(out.Status)
		}
	}
}
