// Command netrund is the process entrypoint: it loads configuration,
// binds the datagram endpoint, starts a net runtime as either the
// session authority or a participant, and ticks it on a fixed cadence
// until a shutdown signal arrives.
package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netrun-go/pkg/config"
	"netrun-go/pkg/logging"
	"netrun-go/pkg/metrics"
	"netrun-go/pkg/runtime"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (defaults built in)")
	participant := flag.Bool("participant", false, "run as a participant rather than the session authority")
	authorityAddr := flag.String("authority", "", "authority address to connect to (participant mode only)")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address")
	flag.Parse()

	logging.Banner("netrun", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal("loading config", "err", err)
	}

	logging.Section("Configuration")
	logging.Info("server name", "value", cfg.ServerName)
	logging.Info("game mode", "value", cfg.GameMode)
	logging.Info("map", "value", cfg.MapName)
	logging.Info("max players", "value", cfg.MaxPlayers)
	logging.Info("heartbeat interval", "ms", cfg.HeartbeatIntervalMS)
	logging.Info("keep-alive timeout", "ms", cfg.KeepAliveTimeoutMS)
	logging.Info("ping probe enabled", "value", cfg.PingEnabled)

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	rt, conn := mustInitRuntime(cfg, *participant, *authorityAddr)
	defer conn.Close()

	logging.Section("Runtime")
	if *participant {
		logging.Info("running as participant", "authority", *authorityAddr, "local", rt.LocalAddr())
	} else {
		logging.Info("running as authority", "bind", rt.LocalAddr())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	ticker := time.NewTicker(cfg.HeartbeatInterval() / 2)
	defer ticker.Stop()

	logging.Info("tick loop starting")
	for {
		select {
		case now := <-ticker.C:
			rt.Tick(now)
		case sig := <-sigChan:
			logging.Warn("received signal, shutting down", "signal", sig)
			rt.Shutdown()
			logging.Info("runtime stopped")
			return
		}
	}
}

func mustInitRuntime(cfg config.Config, participant bool, authority string) (*runtime.Runtime, *net.UDPConn) {
	if participant {
		resolved, err := net.ResolveUDPAddr("udp", authority)
		if err != nil {
			logging.Fatal("resolving authority address", "err", err)
		}
		conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
		if err != nil {
			logging.Fatal("binding ephemeral UDP socket", "err", err)
		}
		rt := runtime.Init(runtime.Options{
			Role:             runtime.ParticipantRole,
			AuthorityAddr:    resolved,
			Conn:             conn,
			KeepAliveTimeout: cfg.KeepAliveTimeout(),
			PingEnabled:      cfg.PingEnabled,
		})
		return rt, conn
	}

	bindAddr := &net.UDPAddr{IP: net.ParseIP(cfg.Host), Port: cfg.Port}
	conn, err := net.ListenUDP("udp", bindAddr)
	if err != nil {
		logging.Fatal("binding UDP socket", "err", err, "addr", bindAddr)
	}
	rt := runtime.Init(runtime.Options{
		Role:             runtime.HostRole,
		AuthorityAddr:    conn.LocalAddr(),
		Conn:             conn,
		KeepAliveTimeout: cfg.KeepAliveTimeout(),
		PingEnabled:      cfg.PingEnabled,
	})

	rt.SetQueryHandler(queryHandler(cfg))

	return rt, conn
}

// queryHandler answers pre-connection server-info queries with a
// one-shot info blob, bypassing the connection layer entirely.
func queryHandler(cfg config.Config) func(data []byte, from net.Addr) ([]byte, bool) {
	const queryMagic = "netrun-query"
	return func(data []byte, from net.Addr) ([]byte, bool) {
		if string(data) != queryMagic {
			return nil, false
		}
		reply := fmt.Sprintf("%s|%s|%d/%d", cfg.ServerName, cfg.GameMode, 0, cfg.MaxPlayers)
		return []byte(reply), true
	}
}

func serveMetrics(addr string) {
	_ = metrics.TickDuration // ensure the metrics package is linked even if no ticks have run yet
	logging.Info("serving metrics", "addr", addr)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logging.Warn("metrics server stopped", "err", err)
	}
}
