// Command bridge runs the MQTT to WebSocket Meshtastic bridge: one broker
// connection in, any number of browser sockets out.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/bridge"
	"github.com/valentinvieriu/mqtt-meshtastic-sub000/public/mqtt"
)

func main() {
	var server, username, password, listen, level string
	flag.StringVar(&server, "server", "", "MQTT server (overrides MQTT_SERVER)")
	flag.StringVar(&username, "username", "", "MQTT username (overrides MQTT_USERNAME)")
	flag.StringVar(&password, "password", "", "MQTT password (overrides MQTT_PASSWORD)")
	flag.StringVar(&listen, "listen", "", "WebSocket listen address (overrides LISTEN_ADDR)")
	flag.StringVar(&level, "level", "info", "Log level")
	flag.Parse()
	if lvl, err := log.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Fatal("failed to parse log level", "level", level, "err", err)
	}

	cfg, err := bridge.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}
	if server != "" {
		cfg.MQTTServer = server
	}
	if username != "" {
		cfg.MQTTUsername = username
	}
	if password != "" {
		cfg.MQTTPassword = password
	}
	if listen != "" {
		cfg.ListenAddr = listen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	b := bridge.New(cfg)
	client := mqtt.NewClient(cfg.MQTTServer, cfg.MQTTUsername, cfg.MQTTPassword, b.Callbacks())
	b.SetBroker(client)
	if err := client.Connect(); err != nil {
		// Retry is enabled; paho keeps dialling in the background.
		log.Warn("initial broker connect failed, retrying", "err", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.HandleWS)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		client.Disconnect()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info("Started", "listen", cfg.ListenAddr, "server", cfg.MQTTServer, "gateway", cfg.GatewayID)
	if err := eg.Wait(); err != nil {
		log.Fatal(err)
	}
}
