package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/callrouter/internal/ami"
	"github.com/sweeney/callrouter/internal/call"
	"github.com/sweeney/callrouter/internal/config"
	"github.com/sweeney/callrouter/internal/gateway"
	"github.com/sweeney/callrouter/internal/httpapi"
	"github.com/sweeney/callrouter/internal/hub"
	"github.com/sweeney/callrouter/internal/publisher"
	"github.com/sweeney/callrouter/internal/router"
)

func main() {
	configPath := flag.String("config", "/etc/callrouter/callrouter.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("loading config: %v", err)
	}

	log := newLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("received signal, shutting down")
		cancel()
	}()

	var pub publisher.Publisher
	if cfg.MQTT.Enabled {
		mqttPub, err := publisher.NewMQTTPublisher(publisher.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			QoS:      1,
		})
		if err != nil {
			log.WithError(err).Fatal("connecting to MQTT")
		}
		defer mqttPub.Close()
		pub = mqttPub
		log.WithField("broker", cfg.MQTT.Broker).Info("MQTT mirror enabled")
	}

	client := ami.NewClient(ami.ClientOptions{
		Addr:     cfg.AMI.Addr(),
		Username: cfg.AMI.Username,
		Secret:   cfg.AMI.Secret,
		Logger:   log,
	})

	gw := gateway.New(gateway.Options{
		Logger: log,
		Link:   client,
		Hub:    hub.New(log),
		Policy: router.New(client, cfg.Router.Destination, cfg.Router.RedirectContext, log),
		Classifier: call.Classifier{
			GSMMarker:       cfg.Router.GSMMarker,
			GSMContext:      cfg.Router.GSMContext,
			TrunkContext:    cfg.Router.TrunkContext,
			InternalContext: cfg.Router.InternalContext,
		},
		Publisher:   pub,
		Host:        cfg.AMI.Host,
		Port:        cfg.AMI.Port,
		TopicPrefix: cfg.MQTT.TopicPrefix,
	})

	srv := httpapi.NewServer(gw, log, cfg.HTTP.Addr)
	go func() {
		if err := srv.Start(); err != nil {
			log.WithError(err).Error("HTTP server failed")
			cancel()
		}
	}()

	run(ctx, cfg, client, gw, log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	client.Close()
	log.Info("shutdown complete")
}

// run keeps an AMI session alive until the context is cancelled,
// redialing with a fixed backoff. While the session is down the gateway
// reports not-connected and control operations fail fast.
func run(ctx context.Context, cfg *config.Config, client *ami.Client, gw *gateway.Gateway, log *logrus.Logger) {
	for {
		err := runSession(ctx, cfg, client, gw, log)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.WithError(err).Warn("AMI session ended, reconnecting in 5s")
		}
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			return
		}
	}
}

func runSession(ctx context.Context, cfg *config.Config, client *ami.Client, gw *gateway.Gateway, log *logrus.Logger) error {
	log.WithField("addr", cfg.AMI.Addr()).Info("connecting to AMI")
	if err := client.Connect(); err != nil {
		return err
	}

	// Close the link on cancellation so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			client.Close()
		case <-done:
		}
	}()

	log.Info("AMI authenticated, processing events")
	return client.Run(gw.HandleEvent)
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
