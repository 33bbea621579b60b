package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/typefo/lamb/internal/daemon"
	"github.com/typefo/lamb/internal/gwconfig"
	"github.com/typefo/lamb/internal/scheduler"
)

func main() {
	os.Exit(run())
}

func run() int {
	configFile := pflag.StringP("config", "c", "scheduler.conf", "path to the scheduler configuration file")
	detach := pflag.BoolP("detach", "d", false, "detach and run as a background daemon")
	pflag.Parse()

	if *detach {
		child, pid, err := daemon.Daemonize()
		if err != nil {
			fmt.Fprintf(os.Stderr, "scheduler: daemonize: %v\n", err)
			return 1
		}
		if child {
			fmt.Printf("scheduler: started, pid %d\n", pid)
			return 0
		}
	}

	cfg, err := gwconfig.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scheduler: %v\n", err)
		return 1
	}

	log := newLogger(cfg)

	lock, err := gwconfig.AcquireLock("/tmp/scheduler.lock")
	if err != nil {
		log.WithError(err).Error("scheduler: failed to acquire lockfile")
		return 1
	}
	defer lock.Release()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := scheduler.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("scheduler: startup failed")
		return 1
	}
	defer svc.Close()

	log.WithFields(logrus.Fields{"listen": cfg.Listen, "port": cfg.Port}).Info("scheduler: starting")
	if err := svc.Run(ctx); err != nil {
		log.WithError(err).Error("scheduler: exited with error")
		return 1
	}

	log.Info("scheduler: clean shutdown")
	return 0
}

func newLogger(cfg *gwconfig.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			log.SetOutput(f)
		} else {
			log.WithError(err).Warn("scheduler: failed to open log file, falling back to stderr")
		}
	}

	return log
}
