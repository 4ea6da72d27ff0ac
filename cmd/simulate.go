package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"soilmon/internal/modules/soil/simulator"
	"soilmon/internal/mqtt"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish random-walk soil readings to the MQTT topic",
	RunE:  runSimulate,
}

var (
	simulateInterval time.Duration
	simulateCount    int
	simulateSeed     uint64
)

func init() {
	simulateCmd.Flags().DurationVar(&simulateInterval, "interval", 5*time.Second, "time between readings")
	simulateCmd.Flags().IntVar(&simulateCount, "count", 0, "readings to send, 0 for no limit")
	simulateCmd.Flags().Uint64Var(&simulateSeed, "seed", uint64(time.Now().UnixNano()), "random seed")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub := mqtt.NewPublisher(cfg, logger)
	defer pub.Disconnect()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = pub.Connect(connectCtx)
	cancel()
	if err != nil {
		return err
	}

	sent, err := simulator.Run(ctx, pub, simulator.NewWalker(simulateSeed), simulateInterval, simulateCount, logger)
	logger.Info("simulation finished", "sent", sent)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
