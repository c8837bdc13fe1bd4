package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"careerhub/internal/convert"
)

func main() {
	dataDir := flag.String("data", "data", "directory containing the source CSV tables")
	output := flag.String("out", "data/converted_data.json", "path of the converted document array")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	count, err := convert.Run(context.Background(), logger, *dataDir, *output)
	if err != nil {
		logger.Error("conversion failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("conversion complete", zap.Int("documents", count))
}
