package main

import (
	"context"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/j2clbuild/buildgraph/internal/pkg/config"
	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/cache"
	"github.com/j2clbuild/buildgraph/pkg/manifest"
	"github.com/j2clbuild/buildgraph/pkg/resolver"
	"github.com/j2clbuild/buildgraph/pkg/scheduler"
	"github.com/j2clbuild/buildgraph/pkg/workers"
)

var (
	manifestPath string
	cacheDir     string
	targetDir    string
	overridePath string
	testID       string

	cmdBuild = &cobra.Command{
		Use:   "build",
		Short: "Run a build from a manifest file",
		RunE:  runBuild,
	}
)

func init() {
	cmdBuild.Flags().StringVarP(&manifestPath, "manifest", "m", "", "path to the artifact manifest JSON document")
	cmdBuild.Flags().StringVarP(&cacheDir, "cache-dir", "c", "", "base cache directory")
	cmdBuild.Flags().StringVarP(&targetDir, "target-dir", "t", "", "final output directory")
	cmdBuild.Flags().StringVarP(&overridePath, "config", "f", "", "path to a defaults override YAML document")
	cmdBuild.Flags().StringVar(&testID, "test-id", "", "cache-breaking test run identifier")
	_ = cmdBuild.MarkFlagRequired("manifest")
	_ = cmdBuild.MarkFlagRequired("cache-dir")
	_ = cmdBuild.MarkFlagRequired("target-dir")
}

func runBuild(c *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Warn("received interrupt, cancelling build")
		cancel()
	}()

	defaults, err := config.Load(overridePath)
	if err != nil {
		return err
	}

	req := artifact.NewBuildRequest(cacheDir, targetDir)
	defaults.ApplyTo(req)
	req.TestID = testID
	req.Logger = log.StandardLogger()

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return err
	}
	root, err := manifest.Decode(raw, req)
	if err != nil {
		return err
	}

	graph := &resolver.Graph{Root: root}
	if err := resolver.ValidateAcyclic(graph); err != nil {
		return err
	}

	cacheLayout, err := cache.New(cacheDir)
	if err != nil {
		return err
	}

	sched := scheduler.New(cacheLayout, req, workers.DefaultToolset())
	if err := sched.Run(ctx, root); err != nil {
		return err
	}

	log.Infof("build complete: %s", root.Coords)
	return nil
}
