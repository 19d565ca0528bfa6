package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrel-dev/structindex/internal/snapshot"
)

var buildSaveSnapshot bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the structural index once and print a summary",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildSaveSnapshot, "save", true, "save the built index to the on-disk snapshot cache")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}
	builder, err := newBuilder(root)
	if err != nil {
		return err
	}

	t0 := time.Now()
	pi, err := builder.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	elapsed := time.Since(t0)

	var functions, classes int
	for _, fr := range pi.Files {
		functions += len(fr.Functions)
		classes += len(fr.Classes)
	}

	fmt.Fprintf(os.Stderr, "Indexed %s\n", root)
	fmt.Fprintf(os.Stderr, "  files:     %d\n", len(pi.Files))
	fmt.Fprintf(os.Stderr, "  symbols:   %d\n", len(pi.Symbols))
	fmt.Fprintf(os.Stderr, "  functions: %d\n", functions)
	fmt.Fprintf(os.Stderr, "  classes:   %d\n", classes)
	fmt.Fprintf(os.Stderr, "  warnings:  %d\n", len(pi.Warnings))
	fmt.Fprintf(os.Stderr, "  elapsed:   %s\n", elapsed.Round(time.Millisecond))
	for _, w := range pi.Warnings {
		fmt.Fprintf(os.Stderr, "  warning: [%s] %s: %s\n", w.Stage, w.Path, w.Message)
	}

	if buildSaveSnapshot {
		store, err := snapshot.Open(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "snapshot open failed (continuing without cache): %v\n", err)
			return nil
		}
		defer store.Close()
		if err := store.Save(pi); err != nil {
			fmt.Fprintf(os.Stderr, "snapshot save failed (continuing without cache): %v\n", err)
		}
	}
	return nil
}
