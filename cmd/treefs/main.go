package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/marmos91/treefs/internal/logger"
	"github.com/marmos91/treefs/pkg/config"
	"github.com/marmos91/treefs/pkg/filesystem"
	"github.com/marmos91/treefs/pkg/tree"
)

func createInitialStructure(ctx context.Context, fs *filesystem.FileSystem, root *tree.File) error {
	// Create "images" directory
	images, err := fs.CreateDirectory(ctx, root, "images")
	if err != nil {
		return fmt.Errorf("failed to create images directory: %w", err)
	}

	imageFiles := []struct {
		name    string
		content string
	}{
		{"background1.png", "PNG image content for background1"},
		{"background2.jpg", "JPEG image content for background2"},
		{"wallpaper.png", "PNG image content for wallpaper"},
	}

	for _, img := range imageFiles {
		if err := writeFile(ctx, fs, images, img.name, img.content); err != nil {
			return err
		}
	}

	// Create text files in root
	textFiles := []struct {
		name    string
		content string
	}{
		{"readme.txt", "This is a README file.\nWelcome to treefs!\n"},
		{"notes.txt", "Some notes about this tree.\nIt's pretty cool!\n"},
	}

	for _, txt := range textFiles {
		if err := writeFile(ctx, fs, root, txt.name, txt.content); err != nil {
			return err
		}
	}

	// A hard link and a symlink back to the readme
	readme, err := fs.Lookup(ctx, root, "readme.txt")
	if err != nil {
		return fmt.Errorf("failed to look up readme.txt: %w", err)
	}
	if err := fs.Link(ctx, images, "README", readme); err != nil {
		return fmt.Errorf("failed to link README: %w", err)
	}
	if _, err := fs.CreateSymlink(ctx, images, "notes", "../notes.txt"); err != nil {
		return fmt.Errorf("failed to create notes symlink: %w", err)
	}

	return nil
}

func writeFile(ctx context.Context, fs *filesystem.FileSystem, dir *tree.File, name, content string) error {
	file, err := fs.CreateFile(ctx, dir, name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	store := file.Content().(*tree.ByteStore)
	if _, err := store.WriteAt([]byte(content), 0); err != nil {
		return fmt.Errorf("failed to write content for %s: %w", name, err)
	}
	return nil
}

// printTree writes an indented listing of dir to w.
func printTree(ctx context.Context, w io.Writer, fs *filesystem.FileSystem, dir *tree.File, depth int) error {
	names, err := fs.List(ctx, dir)
	if err != nil {
		return err
	}

	for _, n := range names {
		file, err := fs.Lookup(ctx, dir, n)
		if err != nil {
			return err
		}

		indent := strings.Repeat("  ", depth)
		switch {
		case file.IsDirectory():
			_, _ = fmt.Fprintf(w, "%s%s/ (links=%d)\n", indent, n, file.Links())
			if err := printTree(ctx, w, fs, file, depth+1); err != nil {
				return err
			}
		case file.IsSymbolicLink():
			target := file.Content().(*tree.SymbolicLink).Target()
			_, _ = fmt.Fprintf(w, "%s%s -> %s\n", indent, n, target)
		default:
			_, _ = fmt.Fprintf(w, "%s%s (%d bytes, links=%d)\n", indent, n, file.Size(), file.Links())
		}
	}
	return nil
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/treefs/config.yaml)")
	initConfig := flag.Bool("init", false, "Write a sample config file to the default location and exit")
	force := flag.Bool("force", false, "Overwrite an existing config file with -init")
	demo := flag.Bool("demo", true, "Populate the first root with a sample structure")
	flag.Parse()

	if *initConfig {
		path, err := config.InitConfig(*force)
		if err != nil {
			log.Fatalf("Failed to initialize config: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", path)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Configure logger
	output, err := logger.Open(cfg.Logging.Output)
	if err != nil {
		log.Fatalf("Failed to open log output: %v", err)
	}
	logger.SetOutput(output)
	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("treefs - in-memory directory tree")
	logger.Info("Log level set to: %s", cfg.Logging.Level)
	logger.Info("Name normalization: display=%v canonical=%v", cfg.Names.Display, cfg.Names.Canonical)

	metricsResult := config.InitializeMetrics(cfg)

	fs, err := config.CreateFileSystem(ctx, cfg, metricsResult.TreeMetrics)
	if err != nil {
		log.Fatalf("Failed to create filesystem: %v", err)
	}

	if *demo {
		root, err := fs.Root(cfg.Roots[0])
		if err != nil {
			log.Fatalf("Failed to get root: %v", err)
		}
		if err := createInitialStructure(ctx, fs, root); err != nil {
			log.Fatalf("Failed to create initial structure: %v", err)
		}
		logger.Info("Initial file structure created")
	}

	stats, err := fs.Verify(ctx)
	if err != nil {
		log.Fatalf("Tree verification failed: %v", err)
	}
	logger.Info("Tree verified: %d directories, %d files (%d symlinks), %d bytes",
		stats.Directories, stats.Files, stats.Symlinks, stats.Bytes)

	for _, rootName := range fs.Roots() {
		root, err := fs.Root(rootName)
		if err != nil {
			log.Fatalf("Failed to get root %s: %v", rootName, err)
		}
		fmt.Printf("%s (links=%d)\n", rootName, root.Links())
		if err := printTree(ctx, os.Stdout, fs, root, 1); err != nil {
			log.Fatalf("Failed to list %s: %v", rootName, err)
		}
	}

	if metricsResult.Server == nil {
		return
	}

	// Serve metrics until interrupted
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- metricsResult.Server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Metrics available at %s/metrics. Press Ctrl+C to stop.", metricsResult.Server.Addr())

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, stopping metrics server...")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("Metrics server shutdown error: %v", err)
			os.Exit(1)
		}
	case err := <-serverDone:
		if err != nil {
			logger.Error("Metrics server error: %v", err)
			os.Exit(1)
		}
	}
}
