package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hayasui/manga-t/internal/config"
	"github.com/hayasui/manga-t/internal/ui"
	"github.com/hayasui/manga-t/internal/ui/styles"
	"github.com/hayasui/manga-t/internal/ui/terminal"
	"github.com/hayasui/manga-t/internal/viewer"
	"github.com/hayasui/manga-t/internal/viewer/stage"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	// Define flags
	serverURL := flag.String("url", "", "Server URL (e.g., http://myserver:8080)")
	flag.StringVar(serverURL, "s", "", "Server URL (shorthand)")
	showHelp := flag.Bool("help", false, "Show help message")
	flag.BoolVar(showHelp, "h", false, "Show help (shorthand)")
	debug := flag.Bool("debug", false, "Write debug logs to a file")

	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Override server URL if provided via flag
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
		// Save to config for future use
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save server URL to config: %v\n", err)
		}
	}

	if *debug {
		logPath := filepath.Join(os.TempDir(), "manga-t-debug.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open debug log: %v\n", err)
		} else {
			defer f.Close()
			slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
			slog.Debug("starting", "server", cfg.ServerURL, "authenticated", cfg.IsAuthenticated())
		}
	}

	if cfg.Theme != "" {
		styles.SetCurrentTheme(cfg.Theme)
	}

	// One-time terminal capability detection; the values hold for the
	// life of the process.
	geom := stage.Detect()
	termMode := terminal.DetectTerminalMode()

	// A positional argument opens a local PDF or image directory in
	// the standalone viewer, no server involved.
	if flag.NArg() > 0 {
		if err := runLocal(cfg, geom, termMode, flag.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Run TUI mode
	app := ui.NewApp(cfg, geom, termMode)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("manga-t - Terminal client for a Manga reading server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  manga-t                     Start the TUI application")
	fmt.Println("  manga-t <file.pdf>          Read a local PDF chapter")
	fmt.Println("  manga-t <dir>               Read a directory of page images")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -s, --url <url>        Set server URL (saved to config)")
	fmt.Println("  -h, --help             Show this help message")
	fmt.Println("      --debug            Write debug logs to the temp dir")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  manga-t --url http://myserver:8080")
	fmt.Println("  manga-t chapter-12.pdf")
	fmt.Println("  manga-t scans/chapter-12/")
	fmt.Println()
	fmt.Println("Config: ~/.config/manga-t/config.yml")
}

// runLocal opens a PDF file or a directory of page images in a
// viewer-only program.
func runLocal(cfg *config.Config, geom stage.Geometry, termMode terminal.TermImageMode, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	opts := viewer.Options{
		Title:          filepath.Base(path),
		Mode:           cfg.Mode,
		Scale:          cfg.Scale,
		Brightness:     cfg.Brightness,
		ContainerWidth: cfg.ContainerWidth,
		Watermark:      cfg.Watermark,
		RenderAllPages: cfg.RenderAll,
	}

	if info.IsDir() {
		images, err := listPageImages(path)
		if err != nil {
			return err
		}
		opts.Images = images
	} else {
		opts.DocumentURL = path
	}

	m := newLocalReader(geom, termMode, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	os.Stdout.WriteString(terminal.ClearImages(termMode))
	return nil
}

// listPageImages returns the image files in a directory, in name order.
func listPageImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".gif", ".webp":
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no page images in %s", dir)
	}
	sort.Strings(images)
	return images, nil
}
