package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/config"
	"github.com/zenit-qa/zenit/internal/fetch"
	"github.com/zenit-qa/zenit/internal/locator"
	"github.com/zenit-qa/zenit/internal/services/locators"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan, color.Bold)
	dim    = color.New(color.Faint)
)

// job is one page to generate locators for
type job struct {
	name string
	file string
	url  string
}

func main() {
	godotenv.Load()

	framework := flag.String("framework", "playwright", "Target framework (playwright, cypress, selenium)")
	language := flag.String("language", "typescript", "Target language (java, python, csharp, javascript, typescript)")
	mode := flag.String("mode", string(locators.ModeStructured), "Extraction mode (structured, scan)")
	outputDir := flag.String("output", "./locators", "Output directory for generated code")
	rendered := flag.Bool("rendered", false, "Render URLs in a headless browser before scanning")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("Usage: locgen [flags] <file.html | https://url> ...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var logger *zap.Logger
	if *verbose {
		logger, _ = zap.NewDevelopment()
	} else {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	cfg, err := config.LoadWithDefaults()
	if err != nil {
		red.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	deps := locators.Deps{
		Static: fetch.NewStaticFetcher(fetch.Config{
			Timeout:        cfg.Fetch.Timeout,
			MaxBodyBytes:   cfg.Fetch.MaxBodyBytes,
			RequestsPerSec: cfg.Fetch.RequestsPerSec,
			Burst:          cfg.Fetch.Burst,
			UserAgent:      cfg.Fetch.UserAgent,
		}, logger),
	}
	if *rendered {
		browser, err := fetch.NewRenderedFetcher(cfg.Fetch.RenderTimeout, cfg.Fetch.UserAgent, logger)
		if err != nil {
			red.Printf("❌ Failed to start browser: %v\n", err)
			os.Exit(1)
		}
		defer browser.Close()
		deps.Rendered = browser
	}

	svc := locators.NewService(locators.Config{
		MaxElements:   cfg.Locator.MaxElements,
		MaxInputBytes: cfg.Locator.MaxInputBytes,
	}, deps, logger)

	jobs := make([]job, 0, flag.NArg())
	for _, arg := range flag.Args() {
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			jobs = append(jobs, job{name: pageName(arg), url: arg})
			continue
		}
		jobs = append(jobs, job{name: strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg)), file: arg})
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		red.Printf("❌ Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	cyan.Printf("\n🔎 Generating %s locators (%s) for %d page(s)\n\n", *framework, *language, len(jobs))

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetDescription("   Generating..."),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	ctx := context.Background()
	start := time.Now()
	type result struct {
		job      job
		path     string
		elements int
		err      error
	}
	results := make([]result, 0, len(jobs))

	for _, j := range jobs {
		out, err := generate(ctx, svc, j, *framework, *language, locators.Mode(*mode), *rendered)
		res := result{job: j, err: err}
		if err == nil {
			res.elements = len(out.Elements)
			res.path = filepath.Join(*outputDir, j.name+extension(*framework, *language))
			res.err = os.WriteFile(res.path, []byte(out.FormattedCode), 0644)
		}
		results = append(results, res)
		bar.Add(1)
	}
	bar.Finish()
	fmt.Println()
	fmt.Println()

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			red.Printf("   ✗ %s", r.job.name)
			dim.Printf("  %v\n", r.err)
			continue
		}
		green.Printf("   ✓ %s", r.job.name)
		dim.Printf("  %d elements → %s\n", r.elements, r.path)
	}

	fmt.Println()
	if failed > 0 {
		yellow.Printf("⚠️  %d of %d page(s) failed", failed, len(results))
	} else {
		green.Printf("✅ %d page(s) done", len(results))
	}
	dim.Printf(" in %s\n", time.Since(start).Round(time.Millisecond))
	if failed > 0 {
		os.Exit(1)
	}
}

func generate(ctx context.Context, svc *locators.Service, j job, framework, language string, mode locators.Mode, rendered bool) (*locator.Output, error) {
	if j.url != "" {
		res, err := svc.Scrape(ctx, locators.ScrapeRequest{
			URL:       j.url,
			Framework: framework,
			Language:  language,
			Rendered:  rendered,
		})
		if err != nil {
			return nil, err
		}
		return res.Output, nil
	}

	data, err := os.ReadFile(j.file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", j.file, err)
	}
	return svc.Generate(ctx, locators.GenerateRequest{
		HTML:      string(data),
		Framework: framework,
		Language:  language,
		Mode:      mode,
	})
}

// pageName derives a file name from the last path segment of a URL
func pageName(rawURL string) string {
	trimmed, _, _ := strings.Cut(rawURL, "?")
	trimmed = strings.TrimRight(trimmed, "/")
	name := trimmed[strings.LastIndex(trimmed, "/")+1:]
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || strings.Contains(trimmed, "://"+name) {
		host := strings.TrimPrefix(strings.TrimPrefix(trimmed, "https://"), "http://")
		name = strings.NewReplacer(".", "_", ":", "_").Replace(host)
	}
	if name == "" {
		return "page"
	}
	return name
}

func extension(framework, language string) string {
	fw, err := locator.ParseFramework(framework)
	if err == nil && fw.IsObjectMap() {
		return ".js"
	}
	switch locator.ParseLanguage(language) {
	case locator.LanguageJava:
		return ".java"
	case locator.LanguagePython:
		return ".py"
	case locator.LanguageCSharp:
		return ".cs"
	case locator.LanguageJavaScript:
		return ".js"
	}
	return ".ts"
}
