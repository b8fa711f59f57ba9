// item-search — CLI утилита для поиска товаров через Product Advertising API (ItemSearch).
//
// Использование:
//   ./item-search "camera"
//   ./item-search -category Electronics "デジタルカメラ"
//   ./item-search -format table -locale us "camera"
//   ./item-search -url-only "camera"
//   ./item-search -history 20
//
// Конфиг ищется по флагу -config, затем config.yaml/config.yml/config.ini
// в текущей директории и рядом с бинарником.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ilkoid/paapi-search/pkg/config"
	"github.com/ilkoid/paapi-search/pkg/history"
	"github.com/ilkoid/paapi-search/pkg/paapi"
	"github.com/ilkoid/paapi-search/pkg/s3storage"
	"github.com/ilkoid/paapi-search/pkg/utils"
)

// Version — версия утилиты (заполняется при сборке)
var Version = "dev"

func main() {
	os.Exit(run())
}

// run выполняет утилиту и возвращает код выхода.
// Отложенные shutdown и utils.Close отрабатывают на любом пути.
func run() int {
	// 1. Парсим флаги
	var (
		configPath  = flag.String("config", "", "Path to config.yaml or config.ini")
		category    = flag.String("category", "", "SearchIndex (e.g. Electronics, Books)")
		locale      = flag.String("locale", "", "Override api.locale (jp, us, uk, de ...)")
		format      = flag.String("format", "", "Output format: json or table")
		urlOnly     = flag.Bool("url-only", false, "Print signed request URL and exit")
		dumpXML     = flag.String("dump-xml", "", "Write normalized response XML to file")
		upload      = flag.Bool("upload", false, "Upload JSON results to S3")
		historyN    = flag.Int("history", 0, "Print last N searches from history and exit")
		debugFlag   = flag.Bool("debug", false, "Enable debug logging")
		showHelp    = flag.Bool("help", false, "Show help")
		showVersion = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	// 2. Обработка специальных флагов
	if *showVersion {
		fmt.Printf("item-search version %s\n", Version)
		return 0
	}

	if *showHelp {
		printHelp()
		return 0
	}

	// 3. Загружаем конфигурацию
	cfgPath := config.FindConfigPath(*configPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config from %s: %v\n", cfgPath, err)
		return 1
	}

	if err := utils.InitLogger(cfg.App.LogsDir, *debugFlag || cfg.App.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}
	defer utils.Close()

	utils.Info("Starting item-search", "version", Version, "config", cfgPath)

	ctx, shutdown := utils.SetupGracefulShutdownWithContext(context.Background())
	defer shutdown()

	// 4. Режим просмотра журнала
	if *historyN > 0 {
		if err := showHistory(ctx, os.Stdout, cfg, *historyN); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: keyword argument is required")
		fmt.Fprintln(os.Stderr, "Usage: item-search [flags] \"keyword\"")
		fmt.Fprintln(os.Stderr, "Run 'item-search -help' for more information")
		return 1
	}
	keyword := flag.Arg(0)

	// 5. Переопределения из флагов
	if *locale != "" {
		cfg.API.Locale = *locale
		cfg.API.Host = ""
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *upload {
		cfg.S3.Enabled = true
	}

	client, err := paapi.NewFromConfig(cfg.Credentials, cfg.API)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating client: %v\n", err)
		return 1
	}

	if *urlOnly {
		signedURL, err := client.BuildSearchURL(keyword, *category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Println(signedURL)
		return 0
	}

	// 6. Выполняем поиск
	requestID := uuid.NewString()
	startedAt := time.Now()
	utils.Info("Search started", "request_id", requestID, "keyword", keyword, "category", *category)

	result, searchErr := client.Search(ctx, keyword, *category)

	recordHistory(ctx, cfg, history.Entry{
		RequestID:   requestID,
		Keyword:     keyword,
		Category:    *category,
		Locale:      marketplace(cfg.API),
		ResultCount: resultCount(result),
		Error:       errorText(searchErr),
		RequestedAt: startedAt,
	})

	if searchErr != nil {
		errType := paapi.ClassifyError(searchErr)
		utils.Error("Search failed", "request_id", requestID, "type", errType.String(), "error", searchErr)
		fmt.Fprintf(os.Stderr, "Error: %s\n%v\n", errType.HumanMessage(), searchErr)
		return 1
	}

	utils.Info("Search completed",
		"request_id", requestID,
		"results", len(result.Records),
		"duration_ms", time.Since(startedAt).Milliseconds())

	// 7. Побочные выгрузки
	if *dumpXML != "" {
		if err := writeNormalizedXML(*dumpXML, result.Body); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	if cfg.S3.Enabled {
		location, err := uploadResults(ctx, cfg, keyword, requestID, result.Records)
		if err != nil {
			utils.Error("S3 upload failed", "request_id", requestID, "error", err)
			fmt.Fprintf(os.Stderr, "Error uploading results: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Uploaded: %s\n", location)
	}

	// 8. Выводим результат
	if cfg.Output.Format == "table" {
		err = writeTable(os.Stdout, result.Records, tableOptions{
			TitleWidth: cfg.Output.Width,
			NoColor:    cfg.Output.NoColor,
		})
	} else {
		err = writeJSON(os.Stdout, result.Records, cfg.Output.Indent)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// showHistory печатает последние n записей журнала.
// При выключенном журнале файл базы не создаётся.
func showHistory(ctx context.Context, w io.Writer, cfg *config.AppConfig, n int) error {
	if !cfg.History.Enabled {
		_, err := fmt.Fprintln(w, "History is disabled (history.enabled: false)")
		return err
	}

	store, err := history.Open(ctx, historyPath(cfg))
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(ctx, n)
	if err != nil {
		return err
	}
	return writeHistory(w, entries, cfg.Output.NoColor)
}

// recordHistory пишет запись в журнал. Сбой журнала не прерывает поиск.
func recordHistory(ctx context.Context, cfg *config.AppConfig, e history.Entry) {
	if !cfg.History.Enabled {
		return
	}

	store, err := history.Open(ctx, historyPath(cfg))
	if err != nil {
		utils.Warn("History unavailable", "error", err)
		return
	}
	defer store.Close()

	if _, err := store.Record(ctx, e); err != nil {
		utils.Warn("Failed to record history", "request_id", e.RequestID, "error", err)
	}
}

// marketplace возвращает метку маркетплейса для журнала:
// явный api.host, если задан, иначе локаль (с учётом дефолта).
func marketplace(api config.PAAPIConfig) string {
	api = api.GetDefaults()
	if api.Host != "" {
		return api.Host
	}
	return strings.ToLower(api.Locale)
}

func historyPath(cfg *config.AppConfig) string {
	if cfg.History.Path != "" {
		return cfg.History.Path
	}
	return "paapi-history.db"
}

// uploadResults выгружает JSON с записями в S3 и возвращает адрес объекта.
func uploadResults(ctx context.Context, cfg *config.AppConfig, keyword, requestID string, records []paapi.Record) (string, error) {
	uploader, err := s3storage.New(cfg.S3)
	if err != nil {
		return "", err
	}

	data, err := paapi.MarshalRecords(records, true)
	if err != nil {
		return "", err
	}

	key := s3storage.ResultKey(cfg.S3.Prefix, keyword, requestID, time.Now())
	utils.Debug("Uploading results", "request_id", requestID, "key", key, "bytes", len(data))
	return uploader.UploadResults(ctx, key, data)
}

func writeNormalizedXML(path string, body []byte) error {
	normalized, err := paapi.NormalizeXML(body)
	if err != nil {
		return fmt.Errorf("normalize xml: %w", err)
	}
	if err := os.WriteFile(path, normalized, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func resultCount(r *paapi.SearchResult) int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// printHelp выводит справку
func printHelp() {
	fmt.Println("item-search — поиск товаров через Product Advertising API (ItemSearch)")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  item-search [flags] \"keyword\"")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -config string    Path to config.yaml or config.ini")
	fmt.Println("  -category string  SearchIndex (e.g. Electronics, Books)")
	fmt.Println("  -locale string    Override api.locale (jp, us, uk, de ...)")
	fmt.Println("  -format string    Output format: json (default) or table")
	fmt.Println("  -url-only         Print signed request URL and exit")
	fmt.Println("  -dump-xml file    Write normalized response XML to file")
	fmt.Println("  -upload           Upload JSON results to S3")
	fmt.Println("  -history N        Print last N searches and exit")
	fmt.Println("  -debug            Enable debug logging")
	fmt.Println("  -version          Show version")
	fmt.Println("  -help             Show this help")
}
