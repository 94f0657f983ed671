package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"docuchat/internal/adapter/ollama"
	"docuchat/internal/adapter/repository"
	"docuchat/internal/domain"
	"docuchat/internal/infra"
	"docuchat/internal/infra/config"
	"docuchat/internal/infra/httpclient"
	"docuchat/internal/infra/logger"
	"docuchat/internal/usecase"
)

var (
	version = "dev"

	filePath string
	docName  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ingest",
	Short:   "Ingest documents into the docuchat passage store",
	Version: version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest a file from disk",
	Long: `Chunk a plain-text file, embed the chunks and store them as
searchable passages. Re-running on unchanged content is a no-op.

Examples:
  # Ingest a document
  ingest run --file handbook.txt

  # Ingest with an explicit document name
  ingest run --file handbook.txt --name "Employee Handbook"`,
	RunE: runIngest,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show document and passage counts",
	RunE:  showStatus,
}

func init() {
	runCmd.Flags().StringVar(&filePath, "file", "", "path to the file to ingest (required)")
	runCmd.Flags().StringVar(&docName, "name", "", "document name (defaults to the file name)")
	_ = runCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.New()
	slog.SetDefault(log)

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	name := docName
	if name == "" {
		name = filepath.Base(filePath)
	}

	ctx := cmd.Context()
	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	embedder := ollama.NewEmbedder(
		cfg.Embedder.URL, cfg.Embedder.Model,
		cfg.Embedder.CacheSize, time.Duration(cfg.Embedder.CacheTTL)*time.Minute,
		log, httpclient.NewPooledClient(time.Duration(cfg.Embedder.Timeout)*time.Second),
	)
	ingest := usecase.NewIngestDocumentUsecase(
		repository.NewDocumentRepository(pool),
		repository.NewPassageRepository(pool),
		repository.NewPostgresTransactionManager(pool),
		domain.NewSourceHashPolicy(),
		domain.NewChunker(),
		embedder,
		rate.NewLimiter(rate.Limit(cfg.Ingest.EmbedRatePerSec), 1),
		cfg.Ingest.BatchSize,
		log,
	)

	result, err := ingest.Ingest(ctx, name, string(data))
	if err != nil {
		return err
	}

	if result.Skipped {
		fmt.Printf("already ingested: %s (%s)\n", name, result.DocumentID)
		return nil
	}
	fmt.Printf("ingested %s: %d passages (%s)\n", name, result.PassageCount, result.DocumentID)
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx := cmd.Context()
	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	docs, err := repository.NewDocumentRepository(pool).Count(ctx)
	if err != nil {
		return err
	}
	passages, err := repository.NewPassageRepository(pool).Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("documents: %d\npassages:  %d\n", docs, passages)
	return nil
}

func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	return infra.NewPostgresDB(ctx, dsn)
}
