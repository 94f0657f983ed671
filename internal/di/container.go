package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"docuchat/internal/adapter/ollama"
	"docuchat/internal/adapter/rerank"
	"docuchat/internal/adapter/repository"
	"docuchat/internal/domain"
	"docuchat/internal/infra/config"
	"docuchat/internal/infra/httpclient"
	"docuchat/internal/usecase"
	"docuchat/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	History *domain.History

	PassageRepo domain.PassageRepository
	DocRepo     domain.DocumentRepository
	JobRepo     domain.IngestJobRepository

	AskUsecase    usecase.AskUsecase
	IngestUsecase usecase.IngestDocumentUsecase

	Worker *worker.IngestWorker
}

// NewApplicationComponents wires all dependencies from config and the
// database pool. startedAt is the process start time the pipeline reports
// elapsed seconds against.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, startedAt time.Time, log *slog.Logger) *ApplicationComponents {
	// Repositories
	passageRepo := repository.NewPassageRepository(pool)
	docRepo := repository.NewDocumentRepository(pool)
	jobRepo := repository.NewIngestJobRepository(pool)
	txManager := repository.NewPostgresTransactionManager(pool)

	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.Embedder.Timeout) * time.Second)
	generatorHTTP := httpclient.NewPooledClient(time.Duration(cfg.Generator.Timeout) * time.Second)
	rerankHTTP := httpclient.NewPooledClient(time.Duration(cfg.Rerank.Timeout) * time.Second)

	// External clients
	embedder := ollama.NewEmbedder(
		cfg.Embedder.URL, cfg.Embedder.Model,
		cfg.Embedder.CacheSize, time.Duration(cfg.Embedder.CacheTTL)*time.Minute,
		log, embedderHTTP,
	)
	generator := ollama.NewGenerator(cfg.Generator.URL, cfg.Generator.Model, log, generatorHTTP)
	reranker := rerank.NewClient(
		cfg.Rerank.URL, cfg.Rerank.Model,
		time.Duration(cfg.Rerank.Timeout)*time.Second,
		log, rerankHTTP,
	)

	// Shared conversation history: one per process, all requests see it.
	history := domain.NewHistory()

	// Pipeline usecases
	rewriteUsecase := usecase.NewRewriteQueryUsecase(history, generator, startedAt, log)
	retrieveUsecase := usecase.NewRetrieveContextUsecase(
		embedder, passageRepo, reranker,
		usecase.RetrievalConfig{TopK: cfg.Retrieval.TopK, TopN: cfg.Rerank.TopN},
		log,
	)
	answerUsecase := usecase.NewAnswerUsecase(history, generator, startedAt, log)
	askUsecase := usecase.NewAskUsecase(
		rewriteUsecase, retrieveUsecase, answerUsecase,
		cfg.Chat.SerializeRequests, log,
	)

	// Ingestion
	limiter := rate.NewLimiter(rate.Limit(cfg.Ingest.EmbedRatePerSec), 1)
	ingestUsecase := usecase.NewIngestDocumentUsecase(
		docRepo, passageRepo, txManager,
		domain.NewSourceHashPolicy(), domain.NewChunker(), embedder,
		limiter, cfg.Ingest.BatchSize, log,
	)

	ingestWorker := worker.NewIngestWorker(jobRepo, ingestUsecase, log)

	return &ApplicationComponents{
		History:       history,
		PassageRepo:   passageRepo,
		DocRepo:       docRepo,
		JobRepo:       jobRepo,
		AskUsecase:    askUsecase,
		IngestUsecase: ingestUsecase,
		Worker:        ingestWorker,
	}
}
