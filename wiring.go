package docuforge

import (
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/yuga-i2/DOCUFORGE-AI/agents"
	"github.com/yuga-i2/DOCUFORGE-AI/config"
	"github.com/yuga-i2/DOCUFORGE-AI/ingest"
	"github.com/yuga-i2/DOCUFORGE-AI/log"
	"github.com/yuga-i2/DOCUFORGE-AI/rag"
	"github.com/yuga-i2/DOCUFORGE-AI/research"
	"github.com/yuga-i2/DOCUFORGE-AI/writer"
)

func newIngester(cfg config.Config, logger log.Logger) *ingest.Ingester {
	return ingest.New(cfg.MaxFileSizeMB, cfg.MinTextLength, logger)
}

func newRetriever(cfg config.Config, logger log.Logger) *rag.Retriever {
	store := rag.NewVectorStore(rag.DefaultEmbedder())
	splitter := rag.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinChunkLen)
	return rag.NewRetriever(store, splitter, cfg.TopK, logger)
}

// newResearcher returns nil when no search API key is configured; the
// research stage degrades to empty context in that case.
func newResearcher(cfg config.Config, logger log.Logger) (agents.Researcher, error) {
	if cfg.BraveAPIKey == "" {
		logger.Warn("no BRAVE_API_KEY set, research stage disabled")
		return nil, nil
	}
	searcher, err := research.NewBraveSearch(cfg.BraveAPIKey)
	if err != nil {
		return nil, err
	}
	return research.NewClient(searcher, 3, 6000, logger), nil
}

func newWriter(cfg config.Config, logger log.Logger) (*writer.Writer, error) {
	opts := []lcopenai.Option{
		lcopenai.WithToken(cfg.OpenAIKey),
		lcopenai.WithModel(cfg.Model),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	model, err := lcopenai.New(opts...)
	if err != nil {
		return nil, err
	}
	return writer.New(model, cfg.MaxContextChars, logger), nil
}
