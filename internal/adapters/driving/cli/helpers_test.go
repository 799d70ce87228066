package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driven"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driving"
)

type stubRetrieval struct {
	ingested [][]domain.RawDocument
}

func (s *stubRetrieval) Ingest(_ context.Context, docs []domain.RawDocument) (domain.IngestSummary, error) {
	s.ingested = append(s.ingested, docs)
	return domain.IngestSummary{Documents: len(docs), Chunks: len(docs), Stored: len(docs)}, nil
}

func (s *stubRetrieval) Query(_ context.Context, text string, _ int, _ float64) (domain.RetrievedContext, error) {
	return domain.RetrievedContext{Query: text}, nil
}

// storingRetrieval indexes into a real vector store so persistence is
// observable end to end.
type storingRetrieval struct {
	store driven.VectorStore
}

func (s *storingRetrieval) Ingest(ctx context.Context, docs []domain.RawDocument) (domain.IngestSummary, error) {
	for i, doc := range docs {
		id := fmt.Sprintf("%s#%d", doc.Source, i)
		chunk := domain.Chunk{ID: id, Text: doc.Content, Source: doc.Source, Position: i}
		if err := s.store.Upsert(ctx, id, []float32{1, 0}, chunk); err != nil {
			return domain.IngestSummary{}, err
		}
	}
	return domain.IngestSummary{Documents: len(docs), Chunks: len(docs), Stored: len(docs)}, nil
}

func (s *storingRetrieval) Query(_ context.Context, text string, _ int, _ float64) (domain.RetrievedContext, error) {
	return domain.RetrievedContext{Query: text}, nil
}

type stubDiagnosis struct {
	report *domain.DiagnosisReport
	err    error
	cases  []domain.PatientCase
}

func (s *stubDiagnosis) Diagnose(_ context.Context, patientCase domain.PatientCase) (*domain.DiagnosisReport, error) {
	s.cases = append(s.cases, patientCase)
	return s.report, s.err
}

type stubAdmin struct {
	stats        driving.StoreStats
	deleted      []string
	checkpointed int
	lastCtx      context.Context
}

func (s *stubAdmin) Stats(ctx context.Context) (driving.StoreStats, error) {
	s.lastCtx = ctx
	return s.stats, nil
}

func (s *stubAdmin) DeleteRecord(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubAdmin) Checkpoint(context.Context) error {
	s.checkpointed++
	return nil
}

type stubSessions struct {
	sessions map[string]*domain.DiagnosticSession
	ids      []string
}

func (s *stubSessions) Archive(context.Context, *domain.DiagnosticSession) error { return nil }

func (s *stubSessions) Get(_ context.Context, id string) (*domain.DiagnosticSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

func (s *stubSessions) List(context.Context) ([]string, error) { return s.ids, nil }
func (s *stubSessions) Close() error                           { return nil }

type stubSource struct {
	docs []domain.RawDocument
}

func (s *stubSource) Load(context.Context) ([]domain.RawDocument, error) { return s.docs, nil }

func (s *stubSource) LoadFile(_ context.Context, path string) (domain.RawDocument, error) {
	return domain.RawDocument{Source: path}, nil
}

func (s *stubSource) Watch(context.Context) (<-chan string, error) {
	ch := make(chan string)
	close(ch)
	return ch, nil
}

func sampleReport() *domain.DiagnosisReport {
	return &domain.DiagnosisReport{
		SessionID:      "sess-1",
		PatientSummary: "chest pain for 2 hours",
		GeneratedAt:    time.Now().UTC(),
		Elapsed:        1200 * time.Millisecond,
		Diagnosis: domain.ReasoningOutput{
			Primary: domain.Diagnosis{
				Name:          "Acute coronary syndrome",
				Justification: "ST elevation with troponin rise",
				EvidenceRefs:  []string{"guidelines.md#2"},
				Confidence:    domain.ConfidenceHigh,
			},
			OverallConfidence: domain.ConfidenceHigh,
		},
		Process: domain.ProcessCounts{
			HypothesesGenerated: 3,
			CandidatesRevised:   2,
			DocumentsConsulted:  4,
		},
		ConsensusLevel: domain.ConfidenceHigh,
	}
}

// setupTestServices installs stub services and returns a cleanup that
// restores the unconfigured state.
func setupTestServices() func() {
	retrieval := &stubRetrieval{}
	SetServices(Services{
		Retrieval: retrieval,
		Diagnosis: &stubDiagnosis{report: sampleReport()},
		Admin:     &stubAdmin{stats: driving.StoreStats{Records: 42, Dimension: 3584}},
		Sessions:  &stubSessions{ids: []string{"sess-2", "sess-1"}},
		NewCorpusSource: func(string) (driven.WatchableSource, error) {
			return &stubSource{docs: []domain.RawDocument{{Source: "a.md", Content: "text"}}}, nil
		},
	})
	return func() {
		SetServices(Services{})
	}
}
