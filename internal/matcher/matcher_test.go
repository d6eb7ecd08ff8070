package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triestelab/whatsapp-agent/internal/models"
	"github.com/triestelab/whatsapp-agent/internal/storage"
	"go.uber.org/zap"
)

type fakeAssistant struct {
	reply string
	calls int
}

func (f *fakeAssistant) Reply(ctx context.Context, message, customerContext string) string {
	f.calls++
	return f.reply
}

func seedFAQ(t *testing.T, store *storage.MemoryStorage, keywords, answer, sector string, priority int) *models.FAQ {
	t.Helper()
	faq := &models.FAQ{
		Keywords: keywords,
		Question: answer,
		Answer:   answer,
		Sector:   sector,
		Priority: priority,
	}
	require.NoError(t, store.CreateFAQ(context.Background(), faq))
	return faq
}

func TestMatch_VerbatimKeywordScores100(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedFAQ(t, store, "orari,apertura,quando", "Siamo aperti 9-18", "", 10)

	m := NewMatcher(store)
	faq, score, err := m.Match(context.Background(), "Quali sono gli ORARI di apertura?", models.SectorGeneric)
	require.NoError(t, err)
	require.NotNil(t, faq)
	assert.Equal(t, 100, score)
	assert.Equal(t, "Siamo aperti 9-18", faq.Answer)
}

func TestMatch_EmptyKnowledgeBase(t *testing.T) {
	store := storage.NewMemoryStorage()

	m := NewMatcher(store)
	faq, score, err := m.Match(context.Background(), "ciao", models.SectorGeneric)
	require.NoError(t, err)
	assert.Nil(t, faq)
	assert.Equal(t, 0, score)
}

func TestMatch_EmptyKeywordsSkipped(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedFAQ(t, store, " , ,", "never", "", 10)
	seedFAQ(t, store, "prezzi", "Listino prezzi", "", 5)

	m := NewMatcher(store)
	faq, score, err := m.Match(context.Background(), "quali sono i prezzi?", models.SectorGeneric)
	require.NoError(t, err)
	require.NotNil(t, faq)
	assert.Equal(t, 100, score)
	assert.Equal(t, "Listino prezzi", faq.Answer)
}

func TestMatch_SectorEntriesExcludedNotDownscored(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedFAQ(t, store, "prenotare", "Prenota il campo così", models.SectorSport, 10)

	m := NewMatcher(store)

	// Visible to sport customers.
	faq, score, err := m.Match(context.Background(), "vorrei prenotare", models.SectorSport)
	require.NoError(t, err)
	require.NotNil(t, faq)
	assert.Equal(t, 100, score)

	// Excluded entirely for finance customers, verbatim match or not.
	faq, score, err = m.Match(context.Background(), "vorrei prenotare", models.SectorFinance)
	require.NoError(t, err)
	assert.Nil(t, faq)
	assert.Equal(t, 0, score)
}

func TestMatch_EmptySectorFilterMatchesEveryone(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedFAQ(t, store, "contatti", "Ecco i contatti", "", 5)

	m := NewMatcher(store)
	for _, sector := range []string{models.SectorFinance, models.SectorSport, models.SectorCoworking, models.SectorGeneric} {
		faq, score, err := m.Match(context.Background(), "contatti per favore", sector)
		require.NoError(t, err)
		require.NotNil(t, faq, "sector %s", sector)
		assert.Equal(t, 100, score, "sector %s", sector)
	}
}

func TestMatch_TieBreakFirstInPriorityOrderWins(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedFAQ(t, store, "orari", "low priority answer", "", 2)
	high := seedFAQ(t, store, "orari", "high priority answer", "", 9)

	m := NewMatcher(store)
	faq, score, err := m.Match(context.Background(), "orari", models.SectorGeneric)
	require.NoError(t, err)
	require.NotNil(t, faq)
	assert.Equal(t, 100, score)
	assert.Equal(t, high.ID, faq.ID, "first entry reaching the max score must win")
}

func TestMatch_TieBreakSamePriorityFirstCreatedWins(t *testing.T) {
	store := storage.NewMemoryStorage()
	first := seedFAQ(t, store, "orari", "first answer", "", 5)
	seedFAQ(t, store, "orari", "second answer", "", 5)

	m := NewMatcher(store)
	faq, _, err := m.Match(context.Background(), "orari", models.SectorGeneric)
	require.NoError(t, err)
	require.NotNil(t, faq)
	assert.Equal(t, first.ID, faq.ID)
}

func TestRespond_AboveThresholdUsesFAQ(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedFAQ(t, store, "orari,apertura,quando,disponibilità,aperto", "Orari: 9-18", "", 10)

	assistant := &fakeAssistant{reply: "ai reply"}
	r := NewResponder(store, assistant, 70, zap.NewNop())

	customer := &models.Customer{Name: "Mario", Sector: models.SectorGeneric}
	reply, responseType, err := r.Respond(context.Background(), "A che ora siete aperti?", customer)
	require.NoError(t, err)
	assert.Equal(t, "Orari: 9-18", reply)
	assert.Equal(t, models.ResponseTypeFAQ, responseType)
	assert.Zero(t, assistant.calls)
}

func TestRespond_NoMatchFallsBackToAssistant(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedFAQ(t, store, "orari,apertura", "Orari: 9-18", "", 10)

	assistant := &fakeAssistant{reply: "ai reply"}
	r := NewResponder(store, assistant, 70, zap.NewNop())

	customer := &models.Customer{Name: "Mario", Sector: models.SectorGeneric}
	reply, responseType, err := r.Respond(context.Background(), "Mi consigliate un piano di allenamento?", customer)
	require.NoError(t, err)
	assert.Equal(t, "ai reply", reply)
	assert.Equal(t, models.ResponseTypePerplexity, responseType)
	assert.Equal(t, 1, assistant.calls)
}

func TestRespond_ScoreEqualToThresholdIsNotAMatch(t *testing.T) {
	store := storage.NewMemoryStorage()
	// "abcdefgxyz" scores exactly 70 against this keyword.
	seedFAQ(t, store, "abcdefghij", "template answer", "", 10)

	assistant := &fakeAssistant{reply: "ai reply"}
	r := NewResponder(store, assistant, 70, zap.NewNop())

	customer := &models.Customer{Name: "Mario", Sector: models.SectorGeneric}
	reply, responseType, err := r.Respond(context.Background(), "abcdefgxyz", customer)
	require.NoError(t, err)
	assert.Equal(t, "ai reply", reply, "a score equal to the threshold must not match")
	assert.Equal(t, models.ResponseTypePerplexity, responseType)
}
