package matcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/triestelab/whatsapp-agent/internal/ai"
	"github.com/triestelab/whatsapp-agent/internal/models"
	"github.com/triestelab/whatsapp-agent/internal/storage"
	"go.uber.org/zap"
)

// Matcher scores inbound messages against the knowledge base.
type Matcher struct {
	storage storage.Storage
}

func NewMatcher(store storage.Storage) *Matcher {
	return &Matcher{storage: store}
}

// Match returns the FAQ entry whose keywords best match text, with the
// best score seen. Candidates are scoped to the customer's sector (an
// empty entry sector matches everyone) and scanned in priority order;
// only a strictly higher score replaces the current best, so the first
// entry to reach the maximum wins ties. A nil FAQ with score 0 means the
// knowledge base had nothing to offer.
func (m *Matcher) Match(ctx context.Context, text, sector string) (*models.FAQ, int, error) {
	faqs, err := m.storage.ListFAQsBySector(ctx, sector)
	if err != nil {
		return nil, 0, fmt.Errorf("error loading faq candidates: %w", err)
	}

	lowered := strings.ToLower(text)

	var best *models.FAQ
	bestScore := 0
	for _, faq := range faqs {
		for _, keyword := range faq.KeywordTokens() {
			score := PartialRatio(lowered, keyword)
			if score > bestScore {
				bestScore = score
				best = faq
			}
		}
	}

	return best, bestScore, nil
}

// Responder picks the reply for an inbound message: a knowledge-base
// answer when the match clears the threshold, the generative assistant
// otherwise.
type Responder struct {
	matcher   *Matcher
	assistant ai.Assistant
	threshold int
	logger    *zap.Logger
}

func NewResponder(store storage.Storage, assistant ai.Assistant, threshold int, logger *zap.Logger) *Responder {
	return &Responder{
		matcher:   NewMatcher(store),
		assistant: assistant,
		threshold: threshold,
		logger:    logger,
	}
}

// Respond returns the reply text and its response type. Only a score
// strictly above the threshold takes the FAQ path; a score equal to the
// threshold falls through to the assistant.
func (r *Responder) Respond(ctx context.Context, text string, customer *models.Customer) (string, string, error) {
	faq, score, err := r.matcher.Match(ctx, text, customer.Sector)
	if err != nil {
		return "", "", err
	}

	if faq != nil && score > r.threshold {
		r.logger.Info("FAQ match",
			zap.Int64("faq_id", faq.ID),
			zap.Int("score", score),
			zap.String("question", faq.Question))
		return faq.Answer, models.ResponseTypeFAQ, nil
	}

	r.logger.Info("No FAQ above threshold, using assistant",
		zap.Int("best_score", score),
		zap.Int("threshold", r.threshold))

	customerContext := fmt.Sprintf("Cliente: %s, Settore: %s", customer.Name, customer.Sector)
	reply := r.assistant.Reply(ctx, text, customerContext)
	return reply, models.ResponseTypePerplexity, nil
}
