package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqar-tech/realestate-ai-platform/internal/store"
)

type fakeLLM struct {
	lastReq LLMRequest
	reply   string
	err     error
	calls   int
}

func (f *fakeLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return LLMResponse{}, f.err
	}
	return LLMResponse{Text: f.reply}, nil
}

func TestGenerateRecordsHistory(t *testing.T) {
	llm := &fakeLLM{reply: "أهلاً بك"}
	svc := NewService(llm, "gemini-2.5-flash", NewHistory(10, 100), nil)

	reply, err := svc.Generate(context.Background(), "201001112222", "مرحبا", "كن ودوداً", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "أهلاً بك", reply)

	msgs := svc.History().Messages("201001112222")
	require.Len(t, msgs, 2)
	assert.Equal(t, ChatRoleUser, msgs[0].Role)
	assert.Equal(t, "مرحبا", msgs[0].Content)
	assert.Equal(t, ChatRoleAssistant, msgs[1].Role)

	// Second turn carries the first exchange as context.
	_, err = svc.Generate(context.Background(), "201001112222", "تمام", "", nil, nil)
	require.NoError(t, err)
	assert.Len(t, llm.lastReq.Messages, 3)
}

func TestGenerateEmptyReplyFallsBack(t *testing.T) {
	llm := &fakeLLM{reply: "   "}
	svc := NewService(llm, "m", nil, nil)

	reply, err := svc.Generate(context.Background(), "r", "سؤال", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, emptyReplyFallback, reply)
}

func TestGenerateErrorClassification(t *testing.T) {
	tests := []struct {
		err  error
		kind ErrorKind
	}{
		{errors.New("googleapi: API_KEY_INVALID"), ErrorKindAuth},
		{errors.New("status 429: rate limit reached"), ErrorKindRateLimit},
		{errors.New("QUOTA_EXCEEDED for model"), ErrorKindRateLimit},
		{errors.New("blocked: SAFETY"), ErrorKindSafety},
		{errors.New("connection reset"), ErrorKindGeneric},
	}
	for _, tt := range tests {
		llm := &fakeLLM{err: tt.err}
		svc := NewService(llm, "m", nil, nil)
		_, err := svc.Generate(context.Background(), "r", "سؤال", "", nil, nil)
		require.Error(t, err)
		assert.Equal(t, tt.kind, KindOf(err), "error %v", tt.err)
		// Failed generations must not pollute the history.
		assert.Empty(t, svc.History().Messages("r"))
	}
}

func TestSystemContextGating(t *testing.T) {
	listings := []*store.Listing{
		{Title: "شقة النيل", Type: "شقة", Price: 2000000, Status: store.StatusAvailable,
			Location: store.Location{City: "القاهرة", District: "الزمالك"}},
	}
	business := &store.BusinessProfile{
		Name:         "عقارات المستقبل",
		WorkingHours: map[string]string{"sunday": "9-5", "friday": "مغلق"},
	}

	llm := &fakeLLM{reply: "رد"}
	svc := NewService(llm, "m", nil, nil)

	// Greeting: business block only, no listings.
	_, err := svc.Generate(context.Background(), "r", "مرحبا", "تعليمات", business, listings)
	require.NoError(t, err)
	joined := strings.Join(llm.lastReq.System, "\n")
	assert.Contains(t, joined, "التعليمات: تعليمات")
	assert.Contains(t, joined, "عقارات المستقبل")
	assert.Contains(t, joined, "الأحد: 9-5")
	assert.NotContains(t, joined, "العقارات المتاحة")

	// Price question: listings enter the prompt.
	_, err = svc.Generate(context.Background(), "r", "عاوز اعرف سعر شقة", "", business, listings)
	require.NoError(t, err)
	joined = strings.Join(llm.lastReq.System, "\n")
	assert.Contains(t, joined, "العقارات المتاحة")
	assert.Contains(t, joined, "شقة النيل")
	assert.Contains(t, joined, "القاهرة, الزمالك")
}

func TestListingContextLimit(t *testing.T) {
	var listings []*store.Listing
	for i := 0; i < 15; i++ {
		listings = append(listings, &store.Listing{Title: fmt.Sprintf("عقار رقم %d", i)})
	}
	block := listingsBlock(listings)
	assert.Contains(t, block, "عقار رقم 9")
	assert.NotContains(t, block, "عقار رقم 10")
}

func TestHistoryTrimsToCap(t *testing.T) {
	h := NewHistory(2, 10)
	for i := 0; i < 5; i++ {
		h.Append("r", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	msgs := h.Messages("r")
	require.Len(t, msgs, 4)
	assert.Equal(t, "q3", msgs[0].Content)
	assert.Equal(t, "a4", msgs[3].Content)
}

func TestHistoryEvictsLRU(t *testing.T) {
	h := NewHistory(10, 2)
	h.Append("a", "q", "r")
	h.Append("b", "q", "r")
	h.Append("a", "q2", "r2") // refresh a
	h.Append("c", "q", "r")   // evicts b

	assert.NotEmpty(t, h.Messages("a"))
	assert.Empty(t, h.Messages("b"))
	assert.NotEmpty(t, h.Messages("c"))
	assert.Equal(t, 2, h.ActiveConversations())
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(10, 10)
	h.Append("a", "q", "r")
	h.Append("b", "q", "r")

	h.Clear("a")
	assert.Empty(t, h.Messages("a"))
	assert.Equal(t, 1, h.ActiveConversations())

	h.ClearAll()
	assert.Zero(t, h.ActiveConversations())
}

func TestStatus(t *testing.T) {
	svc := NewService(&fakeLLM{reply: "x"}, "gemini-2.5-flash", NewHistory(10, 10), nil)
	_, err := svc.Generate(context.Background(), "r", "مرحبا", "", nil, nil)
	require.NoError(t, err)

	st := svc.Status()
	assert.True(t, st.Configured)
	assert.Equal(t, "gemini-2.5-flash", st.Model)
	assert.Equal(t, 1, st.ActiveConversations)
}
