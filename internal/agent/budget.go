package agent

import (
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// charsPerTokenEstimate is the fallback used when no encoder is
	// available (e.g. offline: tiktoken fetches its BPE ranks lazily).
	charsPerTokenEstimate = 4

	trimmedHistoryNotice = "[Earlier messages trimmed to fit the prompt budget]"
)

// promptBudget keeps assembled prompts under a token ceiling by trimming
// the oldest formatted-memory blocks. The raw query and the stage framing
// are never trimmed.
type promptBudget struct {
	enc       *tiktoken.Tiktoken
	maxTokens int
}

// newPromptBudget builds a budget with a cl100k_base encoder when one can
// be loaded, and a chars/4 estimate otherwise. maxTokens <= 0 disables
// trimming.
func newPromptBudget(maxTokens int) *promptBudget {
	b := &promptBudget{maxTokens: maxTokens}
	if maxTokens <= 0 {
		return b
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.Debug("tiktoken encoder unavailable, using char estimate", "error", err)
		return b
	}
	b.enc = enc
	return b
}

func (b *promptBudget) countTokens(s string) int {
	if b.enc != nil {
		return len(b.enc.Encode(s, nil, nil))
	}
	return len(s) / charsPerTokenEstimate
}

// fitMemory returns memoryCtx trimmed so that it plus the fixed prompt
// parts stay within the budget. Blocks are dropped oldest-first; when
// nothing fits, only the trim notice remains.
func (b *promptBudget) fitMemory(memoryCtx string, fixed ...string) string {
	if b.maxTokens <= 0 || memoryCtx == "" {
		return memoryCtx
	}

	used := 0
	for _, part := range fixed {
		used += b.countTokens(part)
	}
	remaining := b.maxTokens - used
	if remaining <= 0 {
		return trimmedHistoryNotice
	}
	if b.countTokens(memoryCtx) <= remaining {
		return memoryCtx
	}

	blocks := strings.Split(memoryCtx, "\n\n")
	noticeTokens := b.countTokens(trimmedHistoryNotice)
	for start := 1; start < len(blocks); start++ {
		candidate := strings.Join(blocks[start:], "\n\n")
		if noticeTokens+b.countTokens(candidate) <= remaining {
			return trimmedHistoryNotice + "\n\n" + candidate
		}
	}
	return trimmedHistoryNotice
}
