package chunker

import (
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// TokenCounter estimates how many tokens a string costs. The chunker uses
// one to decide chunk and overlap boundaries.
type TokenCounter interface {
	Count(text string) int
}

// charEstimateCounter is the conservative chars/3 fallback used when no BPE
// vocabulary is configured.
type charEstimateCounter struct{}

func (charEstimateCounter) Count(text string) int {
	return len([]rune(text)) / 3
}

// bpeCounter delegates counting to a loaded Hugging-Face-style tokenizer
// vocabulary, matching real model tokenization far more closely than the
// chars/3 estimate.
type bpeCounter struct {
	tk *tokenizer.Tokenizer
}

func (b *bpeCounter) Count(text string) int {
	en, err := b.tk.EncodeSingle(tokenizer.NewInputSequence(text), true)
	if err != nil {
		return charEstimateCounter{}.Count(text)
	}
	return len(en.Tokens)
}

// LoadTokenCounter loads a BPE vocabulary file (tokenizer.json) and returns
// a TokenCounter backed by it. When vocabPath is empty, or the file cannot
// be loaded, it returns the chars/3 fallback counter instead of failing —
// token counting is best-effort throughout this package.
func LoadTokenCounter(vocabPath string) TokenCounter {
	if vocabPath == "" {
		return charEstimateCounter{}
	}
	tk, err := pretrained.FromFile(vocabPath)
	if err != nil {
		return charEstimateCounter{}
	}
	return &bpeCounter{tk: tk}
}
