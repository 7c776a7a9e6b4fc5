package frequency

import (
	"strings"
	"unicode"
)

// Multi-word terms are matched greedily, longest first, within these bounds.
const (
	minTermWords = 2
	maxTermWords = 4
)

// DefaultTerminology lists phrases counted as single terms.
var DefaultTerminology = []string{
	"machine learning", "deep learning", "reinforcement learning",
	"deep reinforcement learning", "transfer learning", "meta learning",
	"few-shot learning", "zero-shot learning", "self-supervised learning",
	"contrastive learning", "representation learning", "federated learning",
	"active learning", "multi-task learning", "online learning",
	"neural network", "neural networks", "graph neural network",
	"graph neural networks", "convolutional neural network",
	"convolutional neural networks", "recurrent neural network",
	"generative adversarial network", "generative adversarial networks",
	"language model", "language models", "large language model",
	"large language models", "diffusion model", "diffusion models",
	"vision transformer", "vision transformers", "attention mechanism",
	"knowledge graph", "knowledge graphs", "computer vision",
	"natural language processing", "question answering", "object detection",
	"semantic segmentation", "instance segmentation", "image classification",
	"image generation", "pose estimation", "super resolution",
	"point cloud", "point clouds", "domain adaptation", "domain generalization",
	"adversarial attack", "adversarial attacks", "adversarial examples",
	"adversarial training", "multi-agent systems", "multi-agent reinforcement learning",
	"bayesian optimization", "gaussian processes", "stochastic gradient descent",
	"markov decision processes", "monte carlo tree search", "combinatorial optimization",
	"time series", "anomaly detection", "optical flow", "depth estimation",
	"visual question answering", "image captioning", "neural architecture search",
	"knowledge distillation", "continual learning", "causal inference",
}

// DefaultStopwords are dropped after terminology matching.
var DefaultStopwords = []string{
	"a", "an", "the", "and", "or", "but", "nor", "of", "for", "in", "on", "at",
	"to", "by", "with", "without", "from", "into", "onto", "via", "over", "under",
	"between", "through", "towards", "toward", "against", "beyond", "within",
	"as", "is", "are", "was", "were", "be", "been", "being", "do", "does", "can",
	"not", "no", "we", "our", "you", "your", "it", "its", "this", "that", "these",
	"those", "their", "his", "her", "how", "what", "when", "where", "which", "who",
	"why", "all", "any", "more", "most", "less", "than", "so", "too", "very",
	"using", "based", "new", "novel", "approach", "approaches", "method", "methods",
	"use", "study", "case", "analysis", "improving",
	"learning-based", "efficient", "effective", "simple", "revisiting", "rethinking",
}

// Tokenizer splits titles into terms.
type Tokenizer struct {
	terminology map[string]struct{}
	stopwords   map[string]struct{}
}

// NewTokenizer builds a Tokenizer. Phrases are cleaned the same way titles
// are, so "Deep  Learning" and "deep learning" are the same entry.
func NewTokenizer(terminology, stopwords []string) *Tokenizer {
	t := &Tokenizer{
		terminology: make(map[string]struct{}, len(terminology)),
		stopwords:   make(map[string]struct{}, len(stopwords)),
	}
	for _, p := range terminology {
		words := strings.Fields(clean(p))
		if len(words) >= minTermWords && len(words) <= maxTermWords {
			t.terminology[strings.Join(words, " ")] = struct{}{}
		}
	}
	for _, w := range stopwords {
		if w = strings.TrimSpace(clean(w)); w != "" {
			t.stopwords[w] = struct{}{}
		}
	}
	return t
}

// DefaultTokenizer uses DefaultTerminology and DefaultStopwords.
func DefaultTokenizer() *Tokenizer {
	return NewTokenizer(DefaultTerminology, DefaultStopwords)
}

// Tokens lowercases title, drops everything but letters, digits, spaces and
// '-', then emits terminology phrases (longest match first) and the
// remaining single words that are not stopwords.
func (t *Tokenizer) Tokens(title string) []string {
	words := strings.Fields(clean(title))
	tokens := make([]string, 0, len(words))

	for i := 0; i < len(words); {
		if phrase, n := t.match(words[i:]); n > 0 {
			tokens = append(tokens, phrase)
			i += n
			continue
		}

		w := words[i]
		i++
		if _, stop := t.stopwords[w]; stop || strings.Trim(w, "-") == "" {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func (t *Tokenizer) match(words []string) (string, int) {
	for n := min(maxTermWords, len(words)); n >= minTermWords; n-- {
		phrase := strings.Join(words[:n], " ")
		if _, ok := t.terminology[phrase]; ok {
			return phrase, n
		}
	}
	return "", 0
}

func clean(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)
}
