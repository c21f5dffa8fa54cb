package nlp

import "context"

// KeywordClassifier maps words to intents with a static table. It backs the
// offline mode and needs no network.
type KeywordClassifier struct {
	byWord map[string]string
}

// NewKeywordClassifier takes intent -> keywords. The intent name itself also
// counts as a keyword.
func NewKeywordClassifier(keywords map[string][]string) *KeywordClassifier {
	byWord := make(map[string]string)
	for intent, words := range keywords {
		byWord[Fold(intent)] = intent
		for _, w := range words {
			if _, taken := byWord[Fold(w)]; !taken {
				byWord[Fold(w)] = intent
			}
		}
	}
	return &KeywordClassifier{byWord: byWord}
}

func (k *KeywordClassifier) Classify(_ context.Context, text string) (string, error) {
	for _, tok := range tokens(text) {
		if intent, ok := k.byWord[Fold(tok)]; ok {
			return intent, nil
		}
	}
	return UnknownIntent, nil
}
