package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/text/language"
)

type Translations map[string]string

type Language struct {
	name  string
	found bool
	tr    Translations
}

// TransPool loads <basePath>/<lang>.json files on first use and keeps them.
type TransPool struct {
	basePath  string
	fallback  string
	mu        sync.Mutex
	languages map[string]*Language
}

func NewTransPool(basePath, fallback string) *TransPool {
	return &TransPool{
		basePath:  basePath,
		fallback:  fallback,
		languages: make(map[string]*Language),
	}
}

func NewLanguage(lang string, tr Translations) *Language {
	return &Language{
		name:  lang,
		found: tr != nil,
		tr:    tr,
	}
}

func (tp *TransPool) load(lang string) (Translations, error) {
	if tp.basePath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(tp.basePath, lang+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tr := make(Translations)
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, err
	}
	return tr, nil
}

// Get never fails: a missing or broken file yields a Language that returns
// the text unchanged.
func (tp *TransPool) Get(lang string) *Language {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	l, ok := tp.languages[lang]
	if !ok {
		tr, err := tp.load(lang)
		if err != nil {
			tr = nil
		}
		l = NewLanguage(lang, tr)
		tp.languages[lang] = l
	}
	return l
}

// Negotiate picks the first language from an Accept-Language header that
// has a translation file, else the fallback.
func (tp *TransPool) Negotiate(acceptLanguage string) *Language {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err == nil {
		for _, tag := range tags {
			base, _ := tag.Base()
			if l := tp.Get(base.String()); l.found {
				return l
			}
		}
	}
	return tp.Get(tp.fallback)
}

func (l *Language) Name() string {
	return l.name
}

func (l *Language) Lang(text string) string {
	if l == nil || !l.found {
		// Language was not found, return the string
		return text
	}
	res, ok := l.tr[text]
	if !ok {
		return text
	}
	return res
}
