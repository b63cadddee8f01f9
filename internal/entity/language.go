package entity

import "strings"

// Language is the ISO 639-1 code of the lyrics language of a song.
type Language string

const (
	LanguageUnspecified Language = ""
	LanguageEnglish     Language = "en"
	LanguageChinese     Language = "zh"
	LanguageSpanish     Language = "es"
	LanguageFrench      Language = "fr"
	LanguageGerman      Language = "de"
	LanguageJapanese    Language = "ja"
	LanguageKorean      Language = "ko"
)

var knownLanguages = map[Language]struct{}{
	LanguageEnglish:  {},
	LanguageChinese:  {},
	LanguageSpanish:  {},
	LanguageFrench:   {},
	LanguageGerman:   {},
	LanguageJapanese: {},
	LanguageKorean:   {},
}

// Code returns the trimmed language code.
func (l Language) Code() string {
	return strings.TrimSpace(string(l))
}

// NormalizeLanguage maps unknown or empty codes to English so that
// generation always has a tokenizer to dispatch to.
func NormalizeLanguage(lang Language) Language {
	if _, ok := knownLanguages[lang]; ok {
		return lang
	}
	return LanguageEnglish
}

// ParseLanguage converts user input into a Language. Codes the catalog
// does not know come back as LanguageUnspecified so callers can apply
// their own default.
func ParseLanguage(code string) Language {
	lang := Language(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := knownLanguages[lang]; ok {
		return lang
	}
	return LanguageUnspecified
}
