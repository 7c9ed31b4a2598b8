// Package i18n holds the fixed language registry and the UI string catalog.
// The base language is the system-of-record language: descriptions and
// default UI strings originate in it, and every re-translation starts from
// the base-language original rather than from an earlier translation.
package i18n

import "golang.org/x/text/language"

// BaseLanguage is the code descriptions and default UI strings originate in.
const BaseLanguage = "en"

// Language describes one supported language.
type Language struct {
	// Code is the ISO 639-1 code sent to the translation service.
	Code string `json:"code"`

	// Name is the English display name (never translated).
	Name string `json:"name"`

	// VoiceLocale is the BCP-47 tag handed to speech synthesis.
	VoiceLocale string `json:"voiceLocale"`
}

// Languages lists the supported languages in selector order.
// The base language is always first.
var Languages = []Language{
	{Code: "en", Name: "English", VoiceLocale: "en-IN"},
	{Code: "hi", Name: "Hindi", VoiceLocale: "hi-IN"},
	{Code: "mr", Name: "Marathi", VoiceLocale: "mr-IN"},
	{Code: "ta", Name: "Tamil", VoiceLocale: "ta-IN"},
	{Code: "te", Name: "Telugu", VoiceLocale: "te-IN"},
	{Code: "bn", Name: "Bengali", VoiceLocale: "bn-IN"},
	{Code: "kn", Name: "Kannada", VoiceLocale: "kn-IN"},
}

func init() {
	// Registry entries must be valid BCP-47; fail loudly at startup if not.
	for _, l := range Languages {
		language.MustParse(l.Code)
		language.MustParse(l.VoiceLocale)
	}
}

// IsSupported reports whether code is one of the supported language codes.
func IsSupported(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// Lookup returns the registry entry for code.
func Lookup(code string) (Language, bool) {
	for _, l := range Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// VoiceLocale returns the speech voice tag for code, falling back to the
// base language's voice when the code is unknown.
func VoiceLocale(code string) string {
	if l, ok := Lookup(code); ok {
		return l.VoiceLocale
	}
	base, _ := Lookup(BaseLanguage)
	return base.VoiceLocale
}
