package i18n

// Key identifies one UI string in the fixed catalog.
type Key string

// Translatable UI strings. These are stable labels sent to the translation
// service as one ordered batch when the active language changes.
const (
	KeyAppTitle              Key = "app.title"
	KeyUploadTitle           Key = "upload.title"
	KeyUploadButton          Key = "upload.button"
	KeyChangePhotoButton     Key = "upload.change"
	KeyCameraButton          Key = "camera.button"
	KeyPreviewEmpty          Key = "preview.empty"
	KeyDetectorTitle         Key = "detector.title"
	KeyDetectedLabel         Key = "detected.label"
	KeyConfidenceLabel       Key = "confidence.label"
	KeyCorrectionLink        Key = "correction.link"
	KeyCorrectionLabel       Key = "correction.label"
	KeyCorrectionPlaceholder Key = "correction.placeholder"
	KeyCorrectionCancel      Key = "correction.cancel"
	KeyDetailsTitle          Key = "details.title"
	KeyTranslateLabel        Key = "translate.label"
	KeySpeechButton          Key = "speech.button"
	KeyResetButton           Key = "reset.button"
)

// Volatile UI strings. Loading and error placeholders are never sent for
// translation: they are exactly what gets shown when translation fails, so
// translating them would recurse into the failing subsystem.
const (
	KeyProcessing         Key = "status.processing"
	KeyDescriptionLoading Key = "description.loading"
	KeyDescriptionError   Key = "description.error"
	KeyErrorTitle         Key = "error.title"
)

// defaults holds the base-language value for every catalog key.
var defaults = map[Key]string{
	KeyAppTitle:              "AS SAATHI - Agricultural Waste Detector",
	KeyUploadTitle:           "Snap or Upload Waste Photo",
	KeyUploadButton:          "Upload Photo",
	KeyChangePhotoButton:     "Change Photo",
	KeyCameraButton:          "Take a Photo",
	KeyPreviewEmpty:          "Image preview will appear here",
	KeyDetectorTitle:         "Waste Detector",
	KeyDetectedLabel:         "Detected Type:",
	KeyConfidenceLabel:       "Confidence:",
	KeyCorrectionLink:        "Not correct? Select manually",
	KeyCorrectionLabel:       "Select Correct Waste Type:",
	KeyCorrectionPlaceholder: "Choose waste type...",
	KeyCorrectionCancel:      "Cancel",
	KeyDetailsTitle:          "Details",
	KeyTranslateLabel:        "Translate Info:",
	KeySpeechButton:          "Read aloud",
	KeyResetButton:           "Reset",

	KeyProcessing:         "Processing...",
	KeyDescriptionLoading: "Fetching description...",
	KeyDescriptionError:   "Description unavailable.",
	KeyErrorTitle:         "Error",
}

// translatableKeys is the catalog's stable batch order. The localization
// workflow relies on this order being identical between the request it
// builds and the overlay it applies.
var translatableKeys = []Key{
	KeyAppTitle,
	KeyUploadTitle,
	KeyUploadButton,
	KeyChangePhotoButton,
	KeyCameraButton,
	KeyPreviewEmpty,
	KeyDetectorTitle,
	KeyDetectedLabel,
	KeyConfidenceLabel,
	KeyCorrectionLink,
	KeyCorrectionLabel,
	KeyCorrectionPlaceholder,
	KeyCorrectionCancel,
	KeyDetailsTitle,
	KeyTranslateLabel,
	KeySpeechButton,
	KeyResetButton,
}

// Strings is a full UI string catalog keyed by Key.
type Strings map[Key]string

// Defaults returns a fresh copy of the base-language catalog.
func Defaults() Strings {
	out := make(Strings, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	return out
}

// Default returns the base-language value for one key.
func Default(k Key) string {
	return defaults[k]
}

// TranslatableKeys returns the ordered keys sent for batch translation.
func TranslatableKeys() []Key {
	out := make([]Key, len(translatableKeys))
	copy(out, translatableKeys)
	return out
}

// TranslatableDefaults returns the base-language values of the translatable
// keys, in batch order.
func TranslatableDefaults() []string {
	out := make([]string, len(translatableKeys))
	for i, k := range translatableKeys {
		out[i] = defaults[k]
	}
	return out
}

// Overlay builds a catalog from the defaults with translated values applied
// to the translatable keys, position for position. Volatile entries keep
// their base-language defaults. Returns false when the slice length does
// not match the batch order, in which case no catalog is produced.
func Overlay(translated []string) (Strings, bool) {
	if len(translated) != len(translatableKeys) {
		return nil, false
	}
	out := Defaults()
	for i, k := range translatableKeys {
		out[k] = translated[i]
	}
	return out, true
}

// IsVolatile reports whether k is excluded from translation batches.
func IsVolatile(k Key) bool {
	switch k {
	case KeyProcessing, KeyDescriptionLoading, KeyDescriptionError, KeyErrorTitle:
		return true
	}
	return false
}
