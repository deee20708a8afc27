// Package i18n holds the operator-facing messages in French and English.
package i18n

import (
	"golang.org/x/text/language"
)

// Message keys.
const (
	Reset              = "reset"
	ActivateCamera     = "activateCamera"
	CaptureQR          = "captureQr"
	AcquirePos         = "acquirePos"
	ImportImageLabel   = "importImageLabel"
	MoreInfo           = "moreInfo"
	CopyPrompt         = "copyPrompt"
	CreateZip          = "createZip"
	GPSNotAcquired     = "gpsNotAcquired"
	PromptCopied       = "promptCopied"
	GeolocFail         = "geolocFail"
	NoBarcode          = "noBarcode"
	CannotAccessCamera = "cannotAccessCamera"
	NoQRInImage        = "noQrInImage"
	ZipReady           = "zipReady"
	PaidVersion        = "paidVersion"
	ScanHint           = "scanHint"
	InvalidPayload     = "invalidPayload"
	EmptyScan          = "emptyScan"
	MetaPlaceholder    = "metaPlaceholder"
	NoTargets          = "noTargets"
	NoFiche            = "noFiche"
	UnknownTarget      = "unknownTarget"
	TargetOpened       = "targetOpened"
)

var dict = map[language.Tag]map[string]string{
	language.French: {
		Reset:              "Réinitialiser",
		ActivateCamera:     "Activer la caméra",
		CaptureQR:          "Capturer QR Code",
		AcquirePos:         "Acquisition de la position",
		ImportImageLabel:   "Ou importer une image de QR :",
		MoreInfo:           "Informations complémentaires",
		CopyPrompt:         "Copier le prompt",
		CreateZip:          "Créer le ZIP",
		GPSNotAcquired:     "Position non acquise.",
		PromptCopied:       "Prompt copié !",
		GeolocFail:         "Échec géolocalisation : ",
		NoBarcode:          "Lecteur de code indisponible. Collez le contenu du QR code.",
		CannotAccessCamera: "Impossible d'accéder à la caméra.",
		NoQRInImage:        "Aucun QR détecté dans l'image.",
		ZipReady:           "ZIP prêt (prompt + pièces jointes).",
		PaidVersion:        "(version payante)",
		ScanHint:           "Collez le contenu du QR code puis appuyez sur Entrée.",
		InvalidPayload:     "Contenu du QR code invalide.",
		EmptyScan:          "Aucun code détecté.",
		MetaPlaceholder:    "Aucune fiche chargée",
		NoTargets:          "Aucune IA recommandée pour cette fiche.",
		NoFiche:            "Aucune fiche chargée.",
		UnknownTarget:      "IA inconnue ou non recommandée : ",
		TargetOpened:       "Ouverture de ",
	},
	language.English: {
		Reset:              "Reset",
		ActivateCamera:     "Enable camera",
		CaptureQR:          "Scan QR Code",
		AcquirePos:         "Get position",
		ImportImageLabel:   "Or import a QR image:",
		MoreInfo:           "Additional information",
		CopyPrompt:         "Copy prompt",
		CreateZip:          "Create ZIP",
		GPSNotAcquired:     "Position not acquired.",
		PromptCopied:       "Prompt copied!",
		GeolocFail:         "Geolocation failed: ",
		NoBarcode:          "Code reader not available. Paste the QR code content.",
		CannotAccessCamera: "Cannot access camera.",
		NoQRInImage:        "No QR found in the image.",
		ZipReady:           "ZIP ready (prompt + attachments).",
		PaidVersion:        "(paid version)",
		ScanHint:           "Paste the QR code content, then press Enter.",
		InvalidPayload:     "Invalid QR code content.",
		EmptyScan:          "No code found.",
		MetaPlaceholder:    "No fiche loaded",
		NoTargets:          "No AI recommended for this fiche.",
		NoFiche:            "No fiche loaded.",
		UnknownTarget:      "Unknown or not recommended AI: ",
		TargetOpened:       "Opening ",
	},
}

var (
	supported = []language.Tag{language.French, language.English}
	matcher   = language.NewMatcher(supported)
)

// Translator resolves message keys for one language.
type Translator struct {
	tag      language.Tag
	messages map[string]string
}

// New picks the closest supported language for a BCP 47 tag such as "en",
// "en-GB" or "fr-CA". Unknown or malformed tags fall back to French.
func New(tag string) *Translator {
	t, _ := language.Parse(tag)
	_, idx, _ := matcher.Match(t)
	return forIndex(idx)
}

// FromAcceptLanguage picks a language from an Accept-Language header. An
// empty or unusable header returns fallback.
func FromAcceptLanguage(header string, fallback *Translator) *Translator {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return forIndex(idx)
}

func forIndex(idx int) *Translator {
	chosen := supported[idx]
	return &Translator{tag: chosen, messages: dict[chosen]}
}

// Lang is the base language of the translator ("fr" or "en").
func (t *Translator) Lang() string {
	base, _ := t.tag.Base()
	return base.String()
}

// T returns the message for key, or key itself when there is none.
func (t *Translator) T(key string) string {
	if msg, ok := t.messages[key]; ok {
		return msg
	}
	return key
}

// Keys lists every known message key.
func Keys() []string {
	keys := make([]string, 0, len(dict[language.French]))
	for k := range dict[language.French] {
		keys = append(keys, k)
	}
	return keys
}
