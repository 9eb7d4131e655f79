package chat

import "golang.org/x/text/language"

// placeholderStrings are the user-visible fallbacks injected when a
// turn completes without usable content.
type placeholderStrings struct {
	Unavailable string
	FetchFailed string
}

var placeholderTags = []language.Tag{
	language.English, // first entry is the fallback
	language.SimplifiedChinese,
	language.TraditionalChinese,
	language.Spanish,
	language.French,
	language.German,
	language.Japanese,
	language.Korean,
	language.Russian,
	language.Portuguese,
}

var placeholderMatcher = language.NewMatcher(placeholderTags)

var placeholderCatalog = map[language.Tag]placeholderStrings{
	language.English: {
		Unavailable: "Current Model/Function is Unavailable",
		FetchFailed: "Failed to fetch valid response",
	},
	language.SimplifiedChinese: {
		Unavailable: "当前模型/功能不可用",
		FetchFailed: "未能获取有效回复",
	},
	language.TraditionalChinese: {
		Unavailable: "目前模型/功能不可用",
		FetchFailed: "未能取得有效回應",
	},
	language.Spanish: {
		Unavailable: "El modelo/función actual no está disponible",
		FetchFailed: "No se pudo obtener una respuesta válida",
	},
	language.French: {
		Unavailable: "Le modèle/la fonction actuel est indisponible",
		FetchFailed: "Impossible d'obtenir une réponse valide",
	},
	language.German: {
		Unavailable: "Aktuelles Modell/aktuelle Funktion nicht verfügbar",
		FetchFailed: "Keine gültige Antwort erhalten",
	},
	language.Japanese: {
		Unavailable: "現在のモデル/機能は利用できません",
		FetchFailed: "有効な応答を取得できませんでした",
	},
	language.Korean: {
		Unavailable: "현재 모델/기능을 사용할 수 없습니다",
		FetchFailed: "유효한 응답을 가져오지 못했습니다",
	},
	language.Russian: {
		Unavailable: "Текущая модель/функция недоступна",
		FetchFailed: "Не удалось получить корректный ответ",
	},
	language.Portuguese: {
		Unavailable: "O modelo/função atual está indisponível",
		FetchFailed: "Falha ao obter uma resposta válida",
	},
}

// placeholdersFor resolves the placeholder strings for a BCP-47 tag,
// falling back to English for unknown or empty tags.
func placeholdersFor(lang string) placeholderStrings {
	if lang == "" {
		return placeholderCatalog[language.English]
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return placeholderCatalog[language.English]
	}
	_, idx, _ := placeholderMatcher.Match(tag)
	return placeholderCatalog[placeholderTags[idx]]
}
