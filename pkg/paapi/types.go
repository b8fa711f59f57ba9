// Модели данных

package paapi

import (
	"encoding/json"
	"fmt"
)

// Record — плоская запись по одному Item из ответа ItemSearch.
type Record struct {
	ASIN            string // Идентификатор товара
	Title           string // Название
	LowestUsedPrice string // Форматированная цена, например "￥ 12,800"
	SmallImage      *Image // nil → "N/A" в JSON
}

// Image — вариант картинки SmallImage.
type Image struct {
	URL    string `json:"URL"`
	Height string `json:"Height"`
	Width  string `json:"Width"`
}

// MarshalJSON выводит отсутствующую картинку как "N/A", а не null.
func (r Record) MarshalJSON() ([]byte, error) {
	var image any = NotAvailable
	if r.SmallImage != nil {
		image = r.SmallImage
	}

	return json.Marshal(struct {
		ASIN            string `json:"ASIN"`
		Title           string `json:"Title"`
		LowestUsedPrice string `json:"LowestUsedPrice"`
		SmallImage      any    `json:"SmallImage"`
	}{
		ASIN:            r.ASIN,
		Title:           r.Title,
		LowestUsedPrice: r.LowestUsedPrice,
		SmallImage:      image,
	})
}

// APIError — ошибка, которую вернул сервис (Error/Code + Error/Message).
type APIError struct {
	StatusCode int    // HTTP статус, 0 если ошибка пришла в теле 200 ответа
	Code       string // Например "AWS.InvalidParameterValue"
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("paapi error: status %d, body: %s", e.StatusCode, e.Message)
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("paapi error: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("paapi error: status %d, %s: %s", e.StatusCode, e.Code, e.Message)
}

// Коды ошибок сервиса, которые обрабатываются особо.
const (
	CodeNoExactMatches        = "AWS.ECommerceService.NoExactMatches"
	CodeSignatureDoesNotMatch = "SignatureDoesNotMatch"
	CodeInvalidClientTokenID  = "InvalidClientTokenId"
	CodeMissingClientTokenID  = "MissingClientTokenId"
	CodeRequestThrottled      = "RequestThrottled"
)

// SearchResult — результат одного ItemSearch.
type SearchResult struct {
	Records []Record
	URL     string // Подписанный URL запроса
	Body    []byte // Сырой XML ответа
}
