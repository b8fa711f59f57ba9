package paapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// NotAvailable — значение поля, которого нет в ответе.
const NotAvailable = "N/A"

// ErrMalformedXML — тело ответа не является корректным XML документом.
var ErrMalformedXML = errors.New("malformed xml response")

// Пути к полям относительно элемента Item.
const (
	pathASIN        = "./ASIN"
	pathTitle       = "./ItemAttributes/Title"
	pathTitleDirect = "./Title"
	pathUsedPrice   = "./OfferSummary/LowestUsedPrice/FormattedPrice"
	pathSmallImage  = "./SmallImage"
)

// parseDocument разбирает тело ответа. Пустой документ без корня — тоже ошибка.
func parseDocument(body []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedXML)
	}
	return doc, nil
}

// ExtractRecords извлекает по одной записи на каждый элемент Item в порядке документа.
//
// Отсутствующие поля получают NotAvailable, каждое поле ищется независимо.
// Некорректный XML прерывает разбор целиком: частичных результатов нет.
func ExtractRecords(body []byte) ([]Record, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	items := doc.FindElements("//Item")
	records := make([]Record, 0, len(items))
	for _, item := range items {
		records = append(records, extractRecord(item))
	}
	return records, nil
}

func extractRecord(item *etree.Element) Record {
	return Record{
		ASIN:            lookupText(item, pathASIN),
		Title:           lookupText(item, pathTitle, pathTitleDirect),
		LowestUsedPrice: lookupText(item, pathUsedPrice),
		SmallImage:      lookupImage(item, pathSmallImage),
	}
}

// lookupText возвращает текст первого найденного по paths элемента как есть или NotAvailable.
// Текст из одних пробелов считается отсутствующим.
func lookupText(el *etree.Element, paths ...string) string {
	for _, path := range paths {
		child := el.FindElement(path)
		if child == nil {
			continue
		}
		if text := child.Text(); strings.TrimSpace(text) != "" {
			return text
		}
	}
	return NotAvailable
}

// lookupImage возвращает описание картинки или nil, если узла нет.
func lookupImage(el *etree.Element, path string) *Image {
	node := el.FindElement(path)
	if node == nil {
		return nil
	}
	return &Image{
		URL:    lookupText(node, "./URL"),
		Height: lookupText(node, "./Height"),
		Width:  lookupText(node, "./Width"),
	}
}

// ExtractErrors собирает ошибки сервиса (Error/Code, Error/Message) из тела ответа.
//
// Находит как ItemSearchErrorResponse (ошибки подписи), так и Items/Request/Errors.
func ExtractErrors(body []byte) ([]APIError, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	var apiErrors []APIError
	for _, el := range doc.FindElements("//Error") {
		code := lookupText(el, "./Code")
		if code == NotAvailable {
			continue
		}
		message := lookupText(el, "./Message")
		if message == NotAvailable {
			message = ""
		}
		apiErrors = append(apiErrors, APIError{Code: strings.TrimSpace(code), Message: strings.TrimSpace(message)})
	}
	return apiErrors, nil
}

// NormalizeXML переформатирует документ с отступом в 2 пробела.
//
// Нужен только для человекочитаемого дампа ответа; на извлечение полей не влияет.
func NormalizeXML(body []byte) ([]byte, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	doc.Indent(2)
	return doc.WriteToBytes()
}

// MarshalRecords сериализует записи в JSON массив. Пустой результат — "[]", а не "null".
func MarshalRecords(records []Record, indent bool) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	if indent {
		return json.MarshalIndent(records, "", "  ")
	}
	return json.Marshal(records)
}
