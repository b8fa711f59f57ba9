// Package paapi — клиент Amazon Product Advertising API (AWSECommerceService, XML).
//
// Поддерживается одна операция — ItemSearch:
//   - Signer собирает и подписывает URL (Signature Version 2, HMAC-SHA256)
//   - ExtractRecords превращает XML ответ в плоские записи Record
//   - Client связывает их одним синхронным GET запросом
//
// Повторов, rate limiting и кеширования нет: один вызов — один запрос.
package paapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ilkoid/paapi-search/pkg/config"
)

// maxErrorBody — сколько байт тела ответа попадает в текст ошибки.
const maxErrorBody = 512

// ErrorType представляет тип ошибки при работе с API.
type ErrorType int

const (
	ErrUnknown ErrorType = iota
	ErrAuthFailed
	ErrTimeout
	ErrNetwork
	ErrRateLimit
	ErrMalformedResponse
)

// String возвращает строковое представление типа ошибки.
func (e ErrorType) String() string {
	switch e {
	case ErrAuthFailed:
		return "authentication_failed"
	case ErrTimeout:
		return "timeout"
	case ErrNetwork:
		return "network_error"
	case ErrRateLimit:
		return "rate_limit"
	case ErrMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// HumanMessage возвращает человекочитаемое сообщение для типа ошибки.
func (e ErrorType) HumanMessage() string {
	switch e {
	case ErrAuthFailed:
		return "Подпись или ключи отклонены. Проверьте access_key_id, secret_key и associate_tag."
	case ErrTimeout:
		return "Превышено время ожидания ответа от Product Advertising API."
	case ErrNetwork:
		return "Сервер API недоступен. Проверьте подключение к интернету и хост локали."
	case ErrRateLimit:
		return "Запрос отклонён лимитом сервиса. Повторите позже."
	case ErrMalformedResponse:
		return "Сервис вернул некорректный XML."
	default:
		return "Неизвестная ошибка при обращении к Product Advertising API."
	}
}

// HTTPClient интерфейс для выполнения HTTP запросов.
//
// Позволяет подменять транспорт в тестах. Стандартный *http.Client реализует этот интерфейс.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client — клиент ItemSearch для одного маркетплейса.
type Client struct {
	signer     *Signer
	groups     []string
	httpClient HTTPClient
}

// New создает клиент для японского маркетплейса с настройками по умолчанию.
//
// Рекомендуется использовать NewFromConfig для конфигурируемого клиента.
func New(creds Credentials) (*Client, error) {
	signer, err := NewSigner(creds, DefaultHost, DefaultPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		signer:     signer,
		groups:     DefaultResponseGroups,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// NewFromConfig создает клиент из конфигурации.
//
// Параметры:
//   - creds: секция credentials (все три ключа обязательны)
//   - cfg: секция api; нулевые поля заполняются через GetDefaults()
func NewFromConfig(creds config.CredentialsConfig, cfg config.PAAPIConfig) (*Client, error) {
	cfg = cfg.GetDefaults()

	host, err := cfg.ResolveHost()
	if err != nil {
		return nil, fmt.Errorf("invalid api config: %w", err)
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid api.timeout format: %w", err)
	}

	signer, err := NewSigner(Credentials{
		AccessKeyID:  creds.AccessKeyID,
		SecretKey:    creds.SecretKey,
		AssociateTag: creds.AssociateTag,
	}, host, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	return &Client{
		signer:     signer,
		groups:     cfg.ResponseGroups,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SetHTTPClient подменяет транспорт (например, на fake в тестах).
func (c *Client) SetHTTPClient(h HTTPClient) {
	c.httpClient = h
}

// Signer возвращает подписчика клиента.
func (c *Client) Signer() *Signer {
	return c.signer
}

// SignSearch собирает параметры ItemSearch и подписывает их.
func (c *Client) SignSearch(keyword, category string) (SignedRequest, error) {
	params, err := BuildItemSearchParams(keyword, category, c.groups)
	if err != nil {
		return SignedRequest{}, err
	}
	return c.signer.Sign(params), nil
}

// BuildSearchURL возвращает подписанный URL запроса ItemSearch.
//
// Пустая category означает поиск без SearchIndex.
func (c *Client) BuildSearchURL(keyword, category string) (string, error) {
	signed, err := c.SignSearch(keyword, category)
	if err != nil {
		return "", err
	}
	return signed.URL, nil
}

// Search выполняет ItemSearch и возвращает извлечённые записи.
//
// Ошибки транспорта и некорректный XML прерывают вызов целиком.
// Ответ без Item с кодом NoExactMatches — пустой результат, не ошибка;
// любой другой код ошибки сервиса возвращается как *APIError.
func (c *Client) Search(ctx context.Context, keyword, category string) (*SearchResult, error) {
	signed, err := c.SignSearch(keyword, category)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, signed.URL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, body)
	}

	records, err := ExtractRecords(body)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		if apiErr := firstServiceError(body); apiErr != nil {
			return nil, apiErr
		}
	}

	return &SearchResult{
		Records: records,
		URL:     signed.URL,
		Body:    body,
	}, nil
}

// statusError строит ошибку для не-200 ответа, по возможности из XML тела.
func statusError(status int, body []byte) error {
	if apiErrors, err := ExtractErrors(body); err == nil && len(apiErrors) > 0 {
		apiErr := apiErrors[0]
		apiErr.StatusCode = status
		return &apiErr
	}

	return &APIError{StatusCode: status, Message: truncateBody(body, maxErrorBody)}
}

// truncateBody обрезает тело до limit байт, не разрывая UTF-8 символ.
func truncateBody(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]) + "..."
}

// firstServiceError возвращает первую ошибку сервиса, кроме NoExactMatches.
func firstServiceError(body []byte) *APIError {
	apiErrors, err := ExtractErrors(body)
	if err != nil {
		return nil
	}
	for _, apiErr := range apiErrors {
		if apiErr.Code == CodeNoExactMatches {
			continue
		}
		found := apiErr
		return &found
	}
	return nil
}

// ClassifyError классифицирует ошибку по типу для лучшей диагностики.
//
// Сначала смотрит на типизированные ошибки (*APIError, context, net.Error),
// затем на текст — как делают для ошибок, пришедших из чужих слоёв.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrUnknown
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == CodeSignatureDoesNotMatch,
			apiErr.Code == CodeInvalidClientTokenID,
			apiErr.Code == CodeMissingClientTokenID,
			apiErr.StatusCode == http.StatusUnauthorized,
			apiErr.StatusCode == http.StatusForbidden:
			return ErrAuthFailed
		case apiErr.Code == CodeRequestThrottled,
			apiErr.StatusCode == http.StatusServiceUnavailable,
			apiErr.StatusCode == http.StatusTooManyRequests:
			return ErrRateLimit
		}
		return ErrUnknown
	}

	if errors.Is(err, ErrMalformedXML) {
		return ErrMalformedResponse
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	errMsg := err.Error()
	errMsgLower := strings.ToLower(errMsg)

	if strings.Contains(errMsgLower, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") {
		return ErrTimeout
	}

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host") {
		return ErrNetwork
	}

	return ErrUnknown
}
