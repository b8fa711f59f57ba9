package paapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const (
	// ServiceName — фиксированный идентификатор сервиса в параметре Service.
	ServiceName = "AWSECommerceService"

	// OperationItemSearch — единственная поддерживаемая операция.
	OperationItemSearch = "ItemSearch"

	// DefaultHost и DefaultPath — endpoint японского маркетплейса.
	DefaultHost = "webservices.amazon.co.jp"
	DefaultPath = "/onca/xml"

	// TimestampLayout — формат параметра Timestamp (всегда UTC).
	TimestampLayout = "2006-01-02T15:04:05Z"
)

// DefaultResponseGroups — группы полей ответа, запрашиваемые по умолчанию.
var DefaultResponseGroups = []string{"Images", "ItemIds", "Medium"}

var (
	ErrEmptyKeyword        = errors.New("keyword is required")
	ErrMissingAccessKey    = errors.New("access key id is required")
	ErrMissingSecretKey    = errors.New("secret key is required")
	ErrMissingAssociateTag = errors.New("associate tag is required")
	ErrEmptyHost           = errors.New("host is required")
)

// Credentials — ключи доступа к Product Advertising API.
type Credentials struct {
	AccessKeyID  string
	SecretKey    string
	AssociateTag string
}

// Validate проверяет что все ключи заполнены.
//
// Пустой SecretKey — ошибка: подпись пустым ключом сервис всё равно отклонит.
func (c Credentials) Validate() error {
	if c.AccessKeyID == "" {
		return ErrMissingAccessKey
	}
	if c.SecretKey == "" {
		return ErrMissingSecretKey
	}
	if c.AssociateTag == "" {
		return ErrMissingAssociateTag
	}
	return nil
}

// Params — параметры запроса. Пустое значение означает "параметр отсутствует".
type Params map[string]string

// Compact возвращает новую карту без отсутствующих значений. Исходная карта не меняется.
func (p Params) Compact() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// with возвращает копию p с добавленными значениями из extra.
func (p Params) with(extra Params) Params {
	out := make(Params, len(p)+len(extra))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// BuildItemSearchParams собирает параметры операции ItemSearch.
//
// Keyword обрезается и приводится к NFC, чтобы одинаковый запрос всегда
// давал одинаковую каноническую строку. Пустая category опускается.
func BuildItemSearchParams(keyword, category string, groups []string) (Params, error) {
	keyword = norm.NFC.String(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	if len(groups) == 0 {
		groups = DefaultResponseGroups
	}

	return Params{
		"Operation":     OperationItemSearch,
		"Keywords":      keyword,
		"SearchIndex":   strings.TrimSpace(category),
		"ResponseGroup": strings.Join(groups, ","),
	}, nil
}

// SignedRequest — подписанный запрос. Не меняется после создания.
type SignedRequest struct {
	URL            string
	CanonicalQuery string
	Signature      string // Уже percent-encoded
	Timestamp      string
}

// Signer подписывает запросы по схеме Signature Version 2.
type Signer struct {
	creds Credentials
	host  string
	path  string
	now   func() time.Time
}

// NewSigner создаёт подписчика для host/path.
//
// Параметры:
//   - creds: ключи доступа (все три обязательны)
//   - host: например "webservices.amazon.co.jp"
//   - path: например "/onca/xml" (пустой → DefaultPath)
func NewSigner(creds Credentials, host, path string) (*Signer, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if host == "" {
		return nil, ErrEmptyHost
	}
	if path == "" {
		path = DefaultPath
	}

	return &Signer{
		creds: creds,
		host:  host,
		path:  path,
		now:   time.Now,
	}, nil
}

// WithClock подменяет источник времени (для детерминированных тестов).
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// Sign добавляет служебные параметры, канонизирует и подписывает запрос.
//
// Шаги:
//  1. Service, AWSAccessKeyId, AssociateTag, Timestamp (UTC)
//  2. Compact — отбрасываем пустые значения
//  3. Каноническая строка: ключи по байтам, значения в RFC 3986
//  4. HMAC-SHA256 над "GET\nhost\npath\ncanonical", base64, percent-encode
func (s *Signer) Sign(params Params) SignedRequest {
	timestamp := s.now().UTC().Format(TimestampLayout)

	full := params.with(Params{
		"Service":        ServiceName,
		"AWSAccessKeyId": s.creds.AccessKeyID,
		"AssociateTag":   s.creds.AssociateTag,
		"Timestamp":      timestamp,
	}).Compact()

	canonical := Canonicalize(full)
	signature := encodeSignature(computeSignature(s.creds.SecretKey, s.stringToSign(canonical)))

	return SignedRequest{
		URL:            "http://" + s.host + s.path + "?" + canonical + "&Signature=" + signature,
		CanonicalQuery: canonical,
		Signature:      signature,
		Timestamp:      timestamp,
	}
}

func (s *Signer) stringToSign(canonical string) string {
	return strings.Join([]string{"GET", s.host, s.path, canonical}, "\n")
}

// Canonicalize сериализует параметры: ключи отсортированы побайтово,
// значения percent-encoded, пары k=v соединены через &.
//
// Пустые значения не пропускаются — вызывающий делает Compact заранее.
func Canonicalize(p Params) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+PercentEncode(p[k]))
	}
	return strings.Join(pairs, "&")
}

// computeSignature возвращает base64(HMAC-SHA256(secret, message)).
func computeSignature(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

const upperHex = "0123456789ABCDEF"

// PercentEncode кодирует все байты UTF-8 кроме A-Z a-z 0-9 - _ . ~
func PercentEncode(s string) string {
	return percentEncode(s, "")
}

// encodeSignature кодирует base64 подпись; '/' остаётся как есть, '+' и '=' экранируются.
func encodeSignature(sig string) string {
	return percentEncode(sig, "/")
}

func percentEncode(s string, extraSafe string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || strings.IndexByte(extraSafe, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
