// Package i18n translates client-facing messages. English is the source
// language; the catalog carries a Japanese rendition of each message.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys are the English texts themselves.
const (
	MsgDatabaseError  = "a database error occurred"
	MsgNotFound       = "user not found"
	MsgInvalidName    = "name must be between 1 and 100 characters"
	MsgInvalidEmail   = "invalid email format"
	MsgInvalidBody    = "invalid request body"
	MsgInvalidID      = "invalid user id"
	MsgInternalError  = "internal server error"
	MsgTooManyRequest = "too many requests"
	MsgServerBusy     = "server busy"
	MsgTimeout        = "request timed out"
)

var japanese = map[string]string{
	MsgDatabaseError:  "データベースエラーが発生しました。",
	MsgNotFound:       "リソースが見つかりません。",
	MsgInvalidName:    "名前は1文字以上100文字以下である必要があります。",
	MsgInvalidEmail:   "無効なメールアドレス形式です",
	MsgInvalidBody:    "リクエストボディが不正です。",
	MsgInvalidID:      "ユーザーIDが不正です。",
	MsgInternalError:  "内部サーバーエラーが発生しました。",
	MsgTooManyRequest: "リクエストが多すぎます。",
	MsgServerBusy:     "サーバーが混雑しています。",
	MsgTimeout:        "リクエストがタイムアウトしました。",
}

var supported = []language.Tag{language.English, language.Japanese}

// Translator resolves Accept-Language headers and renders catalog messages.
type Translator struct {
	cat     *catalog.Builder
	matcher language.Matcher
}

// New builds a Translator with the English and Japanese catalogs.
func New() *Translator {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range japanese {
		// Keys are constants; SetString only fails on malformed tags.
		_ = b.SetString(language.Japanese, key, text)
	}
	return &Translator{cat: b, matcher: language.NewMatcher(supported)}
}

// Match picks the supported language closest to an Accept-Language value.
// Unparseable or empty input yields English.
func (t *Translator) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}

// Translate renders key in tag. Unknown keys come back unchanged.
func (t *Translator) Translate(tag language.Tag, key string) string {
	return message.NewPrinter(tag, message.Catalog(t.cat)).Sprintf(key)
}
