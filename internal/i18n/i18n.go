// Package i18n holds the localized strings shown by the update prompt.
//
// Messages are registered in an x/text catalog per language. Placeholders use
// the `{name}` form and are filled from the params map passed to T.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys used by the update flow.
const (
	KeyLatestVersion   = "settings.version.latestVersion"
	KeyUpdateAvailable = "settings.version.updateAvailable"
	KeyUpdateConfirm   = "settings.version.updateConfirm"
	KeyCheckFailed     = "settings.version.checkFailed"
	KeyChecking        = "settings.version.checking"
	KeyCurrentVersion  = "settings.version.current"
	KeyYes             = "common.yes"
	KeyNo              = "common.no"

	// Footer hints.
	KeyHintCheck = "settings.version.checkUpdate"
	KeyHintTheme = "common.theme"
	KeyHintQuit  = "common.quit"
)

var messages = map[language.Tag]map[string]string{
	language.English: {
		KeyLatestVersion:   "You are using the latest version",
		KeyUpdateAvailable: "Update available",
		KeyUpdateConfirm:   "A new version {version} is available. Go to the download page now?",
		KeyCheckFailed:     "Failed to check for updates",
		KeyChecking:        "Checking for updates...",
		KeyCurrentVersion:  "Current version: {version}",
		KeyYes:             "Yes",
		KeyNo:              "No",
		KeyHintCheck:       "Check for updates",
		KeyHintTheme:       "Theme",
		KeyHintQuit:        "Quit",
	},
	language.Chinese: {
		KeyLatestVersion:   "当前已是最新版本",
		KeyUpdateAvailable: "发现新版本",
		KeyUpdateConfirm:   "检测到新版本 {version}，是否前往下载？",
		KeyCheckFailed:     "检查更新失败",
		KeyChecking:        "正在检查更新...",
		KeyCurrentVersion:  "当前版本：{version}",
		KeyYes:             "是",
		KeyNo:              "否",
		KeyHintCheck:       "检查更新",
		KeyHintTheme:       "主题",
		KeyHintQuit:        "退出",
	},
}

// Catalog translates message keys for one resolved language.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
	known   map[string]string
}

// New resolves locale ("zh", "en-US", "zh_CN", ...) against the supported
// languages and returns a Catalog for it. Unsupported locales fall back to
// English.
func New(locale string) *Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	supported := make([]language.Tag, 0, len(messages))
	supported = append(supported, language.English, language.Chinese)
	for tag, msgs := range messages {
		for key, text := range msgs {
			// Registration only fails on malformed messages, which these are not.
			_ = b.SetString(tag, key, text)
		}
	}

	tag := Resolve(locale, supported)
	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b)),
		known:   messages[tag],
	}
}

// Resolve matches locale against supported and returns the chosen base tag.
func Resolve(locale string, supported []language.Tag) language.Tag {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if len(supported) == 0 {
		return language.English
	}
	requested, err := language.Parse(locale)
	if err != nil {
		return supported[0]
	}
	_, idx, confidence := language.NewMatcher(supported).Match(requested)
	if confidence == language.No {
		return supported[0]
	}
	return supported[idx]
}

// Language returns the resolved language tag.
func (c *Catalog) Language() language.Tag {
	return c.tag
}

// T returns the message for key with {name} placeholders replaced from
// params. Unknown keys come back unchanged.
func (c *Catalog) T(key string, params map[string]string) string {
	text := key
	if _, ok := c.known[key]; ok {
		text = c.printer.Sprintf(message.Key(key, key))
	}
	if len(params) == 0 {
		return text
	}
	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
