package update

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	appErrors "prochub/internal/errors"
)

// PayloadKind tags the shape a RemoteSource delivered.
type PayloadKind int

const (
	// PayloadEmpty is the zero value and never valid.
	PayloadEmpty PayloadKind = iota
	// PayloadStructured carries a decoded VersionInfo.
	PayloadStructured
	// PayloadText carries JSON text that still has to be decoded.
	PayloadText
)

// Payload is the raw answer of a RemoteSource.
type Payload struct {
	Kind PayloadKind
	Info *VersionInfo
	Text []byte
}

// StructuredPayload wraps already-decoded metadata.
func StructuredPayload(info VersionInfo) Payload {
	return Payload{Kind: PayloadStructured, Info: &info}
}

// TextPayload wraps a JSON document such as `{"version":"2.0.0","url":"..."}`.
func TextPayload[T ~string | ~[]byte](text T) Payload {
	return Payload{Kind: PayloadText, Text: []byte(text)}
}

// RemoteSource fetches metadata for the latest published build.
type RemoteSource interface {
	FetchRemote(ctx context.Context) (Payload, error)
}

// RemoteSourceFunc adapts a function to the RemoteSource interface.
type RemoteSourceFunc func(ctx context.Context) (Payload, error)

// FetchRemote implements RemoteSource.
func (f RemoteSourceFunc) FetchRemote(ctx context.Context) (Payload, error) {
	return f(ctx)
}

// Normalize turns p into a VersionInfo. Text payloads must decode to a JSON
// object; anything else fails with CodeParseFailed. A blank version becomes
// Unknown rather than an error.
func Normalize(p Payload) (VersionInfo, error) {
	var info VersionInfo
	switch p.Kind {
	case PayloadStructured:
		if p.Info == nil {
			return VersionInfo{}, appErrors.New(appErrors.CodeParseFailed, "structured payload without version info", nil)
		}
		info = *p.Info
	case PayloadText:
		decoded, err := decodeVersionInfo(p.Text)
		if err != nil {
			return VersionInfo{}, err
		}
		info = decoded
	default:
		return VersionInfo{}, appErrors.New(appErrors.CodeParseFailed, "empty payload", nil)
	}

	info.Version = strings.TrimSpace(info.Version)
	if info.Version == "" {
		info.Version = Unknown
	}
	info.URL = strings.TrimSpace(info.URL)
	return info, nil
}

// wireVersionInfo accepts any JSON type for each field so that a wrong type
// is reported as a shape error instead of a decode error.
type wireVersionInfo struct {
	Version json.RawMessage `json:"version"`
	URL     json.RawMessage `json:"url"`
	Notes   json.RawMessage `json:"notes"`
}

func decodeVersionInfo(text []byte) (VersionInfo, error) {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 {
		return VersionInfo{}, appErrors.New(appErrors.CodeParseFailed, "empty payload text", nil)
	}
	if !json.Valid(trimmed) {
		return VersionInfo{}, appErrors.New(appErrors.CodeParseFailed, "payload is not valid JSON", nil)
	}
	if trimmed[0] != '{' {
		return VersionInfo{}, appErrors.New(appErrors.CodeParseFailed, "payload is not a JSON object", nil)
	}

	var wire wireVersionInfo
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return VersionInfo{}, appErrors.New(appErrors.CodeParseFailed, "decode payload", err)
	}

	var info VersionInfo
	var err error
	if info.Version, err = optionalString("version", wire.Version); err != nil {
		return VersionInfo{}, err
	}
	if info.URL, err = optionalString("url", wire.URL); err != nil {
		return VersionInfo{}, err
	}
	if info.Notes, err = optionalString("notes", wire.Notes); err != nil {
		return VersionInfo{}, err
	}
	return info, nil
}

// optionalString reads a field that may be absent, null or a string.
func optionalString(field string, raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", appErrors.New(appErrors.CodeParseFailed, "field "+field+" is not a string", err)
	}
	return s, nil
}
