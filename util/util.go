package util

import (
	"encoding/json"
	"fmt"
	"html"
	rnd "math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// kind prefixes that public resource URLs carry in their trailing segment,
// e.g. https://domain/publication-<id>
var kindPrefixes = []string{
	"reader-",
	"activity-",
	"publication-",
	"note-",
	"tag-",
	"document-",
}

// URLToID extracts the internal id from a public resource URL. It is purely
// syntactic: the trailing path segment, with a known kind prefix stripped.
// A bare id passes through unchanged, so URL and id forms resolve alike.
func URLToID(url string) string {
	seg := strings.TrimSuffix(url, "/")
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	for _, prefix := range kindPrefixes {
		if strings.HasPrefix(seg, prefix) {
			return strings.TrimPrefix(seg, prefix)
		}
	}
	return seg
}

func BaseURL(conf *AppConfig) string {
	return fmt.Sprintf("https://%s", conf.Conf.SslDomain)
}

func ReaderURL(conf *AppConfig, id uuid.UUID) string {
	return fmt.Sprintf("%s/reader-%s", BaseURL(conf), id)
}

func ActivityURL(conf *AppConfig, id uuid.UUID) string {
	return fmt.Sprintf("%s/activity-%s", BaseURL(conf), id)
}

func PublicationURL(conf *AppConfig, id uuid.UUID) string {
	return fmt.Sprintf("%s/publication-%s", BaseURL(conf), id)
}

func NoteURL(conf *AppConfig, id uuid.UUID) string {
	return fmt.Sprintf("%s/note-%s", BaseURL(conf), id)
}

func TagURL(conf *AppConfig, id uuid.UUID) string {
	return fmt.Sprintf("%s/tag-%s", BaseURL(conf), id)
}

func DocumentURL(conf *AppConfig, id uuid.UUID) string {
	return fmt.Sprintf("%s/document-%s", BaseURL(conf), id)
}

func RandomString(length int) string {
	rnd.Seed(time.Now().UnixNano())
	b := make([]byte, length)
	rnd.Read(b)
	return fmt.Sprintf("%x", b)[:length]
}

func NormalizeInput(text string) string {
	normalized := strings.Replace(text, "\n", " ", -1)
	normalized = html.EscapeString(normalized)
	return normalized
}

func DateTimeFormat() string {
	return "2006-01-02 15:04:05 CEST"
}

func PrettyPrint(i interface{}) string {
	s, _ := json.MarshalIndent(i, "", " ")
	return string(s)
}
