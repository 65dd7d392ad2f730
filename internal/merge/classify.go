// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package merge

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tomtom215/crmsync/internal/models"
)

// personalDomains are consumer mailbox providers.
var personalDomains = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"yahoo.co.uk":    {},
	"ymail.com":      {},
	"outlook.com":    {},
	"hotmail.com":    {},
	"hotmail.co.uk":  {},
	"live.com":       {},
	"msn.com":        {},
	"icloud.com":     {},
	"me.com":         {},
	"mac.com":        {},
	"aol.com":        {},
	"protonmail.com": {},
	"proton.me":      {},
	"pm.me":          {},
	"gmx.com":        {},
	"gmx.de":         {},
	"web.de":         {},
	"mail.com":       {},
	"yandex.com":     {},
	"yandex.ru":      {},
	"zoho.com":       {},
	"fastmail.com":   {},
	"hey.com":        {},
	"tutanota.com":   {},
	"qq.com":         {},
	"163.com":        {},
	"126.com":        {},
}

// secondLevelSuffixes are public suffixes with two labels.
var secondLevelSuffixes = map[string]struct{}{
	"co.uk":  {},
	"org.uk": {},
	"ac.uk":  {},
	"com.au": {},
	"co.nz":  {},
	"co.jp":  {},
	"co.in":  {},
	"com.br": {},
	"com.sg": {},
	"co.za":  {},
}

// EmailDomain returns the lower-cased part after the last "@", or "".
func EmailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

// Classify labels an address personal or business. Addresses without a
// domain are treated as personal.
func Classify(email string) models.EmailClassification {
	domain := EmailDomain(email)
	if domain == "" {
		return models.EmailPersonal
	}
	if _, ok := personalDomains[domain]; ok {
		return models.EmailPersonal
	}
	return models.EmailBusiness
}

// CompanyFromDomain derives a display company name from a business domain:
// "mail.acme-labs.co.uk" becomes "Acme-labs".
func CompanyFromDomain(domain string) string {
	labels := strings.Split(strings.Trim(domain, "."), ".")
	if len(labels) < 2 {
		return ""
	}
	idx := len(labels) - 2
	if len(labels) >= 3 {
		if _, ok := secondLevelSuffixes[strings.Join(labels[len(labels)-2:], ".")]; ok {
			idx = len(labels) - 3
		}
	}
	name := labels[idx]
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
