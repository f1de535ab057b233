package models

import (
	"regexp"
	"strings"
)

// Item is a read-only snapshot of one record from the digital collection.
// Only ID is guaranteed to be present; every other field may be empty.
// The field names mirror the collection's export columns, including the
// bilingual variants that older records use instead of the plain fields.
type Item struct {
	ID            string `json:"id" parquet:"id"`
	Title         string `json:"Title,omitempty" parquet:"title,optional"`
	TitleEnglish  string `json:"Title (English),omitempty" parquet:"title_english,optional"`
	TitleArabic   string `json:"Title (Arabic),omitempty" parquet:"title_arabic,optional"`
	Creator       string `json:"Creator,omitempty" parquet:"creator,optional"`
	CreatorArabic string `json:"Creator (Arabic),omitempty" parquet:"creator_arabic,optional"`
	Date          string `json:"Date,omitempty" parquet:"date,optional"`
	Description   string `json:"Description,omitempty" parquet:"description,optional"`
	Subject       string `json:"Subject,omitempty" parquet:"subject,optional"`
	Type          string `json:"Type,omitempty" parquet:"type,optional"`
	Collection    string `json:"Collection,omitempty" parquet:"collection,optional"`
	Language      string `json:"Language,omitempty" parquet:"language,optional"`
	CallNumber    string `json:"Call number,omitempty" parquet:"call_number,optional"`
	Rights        string `json:"Rights,omitempty" parquet:"rights,optional"`
	Notes         string `json:"Notes,omitempty" parquet:"notes,optional"`
}

var yearRe = regexp.MustCompile(`\b(\d{4})\b`)

// BestTitle resolves the display title using the fallback chain
// Title -> Title (English) -> Title (Arabic).
func (i *Item) BestTitle() string {
	for _, t := range []string{i.Title, i.TitleEnglish, i.TitleArabic} {
		if strings.TrimSpace(t) != "" {
			return t
		}
	}
	return "No Title"
}

// BestCreator resolves the display creator, preferring the romanized name.
func (i *Item) BestCreator() string {
	for _, c := range []string{i.Creator, i.CreatorArabic} {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return "Unknown"
}

// DisplayDate extracts a four digit year from the raw date string when
// possible. Catalog dates carry trailing dashes and cataloger notes like
// "date of publication not identified".
func (i *Item) DisplayDate() string {
	date := strings.TrimSpace(i.Date)
	if date == "" || strings.Contains(date, "date of publication not identified") {
		return "Unknown"
	}
	if m := yearRe.FindString(date); m != "" {
		return m
	}
	return strings.Trim(date, "-")
}

// BestDescription returns the description or a stable placeholder.
func (i *Item) BestDescription() string {
	if strings.TrimSpace(i.Description) != "" {
		return i.Description
	}
	return "No description available."
}

// ScriptResult is the outcome of one generation call for one item.
// ArabicScript is the refined translation of the English script; it is empty
// when quality control failed and translation was skipped.
type ScriptResult struct {
	EnglishScript string `json:"english_script" yaml:"english_script"`
	ArabicScript  string `json:"arabic_translation_refined,omitempty" yaml:"arabic_translation_refined,omitempty"`
	QCPassed      bool   `json:"qc_passed" yaml:"qc_passed"`
	QCMessage     string `json:"qc_message" yaml:"qc_message"`
	Regenerated   bool   `json:"regenerated,omitempty" yaml:"regenerated,omitempty"`
}

// BatchResultEntry records the outcome for one item of a batch run. Exactly
// one of Result and Error is set. Item is a snapshot taken when the entry was
// produced and is never mutated afterwards, including by regeneration.
type BatchResultEntry struct {
	ItemID string        `json:"item_id" yaml:"item_id"`
	Item   Item          `json:"item" yaml:"item"`
	Result *ScriptResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the entry recorded a failure.
func (e *BatchResultEntry) Failed() bool {
	return e.Error != ""
}
