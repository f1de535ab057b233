package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/auc-library-labs/scriptorium/internal/models"
)

// Local serves catalog queries from an in-memory copy of a collection
// export. Search, sort, and pagination all happen locally, which is plenty
// for collection exports in the tens of thousands of records.
type Local struct {
	items    []models.Item
	byID     map[string]int
	collator *collate.Collator
}

// NewLocal wraps an already-loaded record slice. Records without an id get
// one synthesized from the call number or their row position so batch
// processing can always address them.
func NewLocal(items []models.Item) *Local {
	byID := make(map[string]int, len(items))
	for i := range items {
		if strings.TrimSpace(items[i].ID) == "" {
			if cn := strings.TrimSpace(items[i].CallNumber); cn != "" {
				items[i].ID = cn
			} else {
				items[i].ID = "row-" + strconv.Itoa(i)
			}
		}
		byID[items[i].ID] = i
	}
	return &Local{
		items:    items,
		byID:     byID,
		collator: collate.New(language.Und, collate.IgnoreCase),
	}
}

// LoadLocal loads a collection export file (JSONL or Parquet) and returns a
// Local catalog over it.
func LoadLocal(path string) (*Local, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		items []models.Item
		err   error
	)
	switch ext {
	case ".parquet":
		items, err = loadParquet(path)
	case ".jsonl", ".json":
		items, err = loadJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported collection format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("Collection loaded", "path", path, "records", len(items))
	return NewLocal(items), nil
}

func loadJSONL(path string) ([]models.Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection file: %w", err)
	}
	defer file.Close()

	var items []models.Item
	scanner := bufio.NewScanner(file)

	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var item models.Item
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading collection: %w", err)
	}

	return items, nil
}

func loadParquet(path string) ([]models.Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[models.Item](pf)
	defer reader.Close()

	var items []models.Item
	rows := make([]models.Item, 128) // Read in batches

	for {
		n, err := reader.Read(rows)
		if n > 0 {
			items = append(items, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	return items, nil
}

// QueryPage filters, sorts, and pages the collection according to spec.
func (l *Local) QueryPage(ctx context.Context, spec FilterSpec) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if spec.Page < 1 || spec.PageSize < 1 {
		return nil, fmt.Errorf("invalid page request: page=%d limit=%d", spec.Page, spec.PageSize)
	}

	matched := l.search(spec.SearchQuery, spec.SearchField)
	l.sortItems(matched, spec.Sort)

	total := len(matched)
	totalPages := (total + spec.PageSize - 1) / spec.PageSize

	start := (spec.Page - 1) * spec.PageSize
	if start > total {
		start = total
	}
	end := start + spec.PageSize
	if end > total {
		end = total
	}

	page := &Page{
		Items:      append([]models.Item(nil), matched[start:end]...),
		Total:      total,
		TotalPages: totalPages,
	}
	return page, nil
}

// GetByID resolves a single record regardless of any active filter.
func (l *Local) GetByID(ctx context.Context, id string) (*models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, ok := l.byID[id]
	if !ok {
		return nil, &ErrNotFound{ID: id}
	}
	item := l.items[idx]
	return &item, nil
}

// Len reports the number of records in the collection.
func (l *Local) Len() int {
	return len(l.items)
}

func (l *Local) search(query, field string) []models.Item {
	query = strings.TrimSpace(query)
	if query == "" {
		return append([]models.Item(nil), l.items...)
	}

	needle := strings.ToLower(query)
	var matched []models.Item
	for _, item := range l.items {
		if matchesField(&item, field, needle) {
			matched = append(matched, item)
		}
	}
	return matched
}

// matchesField mirrors the collection API's search fan-out: "Title" and
// "Creator" include their bilingual variants, "All Fields" covers every
// searchable column.
func matchesField(item *models.Item, field, needle string) bool {
	contains := func(values ...string) bool {
		for _, v := range values {
			if v != "" && strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
		return false
	}

	switch field {
	case "", SearchAllFields:
		return contains(
			item.Title, item.TitleEnglish, item.TitleArabic,
			item.Creator, item.CreatorArabic,
			item.Description, item.Subject, item.Type, item.Collection,
			item.Language, item.CallNumber, item.Date, item.Notes,
		)
	case "Title":
		return contains(item.Title, item.TitleEnglish, item.TitleArabic)
	case "Creator":
		return contains(item.Creator, item.CreatorArabic)
	case "Description":
		return contains(item.Description)
	case "Subject":
		return contains(item.Subject)
	case "Type":
		return contains(item.Type)
	case "Collection":
		return contains(item.Collection)
	case "Language":
		return contains(item.Language)
	case "Call number":
		return contains(item.CallNumber)
	case "Date":
		return contains(item.Date)
	case "Notes":
		return contains(item.Notes)
	default:
		return false
	}
}

func (l *Local) sortItems(items []models.Item, key string) {
	switch key {
	case SortTitleAZ:
		sort.SliceStable(items, func(a, b int) bool {
			return l.collator.CompareString(sortTitle(&items[a]), sortTitle(&items[b])) < 0
		})
	case SortCreatorAZ:
		sort.SliceStable(items, func(a, b int) bool {
			return l.collator.CompareString(sortCreator(&items[a]), sortCreator(&items[b])) < 0
		})
	case SortYearOldest:
		sort.SliceStable(items, func(a, b int) bool {
			return sortYear(&items[a], 9999) < sortYear(&items[b], 9999)
		})
	case SortYearNewest:
		sort.SliceStable(items, func(a, b int) bool {
			return sortYear(&items[a], 0) > sortYear(&items[b], 0)
		})
	}
}

// sortTitle applies the Title -> Title (English) -> Title (Arabic) fallback
// chain the collection API uses for its title sort key.
func sortTitle(item *models.Item) string {
	for _, t := range []string{item.Title, item.TitleEnglish, item.TitleArabic} {
		if t != "" {
			return strings.ToLower(t)
		}
	}
	return ""
}

func sortCreator(item *models.Item) string {
	for _, c := range []string{item.Creator, item.CreatorArabic} {
		if c != "" {
			return strings.ToLower(c)
		}
	}
	return ""
}

// sortYear parses the record's year, using missing as the value for records
// without one so they sort after everything dated.
func sortYear(item *models.Item, missing int) int {
	year := item.DisplayDate()
	n, err := strconv.Atoi(year)
	if err != nil {
		return missing
	}
	return n
}
