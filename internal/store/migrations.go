package store

import (
	"encoding/json"
	"time"

	"voxcart/internal/category"
	"voxcart/internal/list"
	"voxcart/internal/quantity"
)

// listsVersion is the current schema version of the lists payload.
// Version 1 stored a bare item array with millisecond timestamps and
// optional fields, version 2 normalized every item, and version 3
// wraps the items in named lists.
const listsVersion = 3

// legacyItem is the loose shape of pre-normalization items. Timestamps
// are millisecond epochs and most fields may be absent.
type legacyItem struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Quantity       *float64 `json:"quantity"`
	Unit           string   `json:"unit"`
	Category       string   `json:"category"`
	CategorySource string   `json:"categorySource"`
	Completed      bool     `json:"completed"`
	CreatedAt      float64  `json:"createdAt"`
	UpdatedAt      float64  `json:"updatedAt"`
}

func listsMigrations() []Migration {
	return []Migration{
		{From: 1, Apply: migrateItemsNormalize},
		{From: 2, Apply: migrateItemsToLists},
	}
}

// migrateItemsNormalize upgrades a bare legacy item array: missing ids
// and timestamps are filled in, quantities are re-derived from the item
// text, and categories are inferred where absent.
func migrateItemsNormalize(raw json.RawMessage) (json.RawMessage, error) {
	var legacy []legacyItem
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, err
	}

	items := make([]list.Item, 0, len(legacy))
	for _, old := range legacy {
		text := list.NormalizeSpace(old.Text)
		if text == "" {
			continue
		}

		item := list.Item{
			ID:        old.ID,
			Text:      text,
			Unit:      quantity.NormalizeUnit(old.Unit),
			Completed: old.Completed,
			CreatedAt: fromMillis(old.CreatedAt),
			UpdatedAt: fromMillis(old.UpdatedAt),
		}
		if old.Quantity != nil {
			item.Quantity = *old.Quantity
		} else {
			parsed := quantity.Parse(text)
			if parsed.HasQuantity {
				item.Text = parsed.Name
				item.Quantity = parsed.Quantity
				item.Unit = parsed.Unit
			}
		}
		if item.ID == "" {
			item.ID = list.NewID()
		}

		switch {
		case old.CategorySource == string(list.CategoryManual) && category.Valid(old.Category):
			item.Category = category.Category(old.Category)
			item.CategorySource = list.CategoryManual
		case category.Valid(old.Category):
			item.Category = category.Category(old.Category)
			item.CategorySource = list.CategoryAuto
		default:
			item.Category = category.Infer(item.Text)
			item.CategorySource = list.CategoryAuto
		}

		items = append(items, item)
	}

	return json.Marshal(list.Partition(items))
}

// migrateItemsToLists wraps a normalized item array in a single named
// list, preserving the items verbatim.
func migrateItemsToLists(raw json.RawMessage) (json.RawMessage, error) {
	var probe []json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}

	wrapped := []struct {
		ID        string            `json:"id"`
		Name      string            `json:"name"`
		Items     []json.RawMessage `json:"items"`
		CreatedAt time.Time         `json:"createdAt"`
		UpdatedAt time.Time         `json:"updatedAt"`
	}{{
		ID:        list.NewID(),
		Name:      list.DefaultListName,
		Items:     probe,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}}
	return json.Marshal(wrapped)
}

func fromMillis(ms float64) time.Time {
	if ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(int64(ms))
}
