package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/lookbook-app/lookbook/internal/models"
)

// ErrMalformedPayload is returned when the category mapping is not a JSON object
var ErrMalformedPayload = errors.New("malformed items payload")

// Dropped describes an item removed because it failed validation
type Dropped struct {
	Category string
	Index    int
	Reason   string
}

// Result is the flattened, ordered item list
type Result struct {
	Items   []models.Item
	Dropped []Dropped
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func itemValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Bytes looks up the "items" field of a full response body and normalizes it.
// found is false when the body has no items field.
func Bytes(body []byte) (res Result, found bool, err error) {
	if !gjson.ValidBytes(body) {
		return Result{}, false, fmt.Errorf("%w: response is not valid JSON", ErrMalformedPayload)
	}
	mapping := gjson.GetBytes(body, "items")
	if !mapping.Exists() || mapping.Type == gjson.Null {
		return Result{}, false, nil
	}
	res, err = Items(mapping)
	return res, true, err
}

// Items flattens a category name -> {items: [...]} mapping. Categories are visited
// in payload order and items keep their order inside each category.
func Items(mapping gjson.Result) (Result, error) {
	if !mapping.IsObject() {
		return Result{}, fmt.Errorf("%w: expected an object of categories, got %s", ErrMalformedPayload, mapping.Type)
	}

	res := Result{Items: []models.Item{}}
	mapping.ForEach(func(key, category gjson.Result) bool {
		name := key.String()
		raw := category.Get("items")
		if !raw.IsArray() {
			if raw.Exists() && raw.Type != gjson.Null {
				slog.Warn("Category items is not a list", "category", name, "type", raw.Type.String())
			}
			return true
		}

		for i, entry := range raw.Array() {
			item := toItem(entry)
			if err := itemValidator().Struct(item); err != nil {
				slog.Warn("Dropping malformed item", "category", name, "index", i, "id", item.ID, "err", err)
				res.Dropped = append(res.Dropped, Dropped{Category: name, Index: i, Reason: "missing url and imageUrl"})
				continue
			}
			res.Items = append(res.Items, item)
		}
		return true
	})

	return res, nil
}

func toItem(entry gjson.Result) models.Item {
	item := models.Item{
		ID:          entry.Get("id").String(),
		Name:        entry.Get("name").String(),
		Description: entry.Get("description").String(),
		URL:         entry.Get("url").String(),
		ImageURL:    entry.Get("imageUrl").String(),
		Category:    entry.Get("category").String(),
	}
	if item.ImageURL != "" {
		item.URL = item.ImageURL
	}
	return item
}
