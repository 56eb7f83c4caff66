package douyin

import (
	"strconv"

	"github.com/wanglei-dev/goodscut/internal/models"
)

// imageListPaths describes where known payload schemas keep their image
// lists. Every path that resolves contributes descriptors, in table order,
// so supporting a new upstream schema is a data change here.
var imageListPaths = [][]string{
	{"product", "image"},
	{"product", "images"},
	{"data", "images"},
	{"data", "image_list"},
	{"image_list"},
}

// urlKeys are tried in order when an image entry is an object.
var urlKeys = []string{"url", "origin_url", "image_url"}

// extractAssets walks every known image-list path in the payload and
// collects the descriptors it can resolve. Entries without a usable URL are
// skipped rather than failing the whole extraction.
func extractAssets(payload map[string]any) []models.ProductAsset {
	var assets []models.ProductAsset
	for _, path := range imageListPaths {
		for index, entry := range lookupList(payload, path) {
			if asset, ok := assetFromEntry(index, entry); ok {
				assets = append(assets, asset)
			}
		}
	}
	return assets
}

func lookupList(payload map[string]any, path []string) []any {
	current := any(payload)
	for _, key := range path[:len(path)-1] {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[key]
	}
	obj, ok := current.(map[string]any)
	if !ok {
		return nil
	}
	list, _ := obj[path[len(path)-1]].([]any)
	return list
}

func assetFromEntry(index int, entry any) (models.ProductAsset, bool) {
	switch item := entry.(type) {
	case string:
		if item == "" {
			return models.ProductAsset{}, false
		}
		return models.ProductAsset{ID: strconv.Itoa(index), URL: item}, true
	case map[string]any:
		imageURL := entryURL(item)
		if imageURL == "" {
			return models.ProductAsset{}, false
		}
		asset := models.ProductAsset{
			ID:     entryID(item, index),
			URL:    imageURL,
			Width:  intField(item, "width"),
			Height: intField(item, "height"),
			Format: formatField(item),
		}
		return asset, true
	default:
		return models.ProductAsset{}, false
	}
}

func entryURL(item map[string]any) string {
	for _, key := range urlKeys {
		if s, ok := item[key].(string); ok && s != "" {
			return s
		}
	}
	if list, ok := item["url_list"].([]any); ok {
		for _, candidate := range list {
			if s, ok := candidate.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func entryID(item map[string]any, index int) string {
	switch id := item["id"].(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return strconv.Itoa(index)
}

func intField(item map[string]any, key string) int {
	if f, ok := item[key].(float64); ok {
		return int(f)
	}
	return 0
}

func formatField(item map[string]any) string {
	if s, ok := item["format"].(string); ok && s != "" {
		return s
	}
	if s, ok := item["file_type"].(string); ok {
		return s
	}
	return ""
}
